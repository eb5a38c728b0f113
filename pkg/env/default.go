package env

// NewDefaultProvider looks in the process environment first, then in a .env
// file in the working directory. A malformed .env file is ignored.
func NewDefaultProvider() Provider {
	return NewMultiProvider(
		NewOSProvider(),
		NewNoFailProvider(
			NewDotEnvProvider(".env"),
		),
	)
}
