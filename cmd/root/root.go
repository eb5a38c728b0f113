package root

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentops-ai/agentops-go/pkg/config"
	"github.com/agentops-ai/agentops-go/pkg/env"
	"github.com/agentops-ai/agentops-go/pkg/logging"
	"github.com/agentops-ai/agentops-go/pkg/telemetry"
)

type rootFlags struct {
	enableOtel  bool
	debugMode   bool
	logFilePath string
	apiKey      string
	endpoint    string

	logger       *slog.Logger
	logFile      io.Closer
	shutdownOtel func(context.Context) error
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&rootFlags{})
}

func newRootCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agentops",
		Short: "agentops - record agent runs as AgentOps sessions",
		Long:  "agentops records commands and event streams as sessions on the AgentOps dashboard",
		Example: `  agentops exec -- python agent.py
  agentops exec --tags nightly,eval -- ./run-evals.sh
  agentops ingest events.jsonl`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.setupLogging(cmd.ErrOrStderr()); err != nil {
				return err
			}

			if flags.enableOtel {
				shutdown, err := initOTelSDK(cmd.Context())
				if err != nil {
					flags.logger.Warn("Failed to initialize OpenTelemetry SDK", "error", err)
				} else {
					flags.shutdownOtel = shutdown
					flags.logger.Debug("OpenTelemetry SDK initialized successfully")
				}
			}

			return nil
		},
		// If no subcommand is specified, show help
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().BoolVarP(&flags.debugMode, "debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flags.enableOtel, "otel", "o", false, "Enable OpenTelemetry tracing")
	cmd.PersistentFlags().StringVar(&flags.logFilePath, "log-file", "", "Also write logs to this file")
	cmd.PersistentFlags().StringVar(&flags.apiKey, "api-key", "", "AgentOps API key (default: $"+config.EnvAPIKey+")")
	cmd.PersistentFlags().StringVar(&flags.endpoint, "endpoint", "", "Collector endpoint (default: $"+config.EnvEndpoint+")")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newExecCmd(flags))
	cmd.AddCommand(newIngestCmd(flags))

	return cmd
}

func Execute(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args ...string) error {
	var flags rootFlags
	defer flags.close(ctx)

	rootCmd := newRootCmd(&flags)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return processErr(ctx, err, stderr, rootCmd)
	}
	return nil
}

func processErr(ctx context.Context, err error, stderr io.Writer, rootCmd *cobra.Command) error {
	if ctx.Err() != nil {
		return ctx.Err()
	} else if _, ok := errors.AsType[ExitCodeError](err); ok {
		// The command printed its own output
	} else {
		fmt.Fprintln(stderr, err)
		if strings.HasPrefix(err.Error(), "unknown command ") || strings.HasPrefix(err.Error(), "accepts ") {
			fmt.Fprintln(stderr)
			_ = rootCmd.Usage()
		}
	}

	return err
}

// setupLogging writes text logs to stderr and, with --log-file, to that
// file too.
func (f *rootFlags) setupLogging(stderr io.Writer) error {
	logger, closer, err := logging.New(logging.Options{
		Debug:    f.debugMode,
		ToFile:   strings.TrimSpace(f.logFilePath) != "",
		FilePath: strings.TrimSpace(f.logFilePath),
		Stderr:   stderr,
	})
	if err != nil {
		f.logger = slog.New(slog.NewTextHandler(stderr, nil))
		return fmt.Errorf("opening log file: %w", err)
	}

	f.logger = logger
	f.logFile = closer
	slog.SetDefault(logger)
	return nil
}

func (f *rootFlags) close(ctx context.Context) {
	if f.shutdownOtel != nil {
		if err := f.shutdownOtel(context.WithoutCancel(ctx)); err != nil {
			f.logger.Error("Failed to flush traces", "error", err)
		}
		f.shutdownOtel = nil
	}
	if f.logFile != nil {
		if err := f.logFile.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "Failed to close log file:", err)
		}
		f.logFile = nil
	}
}

// newClient loads the configuration, applies the command line overrides and
// builds a client that does not start a session on its own.
func (f *rootFlags) newClient(ctx context.Context) (*telemetry.Client, error) {
	cfg, err := config.Load(ctx, env.NewDefaultProvider())
	if err != nil {
		return nil, err
	}
	if f.apiKey != "" {
		cfg.APIKey = f.apiKey
	}
	if f.endpoint != "" {
		cfg.Endpoint = strings.TrimRight(f.endpoint, "/")
	}
	cfg.AutoStartSession = false

	if !cfg.Enabled() {
		return nil, fmt.Errorf("no API key: set %s or pass --api-key", config.EnvAPIKey)
	}

	var opts []telemetry.Option
	if !cfg.LoggingToFile {
		opts = append(opts, telemetry.WithLogger(f.logger))
	}
	return telemetry.New(ctx, cfg, opts...)
}

// ExitCodeError carries the exit code of a command run by exec.
type ExitCodeError struct {
	Code int
}

func (e ExitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}
