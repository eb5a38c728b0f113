package main

import (
	"context"
	"errors"
	"os"

	"github.com/agentops-ai/agentops-go/cmd/root"
)

func main() {
	ctx := context.Background()

	if err := root.Execute(ctx, os.Stdin, os.Stdout, os.Stderr, os.Args[1:]...); err != nil {
		if exitErr, ok := errors.AsType[root.ExitCodeError](err); ok {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
