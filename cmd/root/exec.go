package root

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentops-ai/agentops-go/pkg/event"
	"github.com/agentops-ai/agentops-go/pkg/session"
)

func newExecCmd(flags *rootFlags) *cobra.Command {
	var tags []string

	cmd := &cobra.Command{
		Use:   "exec [--tags t1,t2] -- <command> [args]...",
		Short: "Run a command inside a recorded session",
		Long: `Start a session, run the command, record its outcome and end the session.
The session ends with Success when the command exits with code 0, Fail otherwise.
agentops exits with the command's exit code.`,
		Example: `  agentops exec -- python agent.py --task summarize
  agentops exec --tags nightly -- ./run-evals.sh`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd, flags, tags, args)
		},
	}
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Tags to attach to the session")

	return cmd
}

func runExec(cmd *cobra.Command, flags *rootFlags, tags, args []string) error {
	ctx := cmd.Context()

	client, err := flags.newClient(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Shutdown(context.WithoutCancel(ctx)); err != nil {
			flags.logger.Warn("Failed to shut down cleanly", "error", err)
		}
	}()

	if _, err := client.StartSession(ctx, tags...); err != nil {
		return err
	}
	printSessionURL(cmd.ErrOrStderr(), client.SessionURL())

	start := time.Now()
	child := exec.CommandContext(ctx, args[0], args[1:]...)
	child.Stdin = cmd.InOrStdin()
	child.Stdout = cmd.OutOrStdout()
	child.Stderr = cmd.ErrOrStderr()
	runErr := child.Run()
	end := time.Now()

	code := exitCode(runErr)

	params := event.NewParams()
	params.Set("command", args[0])
	params.Set("args", args[1:])

	result := event.ResultSuccess
	endOpts := session.EndOptions{State: event.ResultSuccess, Reason: "command exited with code 0"}
	if runErr != nil {
		result = event.ResultFail
		endOpts = session.EndOptions{State: event.ResultFail, Reason: fmt.Sprintf("command failed: %v", runErr)}
	}

	ev := event.NewAction("command",
		event.WithParams(params),
		event.WithReturns(map[string]int{"exit_code": code}),
		event.WithResult(result),
		event.WithTimestamps(start, end),
	)
	if err := client.Record(ctx, ev); err != nil {
		flags.logger.Warn("Failed to record command", "error", err)
	}

	// The command never ran
	if code < 0 {
		errEv := event.NewError("ExecError", runErr, event.WithTrigger(ev))
		if err := client.Record(ctx, errEv); err != nil {
			flags.logger.Warn("Failed to record error", "error", err)
		}
	}

	if err := client.EndSession(ctx, endOpts); err != nil {
		flags.logger.Warn("Failed to end session", "error", err)
	}

	switch {
	case code < 0:
		return fmt.Errorf("running %s: %w", args[0], runErr)
	case code > 0:
		return ExitCodeError{Code: code}
	}
	return nil
}

// exitCode returns the exit code of a finished command, or -1 when it could
// not be started or was killed.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := errors.AsType[*exec.ExitError](err); ok {
		return exitErr.ExitCode()
	}
	return -1
}
