package telemetry

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/agentops-ai/agentops-go/pkg/event"
	"github.com/agentops-ai/agentops-go/pkg/session"
)

// watchSignals ends the session when the process receives SIGINT or
// SIGTERM, then exits with the conventional 128+signal status.
func (c *Client) watchSignals() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	c.stopSignals = func() {
		signal.Stop(signals)
		close(done)
	}

	go func() {
		select {
		case sig := <-signals:
			c.handleSignal(sig)
		case <-done:
		}
	}()
}

func (c *Client) handleSignal(sig os.Signal) {
	name := signalName(sig)
	c.logger.Info("Received signal, ending session", "signal", name)

	_ = c.shutdown(context.Background(), session.EndOptions{
		State:  event.ResultFail,
		Reason: fmt.Sprintf("Signal %s detected", name),
	})
	c.exit(exitCode(sig))
}

// HandlePanic ends the session with Fail when the surrounding function
// panics, then panics again with the same value. It must be deferred
// directly:
//
//	defer client.HandlePanic()
func (c *Client) HandlePanic() {
	if c == nil {
		return
	}
	r := recover()
	if r == nil {
		return
	}

	fatal := &FatalProcessError{Value: r, Stack: debug.Stack()}
	c.logger.Error("Unhandled panic, ending session", "panic", fmt.Sprint(r))
	_ = c.shutdown(context.Background(), session.EndOptions{
		State:  event.ResultFail,
		Reason: fatal.Error(),
	})
	panic(r)
}

func signalName(sig os.Signal) string {
	switch sig {
	case os.Interrupt:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return sig.String()
	}
}

func exitCode(sig os.Signal) int {
	if s, ok := sig.(syscall.Signal); ok {
		return 128 + int(s)
	}
	return 1
}
