package root

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentops-ai/agentops-go/pkg/event"
	"github.com/agentops-ai/agentops-go/pkg/session"
)

const maxLineSize = 4 << 20

func newIngestCmd(flags *rootFlags) *cobra.Command {
	var tags []string

	cmd := &cobra.Command{
		Use:   "ingest [file]",
		Short: "Record JSON-lines events inside one session",
		Long: `Read one JSON event per line from a file, or from stdin when no file is given,
and record every event inside a single session. Malformed lines are skipped.`,
		Example: `  agentops ingest events.jsonl
  my-agent --emit-events | agentops ingest --tags replay`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, flags, tags, args)
		},
	}
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Tags to attach to the session")

	return cmd
}

func runIngest(cmd *cobra.Command, flags *rootFlags, tags, args []string) error {
	ctx := cmd.Context()

	in := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

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

	recorded, skipped, readErr := ingest(ctx, in, func(ev event.Event) error {
		return client.Record(ctx, ev)
	}, func(line int, err error) {
		flags.logger.Warn("Skipping event", "line", line, "error", err)
	})

	endOpts := session.EndOptions{
		State:  event.ResultSuccess,
		Reason: fmt.Sprintf("ingested %d events, skipped %d", recorded, skipped),
	}
	if readErr != nil {
		endOpts = session.EndOptions{State: event.ResultFail, Reason: fmt.Sprintf("reading events: %v", readErr)}
	}
	if err := client.EndSession(ctx, endOpts); err != nil {
		flags.logger.Warn("Failed to end session", "error", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Recorded %d events, skipped %d\n", recorded, skipped)
	if readErr != nil {
		return fmt.Errorf("reading events: %w", readErr)
	}
	return nil
}

// ingest decodes one event per non-blank line and hands it to record. Lines
// that fail to decode or that record rejects are reported to skip.
func ingest(ctx context.Context, r io.Reader, record func(event.Event) error, skip func(line int, err error)) (recorded, skipped int, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return recorded, skipped, err
		}
		line++

		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}

		ev, err := decodeEvent(data)
		if err == nil {
			err = record(ev)
		}
		if err != nil {
			skip(line, err)
			skipped++
			continue
		}
		recorded++
	}

	return recorded, skipped, scanner.Err()
}

// decodeEvent fills the fields a line leaves out the way event.New does.
func decodeEvent(data []byte) (event.Event, error) {
	ev := event.New("")
	if err := json.Unmarshal(data, &ev); err != nil {
		return event.Event{}, err
	}
	if err := ev.Validate(); err != nil {
		return event.Event{}, err
	}
	return ev, nil
}
