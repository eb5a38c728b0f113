//go:build unix

package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/agentops-ai/agentops-go/pkg/event"
)

func TestSIGTERMEndsSession(t *testing.T) {
	ft := &fakeTransport{}
	exitCodes := make(chan int, 1)
	c, _ := newTestClient(t, ft, testConfig(),
		WithSignalHandling(true),
		WithExitFunc(func(code int) { exitCodes <- code }),
	)

	_, err := c.StartSession(t.Context())
	require.NoError(t, err)
	require.NoError(t, c.Record(t.Context(), event.NewAction("before-signal")))

	require.NoError(t, unix.Kill(unix.Getpid(), unix.SIGTERM))

	select {
	case code := <-exitCodes:
		assert.Equal(t, 143, code)
	case <-time.After(2 * time.Second):
		t.Fatal("signal was not handled")
	}

	ends := ft.getEnds()
	require.Len(t, ends, 1)
	assert.Equal(t, "Signal SIGTERM detected", ends[0].EndStateReason)
	assert.Equal(t, 1, ft.eventCount())
}
