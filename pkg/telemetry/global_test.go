package telemetry

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentops-ai/agentops-go/pkg/event"
)

func TestGlobalClient(t *testing.T) {
	t.Cleanup(func() { _ = Teardown(context.Background()) })

	assert.Nil(t, Default())
	require.NoError(t, Record(t.Context(), event.NewAction("ignored")), "no client is a no-op")

	ft := &fakeTransport{}
	client, err := Init(t.Context(), testConfig(), WithTransport(ft), WithSignalHandling(false))
	require.NoError(t, err)
	assert.Same(t, client, Default())

	_, err = Init(t.Context(), testConfig(), WithTransport(ft), WithSignalHandling(false))
	require.ErrorIs(t, err, ErrAlreadyInitialized)

	_, err = client.StartSession(t.Context())
	require.NoError(t, err)
	require.NoError(t, Record(t.Context(), event.NewAction("global")))

	require.NoError(t, Teardown(t.Context()))
	assert.Nil(t, Default())
	assert.Equal(t, 1, ft.eventCount())
	assert.Len(t, ft.getEnds(), 1)

	require.NoError(t, Teardown(t.Context()))
}

func TestInitAfterTeardownSharesRegistry(t *testing.T) {
	t.Cleanup(func() { _ = Teardown(context.Background()) })

	reg := prometheus.NewRegistry()
	ft := &fakeTransport{}
	opts := []Option{WithTransport(ft), WithSignalHandling(false), WithRegisterer(reg)}

	first, err := Init(t.Context(), testConfig(), opts...)
	require.NoError(t, err)
	_, err = first.StartSession(t.Context())
	require.NoError(t, err)
	require.NoError(t, Record(t.Context(), event.NewAction("first")))
	require.NoError(t, Teardown(t.Context()))

	var second *Client
	require.NotPanics(t, func() {
		second, err = Init(t.Context(), testConfig(), opts...)
	})
	require.NoError(t, err)
	_, err = second.StartSession(t.Context())
	require.NoError(t, err)
	require.NoError(t, Record(t.Context(), event.NewAction("second")))
	require.NoError(t, Teardown(t.Context()))

	assert.Equal(t, 2, ft.eventCount())
	assert.InDelta(t, 2, testutil.ToFloat64(second.Metrics().EventsFlushed), 0)
}

func TestContextClientWinsOverGlobal(t *testing.T) {
	ft := &fakeTransport{}
	c, _ := newTestClient(t, ft, testConfig())
	_, err := c.StartSession(t.Context())
	require.NoError(t, err)

	ctx := WithClient(t.Context(), c)
	assert.Same(t, c, FromContext(ctx))
	assert.Nil(t, FromContext(t.Context()))

	require.NoError(t, Record(ctx, event.NewAction("scoped")))
	require.NoError(t, c.Flush(t.Context()))
	assert.Equal(t, 1, ft.eventCount())
}
