package httpclient

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserAgent(t *testing.T) {
	t.Parallel()

	var capturedHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		capturedHeaders = r.Header
	}))
	defer srv.Close()

	client := NewHTTPClient()
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.True(t, strings.HasPrefix(capturedHeaders.Get("User-Agent"), "agentops-go/"))
}

func TestWithHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   string
		wantSet bool
	}{
		{
			name:    "sets header when value is provided",
			value:   "abc",
			wantSet: true,
		},
		{
			name:    "skips header when value is empty",
			value:   "",
			wantSet: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var capturedHeaders http.Header
			srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				capturedHeaders = r.Header
			}))
			defer srv.Close()

			client := NewHTTPClient(WithHeader("X-Agentops-Test", tt.value))
			req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
			require.NoError(t, err)

			resp, err := client.Do(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			if tt.wantSet {
				assert.Equal(t, tt.value, capturedHeaders.Get("X-Agentops-Test"))
			} else {
				assert.Empty(t, capturedHeaders.Get("X-Agentops-Test"))
			}
		})
	}
}

func TestWithTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	client := NewHTTPClient(WithTimeout(20 * time.Millisecond))
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	_, err = client.Do(req) //nolint:bodyclose // request fails
	require.Error(t, err)
}
