
package crawler

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"politefetch/pkg/logger"
)

type recordedSleep struct {
	calls []time.Duration
}

func (r *recordedSleep) sleep(_ context.Context, d time.Duration) error {
	r.calls = append(r.calls, d)
	return nil
}

func newTestClient(buf *bytes.Buffer, timeout time.Duration, opts ...Option) (*HTTPClient, *recordedSleep) {
	rec := &recordedSleep{}
	opts = append([]Option{WithSleeper(rec.sleep)}, opts...)
	return NewHTTPClient(NewStdClient(timeout, time.Second), 2*time.Second, logger.NewWithWriter(buf), opts...), rec
}

func TestFetchHTML(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(200)
		_, _ = w.Write([]byte("<html><title>x</title></html>"))
	}))
	defer ts.Close()

	var buf bytes.Buffer
	client, rec := newTestClient(&buf, 5*time.Second)
	out := client.Fetch(context.Background(), ts.URL)
	require.True(t, out.OK(), "fetch err: %v", out.Err)
	assert.Equal(t, "<html><title>x</title></html>", out.Body)
	assert.Equal(t, 200, out.StatusCode)
	assert.NotEmpty(t, out.FinalURL)
	assert.Equal(t, "text/html", out.ContentType)
	assert.Equal(t, []time.Duration{2 * time.Second}, rec.calls)
	assert.Empty(t, buf.String())
}

func TestFetchKeepsMultiByteText(t *testing.T) {
	body := "héllo wörld ✓"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	defer ts.Close()

	client, _ := newTestClient(&bytes.Buffer{}, 5*time.Second)
	out := client.Fetch(context.Background(), ts.URL)
	require.True(t, out.OK())
	assert.Equal(t, body, out.Body)
}

func TestFetchDecodesDeclaredCharset(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=iso-8859-1")
		_, _ = w.Write([]byte{'c', 'a', 'f', 0xe9})
	}))
	defer ts.Close()

	client, _ := newTestClient(&bytes.Buffer{}, 5*time.Second)
	out := client.Fetch(context.Background(), ts.URL)
	require.True(t, out.OK())
	assert.Equal(t, "café", out.Body)
}

func TestFetchGzip(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte("<p>compressed</p>"))
		_ = gz.Close()
	}))
	defer ts.Close()

	client, _ := newTestClient(&bytes.Buffer{}, 5*time.Second)
	out := client.Fetch(context.Background(), ts.URL)
	require.True(t, out.OK(), "fetch err: %v", out.Err)
	assert.Equal(t, "<p>compressed</p>", out.Body)
}

func TestFetchSizeCap(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer ts.Close()

	client, _ := newTestClient(&bytes.Buffer{}, 5*time.Second, WithSizeCap(4))
	out := client.Fetch(context.Background(), ts.URL)
	require.True(t, out.OK())
	assert.Equal(t, "0123", out.Body)
}

func TestFetchSizeCapKeepsWholeCharacters(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		limit       int64
		want        string
	}{
		{"no charset cut inside é", "text/plain", 2, "h"},
		{"no charset cut after é", "text/plain", 3, "hé"},
		{"declared utf-8 cut inside é", "text/plain; charset=utf-8", 2, "h"},
		{"cut inside ö keeps earlier é", "text/plain", 9, "héllo w"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				_, _ = w.Write([]byte("héllo wörld"))
			}))
			defer ts.Close()

			client, _ := newTestClient(&bytes.Buffer{}, 5*time.Second, WithSizeCap(tt.limit))
			out := client.Fetch(context.Background(), ts.URL)
			require.True(t, out.OK(), "fetch err: %v", out.Err)
			assert.Equal(t, tt.want, out.Body)
		})
	}
}

func TestTrimPartialRune(t *testing.T) {
	assert.Equal(t, []byte("abc"), trimPartialRune([]byte("abc")))
	assert.Equal(t, []byte("a"), trimPartialRune([]byte{'a', 0xe2, 0x9c}))
	assert.Equal(t, []byte("a✓"), trimPartialRune([]byte("a✓")))
	assert.Empty(t, trimPartialRune([]byte{0xf0, 0x9f}))
}

func TestFetchHTTPError(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusNotFound, "HTTP error: 404 Client Error: Not Found for url: "},
		{http.StatusBadGateway, "HTTP error: 502 Server Error: Bad Gateway for url: "},
	}
	for _, tt := range tests {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		var buf bytes.Buffer
		client, _ := newTestClient(&buf, 5*time.Second)
		out := client.Fetch(context.Background(), ts.URL)
		ts.Close()

		assert.Equal(t, KindHTTPError, out.Kind)
		assert.Equal(t, tt.status, out.StatusCode)
		assert.Empty(t, out.Body)
		assert.Contains(t, buf.String(), "[ERROR] ")
		assert.Contains(t, buf.String(), tt.want)
	}
}

func TestFetchTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()

	var buf bytes.Buffer
	client, _ := newTestClient(&buf, 50*time.Millisecond)
	out := client.Fetch(context.Background(), ts.URL)
	assert.Equal(t, KindTimeout, out.Kind)
	assert.Equal(t, "timeout", out.Kind.String())
	assert.Error(t, out.Err)
	assert.Contains(t, buf.String(), "Request timed out.")
}

func TestFetchNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	var buf bytes.Buffer
	client, _ := newTestClient(&buf, 5*time.Second)
	out := client.Fetch(context.Background(), url)
	assert.Equal(t, KindNetworkError, out.Kind)
	assert.Contains(t, buf.String(), "Network error: ")
}

func TestFetchInvalidURL(t *testing.T) {
	var buf bytes.Buffer
	client, rec := newTestClient(&buf, 5*time.Second)
	out := client.Fetch(context.Background(), "example.com/no-scheme")
	assert.Equal(t, KindNetworkError, out.Kind)
	assert.Len(t, rec.calls, 1)
	assert.Contains(t, buf.String(), "Network error: invalid url")
}

func TestFetchSingleAttempt(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	client, _ := newTestClient(&bytes.Buffer{}, 5*time.Second)
	out := client.Fetch(context.Background(), ts.URL)
	assert.Equal(t, KindHTTPError, out.Kind)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestDelayHonoursContext(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewHTTPClient(NewStdClient(time.Second, time.Second), time.Hour, logger.NewWithWriter(&bytes.Buffer{}))
	out := client.Fetch(ctx, ts.URL)
	assert.Equal(t, KindNetworkError, out.Kind)
	assert.ErrorIs(t, out.Err, context.Canceled)
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestSleepCtxWaits(t *testing.T) {
	start := time.Now()
	require.NoError(t, sleepCtx(context.Background(), 20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
