
package crawler

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html/charset"

	"politefetch/pkg/logger"
)

const (
	// ProductToken is the name robots.txt groups use for this fetcher.
	ProductToken     = "politefetch"
	DefaultUserAgent = ProductToken + "/1.0 (+https://example.com)"
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type HTTPClient struct {
	client    *http.Client
	log       *logger.Logger
	delay     time.Duration
	sizeCap   int64
	userAgent string
	sleep     Sleeper
}

type Option func(*HTTPClient)

// WithSizeCap truncates bodies to n bytes. Zero means no cap.
func WithSizeCap(n int64) Option {
	return func(h *HTTPClient) { h.sizeCap = n }
}

func WithUserAgent(ua string) Option {
	return func(h *HTTPClient) { h.userAgent = ua }
}

func WithSleeper(s Sleeper) Option {
	return func(h *HTTPClient) { h.sleep = s }
}

// NewStdClient builds the *http.Client shared by the fetcher and the robots
// checker.
func NewStdClient(timeout, dialTimeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// NewHTTPClient returns a fetcher that waits delay before every request.
func NewHTTPClient(client *http.Client, delay time.Duration, l *logger.Logger, opts ...Option) *HTTPClient {
	h := &HTTPClient{
		client:    client,
		log:       l,
		delay:     delay,
		userAgent: DefaultUserAgent,
		sleep:     sleepCtx,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Fetch waits the configured delay, then issues a single GET. It never
// retries. Failures are logged and returned as a classified Outcome.
func (h *HTTPClient) Fetch(ctx context.Context, rawURL string) Outcome {
	if err := h.sleep(ctx, h.delay); err != nil {
		return h.fail(classify(err), err)
	}

	start := time.Now()
	out := h.get(ctx, rawURL)
	out.Elapsed = time.Since(start)
	if !out.OK() {
		h.logFailure(out)
	}
	return out
}

func (h *HTTPClient) get(ctx context.Context, rawURL string) Outcome {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Outcome{Kind: KindNetworkError, Err: fmt.Errorf("invalid url %q", rawURL)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Outcome{Kind: KindNetworkError, Err: err}
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return Outcome{Kind: classify(err), Err: err}
	}
	defer resp.Body.Close()

	out := Outcome{
		StatusCode:  resp.StatusCode,
		Status:      resp.Status,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
	}
	if resp.StatusCode >= 400 {
		out.Kind = KindHTTPError
		out.Err = fmt.Errorf("%s for url: %s", statusText(resp), out.FinalURL)
		return out
	}

	var body io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			out.Kind, out.Err = KindNetworkError, fmt.Errorf("gzip: %w", err)
			return out
		}
		defer gz.Close()
		body = gz
	}
	if h.sizeCap > 0 {
		body = io.LimitReader(body, h.sizeCap)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		out.Kind, out.Err = classify(err), fmt.Errorf("read body: %w", err)
		return out
	}
	capped := h.sizeCap > 0 && int64(len(data)) == h.sizeCap

	text, err := decodeText(data, out.ContentType, capped)
	if err != nil {
		out.Kind, out.Err = classify(err), fmt.Errorf("read body: %w", err)
		return out
	}
	out.Kind = KindSuccess
	out.Body = text
	return out
}

// decodeText converts the body to UTF-8. A declared charset wins; otherwise
// valid UTF-8 is kept as is and anything else goes through the sniffed
// encoding. A capped body may end mid-character; that tail is dropped before
// the UTF-8 check.
func decodeText(data []byte, contentType string, capped bool) (string, error) {
	enc, name, certain := charset.DetermineEncoding(data, contentType)
	if capped && (!certain || name == "utf-8") {
		data = trimPartialRune(data)
	}
	if !certain && utf8.Valid(data) {
		return string(data), nil
	}
	utf8data, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		if !utf8.Valid(data) {
			return "", err
		}
		utf8data = data
	}
	return string(utf8data), nil
}

// trimPartialRune cuts an incomplete UTF-8 sequence off the end of data.
func trimPartialRune(data []byte) []byte {
	for i := len(data) - 1; i >= 0 && i >= len(data)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(data[i]) {
			continue
		}
		if !utf8.FullRune(data[i:]) {
			return data[:i]
		}
		break
	}
	return data
}

func classify(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}
	return KindNetworkError
}

func statusText(resp *http.Response) string {
	side := "Client"
	if resp.StatusCode >= 500 {
		side = "Server"
	}
	return fmt.Sprintf("%d %s Error: %s", resp.StatusCode, side, http.StatusText(resp.StatusCode))
}

func (h *HTTPClient) fail(k Kind, err error) Outcome {
	out := Outcome{Kind: k, Err: err}
	h.logFailure(out)
	return out
}

func (h *HTTPClient) logFailure(out Outcome) {
	switch out.Kind {
	case KindTimeout:
		h.log.Errorf("Request timed out.")
	case KindHTTPError:
		h.log.Errorf("HTTP error: %v", out.Err)
	default:
		h.log.Errorf("Network error: %v", out.Err)
	}
}
