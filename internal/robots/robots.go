
package robots

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/temoto/robotstxt"

	"politefetch/pkg/logger"
)

var ErrInvalidTarget = errors.New("invalid target url")

// maxRobotsBytes bounds how much of robots.txt is parsed; rules past it are ignored.
const maxRobotsBytes = 500 << 10

// Checker answers whether a user agent may fetch a URL. It is fail-closed:
// when permission cannot be determined the answer is no. Nothing is cached,
// every call fetches robots.txt again.
type Checker struct {
	client *http.Client
	log    *logger.Logger
}

func NewChecker(client *http.Client, l *logger.Logger) *Checker {
	return &Checker{client: client, log: l}
}

// RobotsURL returns scheme://host[:port]/robots.txt for target.
func RobotsURL(target string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q has no scheme or host", ErrInvalidTarget, target)
	}
	return u.Scheme + "://" + u.Host + "/robots.txt", nil
}

// Allowed logs and swallows the error from Check, treating it as a deny.
func (c *Checker) Allowed(ctx context.Context, target, userAgent string) bool {
	ok, err := c.Check(ctx, target, userAgent)
	if err != nil {
		c.log.Errorf("Failed to read robots.txt: %v", err)
		return false
	}
	return ok
}

func (c *Checker) Check(ctx context.Context, target, userAgent string) (bool, error) {
	if userAgent == "" {
		userAgent = "*"
	}
	robotsURL, err := RobotsURL(target)
	if err != nil {
		return false, err
	}
	c.log.Infof("Checking robots.txt at %s", robotsURL)

	u, _ := url.Parse(target)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return false, err
	}
	if userAgent != "*" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	// robotstxt treats every 4xx as allow-all; auth failures mean the
	// rules exist but cannot be read.
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return false, nil
	}

	resp.Body = io.NopCloser(io.LimitReader(resp.Body, maxRobotsBytes))
	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", robotsURL, err)
	}
	return data.TestAgent(u.RequestURI(), userAgent), nil
}
