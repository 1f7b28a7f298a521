package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// Target identifies the guest under stress test. Immutable for the session.
type Target struct {
	// Guest is the libvirt domain name used for power control.
	Guest string

	// URL is the full fetch URL the transfer workers hit.
	URL string

	// Address is the host portion of URL, used by the liveness probe.
	Address string
}

// NewTarget builds a Target from the fetch URL and guest name.
func NewTarget(rawURL, guest string) (Target, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Target{}, fmt.Errorf("parse target url: %w", err)
	}
	if u.Host == "" {
		return Target{}, fmt.Errorf("target url %q has no host", rawURL)
	}
	return Target{
		Guest:   guest,
		URL:     rawURL,
		Address: u.Hostname(),
	}, nil
}

// ServiceRoot returns the URL one path level above the fetch URL.
// The readiness probe hits this after a power cycle, so a missing data
// file does not mask a webserver that is back up.
func (t Target) ServiceRoot() string {
	u, err := url.Parse(t.URL)
	if err != nil {
		return t.URL
	}
	if idx := strings.LastIndex(u.Path, "/"); idx >= 0 {
		u.Path = u.Path[:idx+1]
	}
	return u.String()
}
