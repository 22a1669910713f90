package services

import (
	"errors"
	"net/http"
	"time"
)

const (
	defaultRetryMax = 2
)

// RetryTransport retries replayable requests (GET/HEAD without a body) that fail at the transport level.
//
// Answers from the player, including 5xx, are returned as-is: the player has seen the request.
type RetryTransport struct {
	Base http.RoundTripper

	// RetryMax is the number of retries after the first attempt.
	RetryMax int
}

// RoundTrip implements [http.RoundTripper].
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) &&
		(req.Body == nil || req.Body == http.NoBody)
	max := t.RetryMax
	if max < 0 || !canRetry {
		max = 0
	}

	var lastErr error
	for attempt := 0; attempt <= max; attempt++ {
		resp, err := base.RoundTrip(req.Clone(req.Context()))
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if req.Context().Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// NewHTTPClient builds the client used for player calls.
//
// timeout bounds whole requests, uploads included; zero means no limit.
func NewHTTPClient(timeout time.Duration, retryMax int) *http.Client {
	if retryMax < 0 {
		retryMax = defaultRetryMax
	}
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		MaxIdleConnsPerHost:   4,
	}
	return &http.Client{
		Transport: &RetryTransport{Base: base, RetryMax: retryMax},
		Timeout:   timeout,
	}
}
