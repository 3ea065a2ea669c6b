package crawler

import "errors"

var (
	// ErrInvalidSeed is returned by Crawl when the seed URL cannot be parsed
	// or has no host.
	ErrInvalidSeed = errors.New("invalid seed URL")

	// ErrInvalidWorkers is returned by Crawl when the worker pool cannot be
	// built because fewer than one worker was requested.
	ErrInvalidWorkers = errors.New("max workers must be at least 1")

	// ErrUnexpectedStatus is returned by HTTPFetcher for non-200 responses.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrEmptyBody is returned by HTTPFetcher when the response has no content.
	ErrEmptyBody = errors.New("empty response body")

	// ErrInvalidProxyAddress is returned when the proxy address is not in
	// host:port format.
	ErrInvalidProxyAddress = errors.New("invalid proxy address: must be host:port")

	// ErrProxyUnreachable is returned by CheckProxy when no connection to
	// the proxy could be made.
	ErrProxyUnreachable = errors.New("proxy unreachable")

	// ErrNotSOCKS5 is returned by CheckProxy when the proxy does not answer
	// the SOCKS5 greeting with an unauthenticated session.
	ErrNotSOCKS5 = errors.New("proxy does not speak unauthenticated SOCKS5")
)
