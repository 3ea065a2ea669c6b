package crawler

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"
)

// SOCKS5 greeting bytes.
const (
	socks5Version      = 0x05
	socks5AuthNone     = 0x00
	socks5AuthNoAccept = 0xFF
)

// defaultProxyCheckTimeout bounds CheckProxy when ctx has no deadline.
const defaultProxyCheckTimeout = 10 * time.Second

// CheckProxy verifies that address hosts a SOCKS5 proxy that accepts
// clients without authentication. It performs the version negotiation only
// and opens no connection through the proxy.
func CheckProxy(ctx context.Context, address string) error {
	if !isValidProxyAddress(address) {
		return fmt.Errorf("%w: %q", ErrInvalidProxyAddress, address)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultProxyCheckTimeout)
		defer cancel()
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProxyUnreachable, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return fmt.Errorf("%w: %w", ErrProxyUnreachable, err)
		}
	}

	// Offer exactly one method: no authentication.
	if _, err := conn.Write([]byte{socks5Version, 0x01, socks5AuthNone}); err != nil {
		return fmt.Errorf("%w: %w", ErrProxyUnreachable, err)
	}

	resp := make([]byte, 2)
	if _, err := io.ReadFull(conn, resp); err != nil {
		return fmt.Errorf("%w: %w", ErrNotSOCKS5, err)
	}
	if resp[0] != socks5Version {
		return fmt.Errorf("%w: version %#x", ErrNotSOCKS5, resp[0])
	}
	switch resp[1] {
	case socks5AuthNone:
		return nil
	case socks5AuthNoAccept:
		return fmt.Errorf("%w: no acceptable auth method", ErrNotSOCKS5)
	default:
		return fmt.Errorf("%w: auth method %#x", ErrNotSOCKS5, resp[1])
	}
}
