// Package transport opens the TCP stream a PJLink session runs over.
package transport

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Options bounds connection setup and, optionally, each read.
type Options struct {
	ConnectTimeout time.Duration
	// ReadTimeout of zero leaves reads blocking indefinitely.
	ReadTimeout time.Duration
}

// Conn is a TCP connection that is closed when its dial context ends.
type Conn struct {
	net.Conn
	readTimeout time.Duration
	stop        func() bool
}

// Address joins host and port unless host already carries a port.
func Address(host string, port int) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// Dial connects to address. Cancelling ctx later closes the connection,
// which unblocks a pending Read.
func Dial(ctx context.Context, address string, opts Options) (*Conn, error) {
	dialer := net.Dialer{Timeout: opts.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", address, err)
	}

	return &Conn{
		Conn:        conn,
		readTimeout: opts.ReadTimeout,
		stop:        context.AfterFunc(ctx, func() { _ = conn.Close() }),
	}, nil
}

func (c *Conn) Read(p []byte) (int, error) {
	if c.readTimeout > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return 0, fmt.Errorf("set read deadline: %w", err)
		}
	}
	return c.Conn.Read(p)
}

func (c *Conn) Close() error {
	c.stop()
	return c.Conn.Close()
}
