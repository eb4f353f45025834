// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package origin

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"net"
	"net/netip"
	"os"
	"strings"
	"time"
)

const (
	// DefaultResolver is used when resolv.conf has no IPv4 nameserver.
	DefaultResolver = "127.0.0.53:53"

	// DefaultResolvConf is the standard resolver configuration path.
	DefaultResolvConf = "/etc/resolv.conf"

	// maxResponseSize is the receive buffer for a single UDP reply.
	maxResponseSize = 1024
)

// TXTResolver resolves the first TXT string for a name.
type TXTResolver interface {
	LookupTXT(ctx context.Context, name string) (string, error)
}

// Client sends hand-built TXT queries to one DNS server over UDP.
// Each call is a single attempt: no retries, no TCP fallback.
type Client struct {
	server  string
	timeout time.Duration
	dialer  net.Dialer
	newID   func() (uint16, error)
}

// NewClient creates a client for server ("host:port"). A non-positive
// timeout defaults to 3s.
func NewClient(server string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Client{
		server:  server,
		timeout: timeout,
		newID:   randomID,
	}
}

// Server returns the resolver address.
func (c *Client) Server() string {
	return c.server
}

// LookupTXT sends one query and waits at most the client timeout for the reply.
func (c *Client) LookupTXT(ctx context.Context, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	id, err := c.newID()
	if err != nil {
		return "", fmt.Errorf("generate query id: %w", err)
	}
	query, err := BuildTXTQuery(id, name)
	if err != nil {
		return "", err
	}

	conn, err := c.dialer.DialContext(ctx, "udp", c.server)
	if err != nil {
		return "", fmt.Errorf("dial %s: %w", c.server, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return "", fmt.Errorf("set deadline: %w", err)
		}
	}

	if _, err := conn.Write(query); err != nil {
		return "", fmt.Errorf("send query: %w", err)
	}

	buf := make([]byte, maxResponseSize)
	n, err := conn.Read(buf)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	return ParseTXTResponse(buf[:n], id)
}

func randomID() (uint16, error) {
	var b [2]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

// SystemResolver returns "ip:53" for the first IPv4 nameserver in the
// resolv.conf at path, or DefaultResolver if none is usable.
func SystemResolver(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return DefaultResolver
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || fields[0] != "nameserver" {
			continue
		}
		addr, err := netip.ParseAddr(fields[1])
		if err != nil || !addr.Is4() {
			continue
		}
		return net.JoinHostPort(addr.String(), "53")
	}
	return DefaultResolver
}
