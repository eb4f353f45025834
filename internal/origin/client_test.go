// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package origin

import (
	"context"
	"encoding/binary"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// udpServer answers each datagram with reply(query). A nil reply drops the query.
func udpServer(t *testing.T, reply func(query []byte) []byte) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket() error = %v", err)
	}
	t.Cleanup(func() { pc.Close() })

	go func() {
		buf := make([]byte, 512)
		for {
			n, addr, err := pc.ReadFrom(buf)
			if err != nil {
				return
			}
			out := reply(append([]byte(nil), buf[:n]...))
			if out == nil {
				continue
			}
			_, _ = pc.WriteTo(out, addr)
		}
	}()

	return pc.LocalAddr().String()
}

// echoAnswer replies to a query with a TXT answer, keeping ID and question.
func echoAnswer(txt string) func([]byte) []byte {
	return func(query []byte) []byte {
		msg := append([]byte(nil), query...)
		binary.BigEndian.PutUint16(msg[2:], flagResponse|flagRD)
		binary.BigEndian.PutUint16(msg[6:], 1)
		msg = append(msg, 0xC0, headerLen)
		msg = binary.BigEndian.AppendUint16(msg, TypeTXT)
		msg = binary.BigEndian.AppendUint16(msg, ClassINET)
		msg = binary.BigEndian.AppendUint32(msg, 60)
		msg = binary.BigEndian.AppendUint16(msg, uint16(len(txt)+1))
		msg = append(msg, byte(len(txt)))
		return append(msg, txt...)
	}
}

func TestClient_LookupTXT(t *testing.T) {
	t.Parallel()

	addr := udpServer(t, echoAnswer("24940 | 5.9.0.0/16 | DE | ripencc |"))
	c := NewClient(addr, time.Second)

	got, err := c.LookupTXT(context.Background(), "1.0.9.5.origin.asn.cymru.com")
	if err != nil {
		t.Fatalf("LookupTXT() error = %v", err)
	}
	if got != "24940 | 5.9.0.0/16 | DE | ripencc |" {
		t.Errorf("LookupTXT() = %q", got)
	}
	if c.Server() != addr {
		t.Errorf("Server() = %q, want %q", c.Server(), addr)
	}
}

func TestClient_RejectsMismatchedID(t *testing.T) {
	t.Parallel()

	answer := echoAnswer("13335")
	addr := udpServer(t, func(q []byte) []byte {
		msg := answer(q)
		msg[0] ^= 0xFF
		return msg
	})
	c := NewClient(addr, time.Second)

	if _, err := c.LookupTXT(context.Background(), "1.1.1.1.origin.asn.cymru.com"); !errors.Is(err, ErrIDMismatch) {
		t.Errorf("error = %v, want ErrIDMismatch", err)
	}
}

func TestClient_Timeout(t *testing.T) {
	t.Parallel()

	addr := udpServer(t, func([]byte) []byte { return nil })
	c := NewClient(addr, 100*time.Millisecond)

	start := time.Now()
	_, err := c.LookupTXT(context.Background(), "1.1.1.1.origin.asn.cymru.com")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	var ne net.Error
	if !errors.As(err, &ne) || !ne.Timeout() {
		t.Errorf("error = %v, want a timeout", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("lookup took %v", elapsed)
	}
}

func TestClient_QueryIDError(t *testing.T) {
	t.Parallel()

	c := NewClient("127.0.0.1:1", time.Second)
	c.newID = func() (uint16, error) { return 0, errors.New("entropy exhausted") }

	if _, err := c.LookupTXT(context.Background(), "x.example"); err == nil {
		t.Error("expected error")
	}
}

func TestNewClient_DefaultTimeout(t *testing.T) {
	t.Parallel()

	if c := NewClient("127.0.0.1:53", 0); c.timeout != 3*time.Second {
		t.Errorf("timeout = %v, want 3s", c.timeout)
	}
}

func TestSystemResolver(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
		return p
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "first ipv4 nameserver",
			path: write("a.conf", "# comment\nsearch lan\nnameserver fe80::1\nnameserver 10.0.0.2\nnameserver 10.0.0.3\n"),
			want: "10.0.0.2:53",
		},
		{
			name: "only ipv6",
			path: write("b.conf", "nameserver ::1\n"),
			want: DefaultResolver,
		},
		{
			name: "missing file",
			path: filepath.Join(dir, "missing.conf"),
			want: DefaultResolver,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SystemResolver(tt.path); got != tt.want {
				t.Errorf("SystemResolver() = %q, want %q", got, tt.want)
			}
		})
	}
}
