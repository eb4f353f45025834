// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package origin

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DNS wire constants (RFC 1035).
const (
	TypeTXT   uint16 = 16
	ClassINET uint16 = 1

	headerLen    = 12
	maxLabelLen  = 63
	maxNameLen   = 255
	flagRD       = 0x0100
	flagResponse = 0x8000
	rcodeMask    = 0x000F
	rcodeNXName  = 3
	pointerMask  = 0xC0
)

var (
	// ErrTruncated is returned when a read would run past the end of the message.
	ErrTruncated = errors.New("dns: message truncated")

	// ErrNoAnswer is returned for a well-formed reply without a TXT record.
	ErrNoAnswer = errors.New("dns: no TXT answer")

	// ErrIDMismatch is returned when the reply ID does not match the query.
	ErrIDMismatch = errors.New("dns: response ID mismatch")

	// ErrInvalidName is returned for names that cannot be encoded.
	ErrInvalidName = errors.New("dns: invalid name")

	// ErrBadLabel is returned for reserved label type bits.
	ErrBadLabel = errors.New("dns: unsupported label type")
)

// ServerError reports a non-zero, non-NXDOMAIN response code.
type ServerError struct {
	RCode uint16
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("dns: server returned rcode %d", e.RCode)
}

// BuildTXTQuery encodes a recursive TXT/IN query for name.
func BuildTXTQuery(id uint16, name string) ([]byte, error) {
	name = strings.TrimSuffix(name, ".")
	if name == "" || len(name) > maxNameLen-2 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	msg := make([]byte, headerLen, headerLen+len(name)+6)
	binary.BigEndian.PutUint16(msg[0:], id)
	binary.BigEndian.PutUint16(msg[2:], flagRD)
	binary.BigEndian.PutUint16(msg[4:], 1) // QDCOUNT

	for _, label := range strings.Split(name, ".") {
		if label == "" || len(label) > maxLabelLen {
			return nil, fmt.Errorf("%w: bad label in %q", ErrInvalidName, name)
		}
		msg = append(msg, byte(len(label)))
		msg = append(msg, label...)
	}
	msg = append(msg, 0)
	msg = binary.BigEndian.AppendUint16(msg, TypeTXT)
	msg = binary.BigEndian.AppendUint16(msg, ClassINET)

	return msg, nil
}

// ParseTXTResponse validates a reply to query id and returns the first
// character-string of the first TXT answer.
func ParseTXTResponse(msg []byte, id uint16) (string, error) {
	c := cursor{buf: msg}

	gotID, err := c.u16()
	if err != nil {
		return "", err
	}
	if gotID != id {
		return "", ErrIDMismatch
	}
	flags, err := c.u16()
	if err != nil {
		return "", err
	}
	if flags&flagResponse == 0 {
		return "", fmt.Errorf("dns: message is not a response")
	}
	qdcount, err := c.u16()
	if err != nil {
		return "", err
	}
	ancount, err := c.u16()
	if err != nil {
		return "", err
	}
	// NSCOUNT, ARCOUNT
	if err := c.skip(4); err != nil {
		return "", err
	}

	switch rcode := flags & rcodeMask; rcode {
	case 0:
	case rcodeNXName:
		return "", ErrNoAnswer
	default:
		return "", &ServerError{RCode: rcode}
	}

	for i := 0; i < int(qdcount); i++ {
		if err := c.skipName(); err != nil {
			return "", err
		}
		// QTYPE, QCLASS
		if err := c.skip(4); err != nil {
			return "", err
		}
	}

	for i := 0; i < int(ancount); i++ {
		if err := c.skipName(); err != nil {
			return "", err
		}
		rtype, err := c.u16()
		if err != nil {
			return "", err
		}
		// CLASS, TTL
		if err := c.skip(6); err != nil {
			return "", err
		}
		rdlen, err := c.u16()
		if err != nil {
			return "", err
		}
		rdata, err := c.bytes(int(rdlen))
		if err != nil {
			return "", err
		}
		if rtype != TypeTXT {
			continue
		}
		return firstCharString(rdata)
	}

	return "", ErrNoAnswer
}

// firstCharString decodes the leading length-prefixed string of TXT RDATA.
func firstCharString(rdata []byte) (string, error) {
	c := cursor{buf: rdata}
	n, err := c.u8()
	if err != nil {
		return "", err
	}
	s, err := c.bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(s), nil
}

// ParseASN extracts the origin ASN from a Cymru TXT payload of the form
// "ASN | IP | prefix | CC | registry". Multi-origin prefixes list several
// ASNs separated by spaces; the first one is used.
func ParseASN(txt string) (int, error) {
	head, _, _ := strings.Cut(txt, "|")
	fields := strings.Fields(head)
	if len(fields) == 0 {
		return 0, fmt.Errorf("asn payload %q: empty origin field", txt)
	}
	asn, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("asn payload %q: %w", txt, err)
	}
	return asn, nil
}

// cursor is a bounds-checked reader over a DNS message.
type cursor struct {
	buf []byte
	off int
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.off
}

func (c *cursor) u8() (byte, error) {
	if c.remaining() < 1 {
		return 0, ErrTruncated
	}
	b := c.buf[c.off]
	c.off++
	return b, nil
}

func (c *cursor) u16() (uint16, error) {
	if c.remaining() < 2 {
		return 0, ErrTruncated
	}
	v := binary.BigEndian.Uint16(c.buf[c.off:])
	c.off += 2
	return v, nil
}

func (c *cursor) bytes(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, ErrTruncated
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, nil
}

func (c *cursor) skip(n int) error {
	_, err := c.bytes(n)
	return err
}

// skipName advances past an encoded name. A compression pointer ends the
// name in place; it is not followed because only the position matters.
func (c *cursor) skipName() error {
	for consumed := 0; ; {
		b, err := c.u8()
		if err != nil {
			return err
		}
		switch {
		case b == 0:
			return nil
		case b&pointerMask == pointerMask:
			return c.skip(1)
		case b&pointerMask != 0:
			return ErrBadLabel
		}
		consumed += int(b) + 1
		if consumed > maxNameLen {
			return ErrInvalidName
		}
		if err := c.skip(int(b)); err != nil {
			return err
		}
	}
}
