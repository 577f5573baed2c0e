// Package sse decodes the "data:" framed event stream produced by the AI
// service into raw frame payloads.
//
// A frame is a segment of the stream terminated by a blank line ("\n\n")
// that begins with the marker "data:". Segments without the marker (comments,
// keep-alives) are dropped. The decoder knows nothing about payload
// contents; see package json for interpretation.
package sse

import (
	"errors"
	"io"
	"iter"
	"strings"
)

const (
	// Marker prefixes every frame that carries a payload.
	Marker = "data:"
	// Delimiter terminates a frame.
	Delimiter = "\n\n"

	defaultReadSize = 4096
)

// Decoder reassembles frames from chunks split at arbitrary byte
// boundaries. The zero value is ready to use. A Decoder is not safe for
// concurrent use.
type Decoder struct {
	buf string
	// scanned is how much of buf is known not to contain a delimiter start,
	// so a large frame arriving in many small chunks is scanned once.
	scanned int
}

// NewDecoder returns an empty Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends chunk to the buffer and returns the payloads of all frames
// it completed, in order. The unterminated remainder is retained for the
// next call.
func (d *Decoder) Feed(chunk string) []string {
	d.buf += chunk

	var frames []string
	for {
		// Back off one byte: the previous chunk may have ended with the
		// first newline of the delimiter.
		from := max(d.scanned-1, 0)
		idx := strings.Index(d.buf[from:], Delimiter)
		if idx < 0 {
			d.scanned = len(d.buf)
			return frames
		}
		end := from + idx
		segment := d.buf[:end]
		d.buf = d.buf[end+len(Delimiter):]
		d.scanned = 0

		if payload, ok := parseSegment(segment); ok {
			frames = append(frames, payload)
		}
	}
}

// Pending returns the buffered bytes that do not yet form a complete frame.
func (d *Decoder) Pending() string {
	return d.buf
}

// Reset discards any buffered partial frame.
func (d *Decoder) Reset() {
	d.buf = ""
	d.scanned = 0
}

// parseSegment extracts the payload from one delimited segment. Leading line
// breaks left over from extra blank lines are ignored.
func parseSegment(segment string) (string, bool) {
	segment = strings.TrimLeft(segment, "\r\n")
	rest, ok := strings.CutPrefix(segment, Marker)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// Frame encodes payload as one frame on the wire.
func Frame(payload string) string {
	return Marker + " " + payload + Delimiter
}

// Frames returns a lazy sequence of frame payloads read from r. A read error
// other than io.EOF is yielded once as the final element. A partial frame
// left at EOF is dropped; callers that care can decode with a Decoder
// directly and inspect Pending.
func Frames(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		d := NewDecoder()
		buf := make([]byte, defaultReadSize)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				for _, f := range d.Feed(string(buf[:n])) {
					if !yield(f, nil) {
						return
					}
				}
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", err)
				return
			}
		}
	}
}
