// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package logstream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxFrameLine bounds a single SSE line.
const maxFrameLine = 256 * 1024

// ErrStreamingUnsupported is returned when the ResponseWriter cannot flush.
var ErrStreamingUnsupported = errors.New("streaming unsupported by response writer")

// Event is one server-sent event frame.
type Event struct {
	ID    string
	Type  string
	Data  string
	Retry string
}

// Decoder reads SSE frames from a stream.
type Decoder struct {
	scanner *bufio.Scanner
	lastID  string
}

// NewDecoder returns a decoder reading r.
func NewDecoder(r io.Reader) *Decoder {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 4096), maxFrameLine)
	return &Decoder{scanner: s}
}

// Next returns the next frame that carries data. Comment lines are skipped;
// a blank line dispatches the frame. The id persists across frames that
// omit it. io.EOF is returned when the stream ends.
func (d *Decoder) Next() (Event, error) {
	var ev Event
	var data strings.Builder
	hasData := false

	for d.scanner.Scan() {
		line := d.scanner.Text()
		if line == "" {
			if !hasData {
				ev = Event{}
				continue
			}
			ev.ID = d.lastID
			ev.Data = data.String()
			if ev.Type == "" {
				ev.Type = "message"
			}
			return ev, nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "id":
			if !strings.ContainsRune(value, 0) {
				d.lastID = value
			}
		case "event":
			ev.Type = value
		case "data":
			if hasData {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			hasData = true
		case "retry":
			ev.Retry = value
		}
	}
	if err := d.scanner.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, io.EOF
}

// LastID returns the most recent id seen on the stream.
func (d *Decoder) LastID() string {
	return d.lastID
}

// PrepareStream sets the event-stream headers and returns the flusher.
func PrepareStream(w http.ResponseWriter) (http.Flusher, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return flusher, nil
}

// WriteEvent writes one frame. Multi-line data is split across data lines.
func WriteEvent(w io.Writer, ev Event) error {
	var sb strings.Builder
	if ev.ID != "" {
		fmt.Fprintf(&sb, "id: %s\n", sanitizeField(ev.ID))
	}
	if ev.Type != "" {
		fmt.Fprintf(&sb, "event: %s\n", sanitizeField(ev.Type))
	}
	if ev.Retry != "" {
		fmt.Fprintf(&sb, "retry: %s\n", sanitizeField(ev.Retry))
	}
	for _, line := range strings.Split(strings.ReplaceAll(ev.Data, "\r\n", "\n"), "\n") {
		fmt.Fprintf(&sb, "data: %s\n", line)
	}
	sb.WriteByte('\n')
	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteComment writes a comment line, used as a heartbeat.
func WriteComment(w io.Writer, text string) error {
	_, err := fmt.Fprintf(w, ": %s\n\n", sanitizeField(text))
	return err
}

func sanitizeField(s string) string {
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
}
