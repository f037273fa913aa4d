// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package logstream

import (
	"bytes"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

// =====================================================
// Decoder
// =====================================================

func TestDecoder_Frames(t *testing.T) {
	input := strings.Join([]string{
		": connected",
		"",
		"id: 1",
		"event: log",
		`data: {"a":1}`,
		"",
		"id: 2",
		"data: line one",
		"data: line two",
		"",
		"event: status",
		"data:no-space",
		"",
		"retry: 5000",
		"",
		"id: 3",
		"event: log",
		"data: trailing frame without blank line",
	}, "\n")

	dec := NewDecoder(strings.NewReader(input))
	want := []Event{
		{ID: "1", Type: "log", Data: `{"a":1}`},
		{ID: "2", Type: "message", Data: "line one\nline two"},
		{ID: "2", Type: "status", Data: "no-space"},
	}
	for i, w := range want {
		got, err := dec.Next()
		if err != nil {
			t.Fatalf("frame %d: Next() error = %v", i, err)
		}
		if got.ID != w.ID || got.Type != w.Type || got.Data != w.Data {
			t.Errorf("frame %d = %+v, want %+v", i, got, w)
		}
	}
	if _, err := dec.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("final Next() error = %v, want io.EOF", err)
	}
	if dec.LastID() != "3" {
		t.Errorf("LastID() = %q, want 3", dec.LastID())
	}
}

func TestDecoder_OversizedLine(t *testing.T) {
	input := "data: " + strings.Repeat("x", maxFrameLine+10) + "\n\n"
	_, err := NewDecoder(strings.NewReader(input)).Next()
	if err == nil || errors.Is(err, io.EOF) {
		t.Errorf("Next() error = %v, want scanner error", err)
	}
}

// =====================================================
// Writer
// =====================================================

func TestWriteEvent_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := Event{ID: "7", Type: "log", Data: "first\nsecond"}
	if err := WriteEvent(&buf, in); err != nil {
		t.Fatal(err)
	}
	if err := WriteComment(&buf, "heartbeat"); err != nil {
		t.Fatal(err)
	}
	want := "id: 7\nevent: log\ndata: first\ndata: second\n\n: heartbeat\n\n"
	if buf.String() != want {
		t.Errorf("written = %q, want %q", buf.String(), want)
	}

	got, err := NewDecoder(&buf).Next()
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != in.ID || got.Type != in.Type || got.Data != in.Data {
		t.Errorf("decoded = %+v, want %+v", got, in)
	}
}

func TestWriteEvent_NoFieldInjection(t *testing.T) {
	var buf bytes.Buffer
	_ = WriteEvent(&buf, Event{ID: "1\ndata: forged", Type: "log", Data: "x"})
	if strings.Contains(buf.String(), "\ndata: forged") {
		t.Errorf("newline in id leaked into stream: %q", buf.String())
	}
}

func TestPrepareStream_Headers(t *testing.T) {
	w := httptest.NewRecorder()
	if _, err := PrepareStream(w); err != nil {
		t.Fatal(err)
	}
	for header, want := range map[string]string{
		"Content-Type":      "text/event-stream",
		"Cache-Control":     "no-cache",
		"X-Accel-Buffering": "no",
	} {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}
