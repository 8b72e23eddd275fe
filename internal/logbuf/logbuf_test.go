package logbuf

import (
	"fmt"
	"log"
	"testing"
)

func TestBufferLines(t *testing.T) {
	b := New(10)
	fmt.Fprintf(b, "first\n")
	fmt.Fprintf(b, "second\n")

	lines := b.Lines(0)
	if len(lines) != 2 {
		t.Fatalf("Lines returned %d lines, want 2", len(lines))
	}
	if lines[0] != "first" || lines[1] != "second" {
		t.Errorf("Lines = %v, want [first second]", lines)
	}
}

func TestBufferWrap(t *testing.T) {
	b := New(3)
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(b, "line %d\n", i)
	}

	lines := b.Lines(0)
	if len(lines) != 3 {
		t.Fatalf("Lines returned %d lines, want 3", len(lines))
	}
	want := []string{"line 3", "line 4", "line 5"}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("lines[%d] = %q, want %q", i, lines[i], w)
		}
	}
}

func TestBufferLimit(t *testing.T) {
	b := New(10)
	for i := 1; i <= 6; i++ {
		fmt.Fprintf(b, "line %d\n", i)
	}

	lines := b.Lines(2)
	if len(lines) != 2 {
		t.Fatalf("Lines(2) returned %d lines, want 2", len(lines))
	}
	if lines[0] != "line 5" || lines[1] != "line 6" {
		t.Errorf("Lines(2) = %v, want the two most recent", lines)
	}
}

func TestBufferPartialWrites(t *testing.T) {
	b := New(10)
	b.Write([]byte("split "))
	b.Write([]byte("across writes\n"))

	lines := b.Lines(0)
	if len(lines) != 1 {
		t.Fatalf("Lines returned %d lines, want 1", len(lines))
	}
	if lines[0] != "split across writes" {
		t.Errorf("joined line = %q", lines[0])
	}
}

func TestBufferBehindLogger(t *testing.T) {
	b := New(10)
	l := log.New(b, "", 0)
	l.Printf("Queue: enqueued %s", "fetch_artist")

	lines := b.Lines(0)
	if len(lines) != 1 {
		t.Fatalf("Lines returned %d lines, want 1", len(lines))
	}
	if lines[0] != "Queue: enqueued fetch_artist" {
		t.Errorf("line = %q", lines[0])
	}
}
