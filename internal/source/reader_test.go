package source

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestReaderLines(t *testing.T) {
	r := NewReader(strings.NewReader("one\ntwo\r\nthree"))
	ctx := context.Background()

	for _, want := range []string{"one", "two", "three"} {
		line, err := r.Next(ctx)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if string(line) != want {
			t.Errorf("line = %q, want %q", line, want)
		}
	}

	if _, err := r.Next(ctx); !errors.Is(err, io.EOF) {
		t.Errorf("err = %v, want io.EOF", err)
	}
}

func TestReaderEmptyInput(t *testing.T) {
	r := NewReader(strings.NewReader(""))
	if _, err := r.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Errorf("err = %v, want io.EOF", err)
	}
}

func TestReaderPreservesBlankLines(t *testing.T) {
	// Blank lines are passed through; the pipeline reports them as
	// malformed like any other undecodable line.
	r := NewReader(strings.NewReader("\nx\n"))
	ctx := context.Background()

	line, err := r.Next(ctx)
	if err != nil || len(line) != 0 {
		t.Errorf("first line = %q, %v; want empty, nil", line, err)
	}
	line, err = r.Next(ctx)
	if err != nil || string(line) != "x" {
		t.Errorf("second line = %q, %v; want \"x\", nil", line, err)
	}
}
