package kfmt

import (
	"bytes"
	"errors"
	"testing"
)

func TestPrefixWriterInjectsPrefixAtEachLineStart(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"empty input produces no output", "", ""},
		{"a bare newline still gets a prefix", "\n", "prefix: \n"},
		{"no newline at all", "no line break anywhere", "prefix: no line break anywhere"},
		{"trailing newline gets no dangling prefix after it", "line feed at the end\n", "prefix: line feed at the end\n"},
		{
			"one prefix per line, including a blank leading line",
			"\nthe big brown\nfog jumped\nover the lazy\ndog",
			"prefix: \nprefix: the big brown\nprefix: fog jumped\nprefix: over the lazy\nprefix: dog",
		},
	}

	var buf bytes.Buffer
	w := PrefixWriter{Sink: &buf, Prefix: []byte("prefix: ")}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			buf.Reset()
			w.col = 0

			n, err := w.Write([]byte(c.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n != len(c.input) {
				t.Fatalf("expected to report %d bytes written, got %d", len(c.input), n)
			}
			if got := buf.String(); got != c.want {
				t.Fatalf("expected:\n%q\ngot:\n%q", c.want, got)
			}
		})
	}
}

func TestPrefixWriterPropagatesSinkError(t *testing.T) {
	failWith := errors.New("write failed")
	w := PrefixWriter{Sink: alwaysFails{failWith}, Prefix: []byte("prefix: ")}

	for _, input := range []string{"no line break anywhere", "first\nsecond\n"} {
		w.col = 0
		if _, err := w.Write([]byte(input)); err != failWith {
			t.Fatalf("input %q: expected %v, got %v", input, failWith, err)
		}
	}
}

type alwaysFails struct{ err error }

func (f alwaysFails) Write(_ []byte) (int, error) { return 0, f.err }
