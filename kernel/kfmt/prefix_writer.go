package kfmt

import (
	"bytes"
	"io"
)

// PrefixWriter decorates every line written through it with a fixed prefix
// before forwarding it to Sink. It is used by kernel/hal's driver probe
// loop to tag each driver's init-time log output with that driver's name
// and version.
type PrefixWriter struct {
	Sink   io.Writer
	Prefix []byte

	// col counts bytes written since the last prefix; 0 means a prefix is
	// due before the next byte goes out.
	col int
}

// Write implements io.Writer. The injected prefix bytes are not counted
// toward the returned byte count, matching io.Writer's contract that n is
// the number of bytes of p consumed.
func (w *PrefixWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	written := 0
	for len(p) > 0 {
		if w.col == 0 {
			if _, err := w.Sink.Write(w.Prefix); err != nil {
				return written, err
			}
		}

		chunk := p
		lastLine := true
		if nl := bytes.IndexByte(p, '\n'); nl >= 0 {
			chunk = p[:nl+1]
			lastLine = false
		}

		n, err := w.Sink.Write(chunk)
		written += n
		w.col += n
		if err != nil {
			return written, err
		}
		if !lastLine {
			w.col = 0
		}

		p = p[len(chunk):]
	}

	return written, nil
}
