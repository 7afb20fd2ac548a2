package parser

import (
	"bufio"
	"errors"
	"io"
)

const (
	initialLineBufSize = 64 * 1024        // 64KB
	maxLineSize        = 20 * 1024 * 1024 // 20MB
)

// lineReader yields the non-blank lines of a JSONL transcript.
// Lines longer than maxLen are dropped instead of failing the
// whole file; a read error other than EOF is kept for err().
type lineReader struct {
	r       *bufio.Reader
	maxLen  int
	buf     []byte
	readErr error
}

func newLineReader(r io.Reader, maxLen int) *lineReader {
	return &lineReader{
		r:      bufio.NewReaderSize(r, initialLineBufSize),
		maxLen: maxLen,
		buf:    make([]byte, 0, initialLineBufSize),
	}
}

// next returns the next kept line, or ("", false) once the
// input is exhausted or a read fails.
func (lr *lineReader) next() (string, bool) {
	for {
		line, err := lr.readLine()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				lr.readErr = err
			}
			return "", false
		}
		if line != "" {
			return line, true
		}
	}
}

// Err reports the first non-EOF read failure.
func (lr *lineReader) Err() error {
	return lr.readErr
}

// readLine returns "" for blank or oversized lines.
func (lr *lineReader) readLine() (string, error) {
	lr.buf = lr.buf[:0]
	oversized := false

	for {
		chunk, isPrefix, err := lr.r.ReadLine()
		if err != nil {
			if len(lr.buf) > 0 && errors.Is(err, io.EOF) {
				break
			}
			return "", err
		}

		if oversized {
			if !isPrefix {
				return "", nil
			}
			continue
		}

		lr.buf = append(lr.buf, chunk...)
		if len(lr.buf) > lr.maxLen {
			oversized = true
			lr.buf = lr.buf[:0]
			if !isPrefix {
				return "", nil
			}
			continue
		}

		if !isPrefix {
			break
		}
	}

	return string(lr.buf), nil
}
