package receiver

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
)

// MaxLineLength bounds a single record. The longest MT-RX record is 49 characters.
const MaxLineLength = 4096

// ScanRecords is a bufio.SplitFunc splitting on CR, LF or CRLF. The MT-RX
// terminates every record with <CR>; LF is accepted for captured files.
// A CR ends the record at once. An LF arriving after it in a later read
// yields an empty token.
func ScanRecords(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		advance = i + 1
		if data[i] == '\r' && i+1 < len(data) && data[i+1] == '\n' {
			advance++
		}
		return advance, data[:i], nil
	}

	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// LineReader frames a receiver byte stream into trimmed records
type LineReader struct {
	scanner *bufio.Scanner
}

// NewLineReader creates a line reader over r
func NewLineReader(r io.Reader) *LineReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 256), MaxLineLength)
	scanner.Split(ScanRecords)
	return &LineReader{scanner: scanner}
}

// Next returns the next non-blank record with surrounding whitespace removed.
// It returns io.EOF once the stream is exhausted.
func (l *LineReader) Next() (string, error) {
	for l.scanner.Scan() {
		line := strings.TrimSpace(l.scanner.Text())
		if line == "" {
			continue
		}
		return line, nil
	}

	if err := l.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// ReadLines sends every record from r to lineChan until EOF, a read error or
// cancellation. It does not close lineChan.
func ReadLines(ctx context.Context, r io.Reader, lineChan chan<- string) error {
	reader := NewLineReader(r)
	for {
		line, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		select {
		case lineChan <- line:
		case <-ctx.Done():
			return nil
		}
	}
}
