package common

import (
	"bufio"
	"bytes"
	"io"

	"geminicli2api-go/internal/constants"
)

// SSEScanner iterates over the data payloads of an upstream SSE stream.
// Event names, comments, and blank lines are skipped; payloads are handed
// to the translator undecoded.
type SSEScanner struct {
	scanner *bufio.Scanner
}

// NewSSEScanner creates a scanner with standard buffer settings.
func NewSSEScanner(r io.Reader) *SSEScanner {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, constants.SSELineInitialBuffer)
	scanner.Buffer(buf, constants.SSELineMaxBuffer)
	return &SSEScanner{scanner: scanner}
}

// Next returns the next data payload. done is true at end of stream; the
// returned slice is only valid until the following call.
func (s *SSEScanner) Next() ([]byte, bool, error) {
	for s.scanner.Scan() {
		line := s.scanner.Bytes()
		if !bytes.HasPrefix(line, []byte("data:")) {
			continue
		}
		data := bytes.TrimSpace(line[len("data:"):])
		if len(data) == 0 {
			continue
		}
		return data, false, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, false, err
	}
	return nil, true, nil
}
