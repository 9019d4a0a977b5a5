// Package source provides line sources for the ingest pipeline.
//
// A source yields one raw uplink line per call and reports io.EOF when the
// input is exhausted. Network-backed sources (MQTT, Kafka) never report EOF;
// they block on Next until a message arrives or the context is cancelled.
package source

import (
	"bufio"
	"bytes"
	"context"
	"io"
)

// Reader yields lines from an io.Reader, stdin in production. The blocking
// read is the pipeline's only suspension point; it cannot be interrupted by
// ctx, which matches the recorder's run-until-the-stream-closes contract.
type Reader struct {
	r *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the next line with the trailing newline stripped. A final
// unterminated line is still returned; io.EOF follows on the next call.
func (r *Reader) Next(ctx context.Context) ([]byte, error) {
	line, err := r.r.ReadBytes('\n')
	if err != nil {
		if err == io.EOF && len(line) > 0 {
			return chomp(line), nil
		}
		return nil, err
	}
	return chomp(line), nil
}

func chomp(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r"))
}
