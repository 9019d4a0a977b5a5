package source

import (
	"fmt"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// File replays a captured uplink log. A .gz suffix routes the file through a
// gzip reader, so compressed captures can be replayed directly.
type File struct {
	*Reader
	f  *os.File
	gz *gzip.Reader
}

func OpenFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture file: %w", err)
	}

	if !strings.HasSuffix(path, ".gz") {
		return &File{Reader: NewReader(f), f: f}, nil
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open gzip capture file: %w", err)
	}
	return &File{Reader: NewReader(gz), f: f, gz: gz}, nil
}

func (f *File) Close() error {
	if f.gz != nil {
		f.gz.Close()
	}
	return f.f.Close()
}
