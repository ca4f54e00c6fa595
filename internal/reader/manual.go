package reader

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
)

// ManualReader reads card uids typed one per line, used when no reader
// hardware is attached and for exercising the full pipeline by hand.
type ManualReader struct {
	name  string
	lines chan string

	closeOnce sync.Once
	closed    chan struct{}
}

func NewManualReader(name string, in io.Reader) *ManualReader {
	m := &ManualReader{
		name:   name,
		lines:  make(chan string),
		closed: make(chan struct{}),
	}
	go m.scan(in)
	return m
}

func (m *ManualReader) Name() string { return m.name }

func (m *ManualReader) scan(in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		select {
		case m.lines <- line:
		case <-m.closed:
			return
		}
	}
	m.closeOnce.Do(func() { close(m.closed) })
}

func (m *ManualReader) ReadOne(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-m.closed:
		return "", ErrClosed
	case uid := <-m.lines:
		return uid, nil
	}
}

func (m *ManualReader) Close() error {
	m.closeOnce.Do(func() { close(m.closed) })
	return nil
}
