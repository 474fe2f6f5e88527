package gen

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// File permission constants.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// ErrClosed is returned when a unit writer is used after Close.
var ErrClosed = errors.New("unit writer already closed")

// Sink receives rendered units.
type Sink interface {
	// Open starts the output of one unit. The returned writer is
	// append-only and must be closed exactly once.
	Open(path string) (io.WriteCloser, error)
}

// Emit renders a unit and writes it to the sink. The writer is opened once
// and closed on every path; a writer closed without data commits nothing.
func Emit(sink Sink, unit *Unit) (err error) {
	w, err := sink.Open(unit.Path())
	if err != nil {
		return fmt.Errorf("opening %s: %w", unit.Path(), err)
	}

	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", unit.Path(), cerr)
		}
	}()

	src, err := Render(unit)
	if err != nil {
		return err
	}

	if _, err := w.Write(src); err != nil {
		return fmt.Errorf("writing %s: %w", unit.Path(), err)
	}

	return nil
}

// unitBuffer accumulates one unit and commits it on Close.
type unitBuffer struct {
	buf     bytes.Buffer
	written bool
	closed  bool
	commit  func(data []byte) error
}

func (u *unitBuffer) Write(p []byte) (int, error) {
	if u.closed {
		return 0, ErrClosed
	}

	u.written = true

	return u.buf.Write(p)
}

func (u *unitBuffer) Close() error {
	if u.closed {
		return ErrClosed
	}

	u.closed = true

	if !u.written {
		return nil
	}

	return u.commit(u.buf.Bytes())
}

// FileSink writes units to disk. A unit is written to a temporary file and
// renamed into place; an existing file with identical content is left
// untouched.
type FileSink struct {
	mu        sync.Mutex
	written   []string
	unchanged []string
}

// NewFileSink creates a new FileSink.
func NewFileSink() *FileSink {
	return &FileSink{}
}

// Open implements Sink.
func (s *FileSink) Open(path string) (io.WriteCloser, error) {
	return &unitBuffer{commit: func(data []byte) error {
		return s.commit(path, data)
	}}, nil
}

func (s *FileSink) commit(path string, data []byte) error {
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, data) {
		s.record(&s.unchanged, path)
		return nil
	}

	if err := writeAtomic(path, data); err != nil {
		return err
	}

	s.record(&s.written, path)

	return nil
}

func (s *FileSink) record(list *[]string, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	*list = append(*list, path)
}

// Written returns the paths whose content changed, sorted.
func (s *FileSink) Written() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := slices.Clone(s.written)
	slices.Sort(out)

	return out
}

// Unchanged returns the paths that already had the rendered content, sorted.
func (s *FileSink) Unchanged() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := slices.Clone(s.unchanged)
	slices.Sort(out)

	return out
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	name := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)

		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Chmod(name, filePerm); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("setting permissions: %w", err)
	}

	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("renaming into place: %w", err)
	}

	return nil
}

// MemorySink keeps units in memory.
type MemorySink struct {
	mu     sync.Mutex
	files  map[string][]byte
	opened map[string]int
	closed map[string]int
}

// NewMemorySink creates a new MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{
		files:  make(map[string][]byte),
		opened: make(map[string]int),
		closed: make(map[string]int),
	}
}

// Open implements Sink.
func (s *MemorySink) Open(path string) (io.WriteCloser, error) {
	s.mu.Lock()
	s.opened[path]++
	s.mu.Unlock()

	buf := &unitBuffer{commit: func(data []byte) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.files[path] = bytes.Clone(data)

		return nil
	}}

	return &countingCloser{unitBuffer: buf, onClose: func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.closed[path]++
	}}, nil
}

// File returns the committed content of a unit.
func (s *MemorySink) File(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.files[path]

	return data, ok
}

// Paths returns the committed unit paths, sorted.
func (s *MemorySink) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.files))
	for p := range s.files {
		out = append(out, p)
	}

	slices.Sort(out)

	return out
}

// Closes returns how many times the writer of a path was opened and closed.
func (s *MemorySink) Closes(path string) (opened, closed int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.opened[path], s.closed[path]
}

type countingCloser struct {
	*unitBuffer
	onClose func()
}

func (c *countingCloser) Close() error {
	c.onClose()
	return c.unitBuffer.Close()
}

// CopyTo writes every committed unit to dst, in path order.
func (s *MemorySink) CopyTo(dst Sink) error {
	for _, path := range s.Paths() {
		data, _ := s.File(path)

		if err := writeUnit(dst, path, data); err != nil {
			return err
		}
	}

	return nil
}

func writeUnit(dst Sink, path string, data []byte) (err error) {
	w, err := dst.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}

	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}
