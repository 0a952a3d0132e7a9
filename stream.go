package searchset

import (
	"errors"
	"io"
	"os"
	"sync"
)

// section is a byte range of an archive file
type section struct {
	r    io.ReaderAt
	off  int64
	size int64
}

// partStream reads a member stored as one or more consecutive sections of
// archive files as a single stream.
type partStream struct {
	name    string
	parts   []section
	size    int64
	pos     int64
	closers []io.Closer
	once    sync.Once
	closed  bool
}

func newPartStream(name string, parts []section, closers []io.Closer) *partStream {
	var size int64
	for _, p := range parts {
		size += p.size
	}
	return &partStream{name: name, parts: parts, size: size, closers: closers}
}

// Size returns the length of the member
func (s *partStream) Size() int64 {
	return s.size
}

func (s *partStream) ReadAt(p []byte, off int64) (int, error) {
	if s.closed {
		return 0, os.ErrClosed
	}
	if off < 0 {
		return 0, &os.PathError{Op: "readat", Path: s.name, Err: errors.New("negative offset")}
	}
	if off >= s.size {
		return 0, io.EOF
	}

	n := 0
	base := int64(0)
	for _, part := range s.parts {
		if len(p) == 0 {
			break
		}
		end := base + part.size
		if off >= end {
			base = end
			continue
		}
		rel := off - base
		want := part.size - rel
		if int64(len(p)) < want {
			want = int64(len(p))
		}
		m, err := part.r.ReadAt(p[:want], part.off+rel)
		n += m
		off += int64(m)
		p = p[m:]
		if err != nil && !(errors.Is(err, io.EOF) && int64(m) == want) {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return n, err
		}
		base = end
	}
	if len(p) > 0 {
		return n, io.EOF
	}
	return n, nil
}

func (s *partStream) Read(p []byte) (int, error) {
	if s.closed {
		return 0, os.ErrClosed
	}
	if s.pos >= s.size {
		return 0, io.EOF
	}
	if rem := s.size - s.pos; int64(len(p)) > rem {
		p = p[:rem]
	}
	n, err := s.ReadAt(p, s.pos)
	s.pos += int64(n)
	if errors.Is(err, io.EOF) && n > 0 {
		err = nil
	}
	return n, err
}

func (s *partStream) Seek(offset int64, whence int) (int64, error) {
	if s.closed {
		return 0, os.ErrClosed
	}
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = s.pos + offset
	case io.SeekEnd:
		abs = s.size + offset
	default:
		return 0, &os.PathError{Op: "seek", Path: s.name, Err: os.ErrInvalid}
	}
	if abs < 0 {
		return 0, &os.PathError{Op: "seek", Path: s.name, Err: os.ErrInvalid}
	}
	s.pos = abs
	return abs, nil
}

// Close closes every file the stream opened
func (s *partStream) Close() error {
	var errs []error
	s.once.Do(func() {
		s.closed = true
		for _, c := range s.closers {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
