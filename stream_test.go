package searchset

import (
	"bytes"
	"io"
	"testing"
)

type closeCounter struct {
	n int
}

func (c *closeCounter) Close() error {
	c.n++
	return nil
}

func newTestPartStream(c *closeCounter) *partStream {
	vol1 := bytes.NewReader([]byte("HDRhello "))
	vol2 := bytes.NewReader([]byte("XXworld!YY"))
	return newPartStream("greeting", []section{
		{r: vol1, off: 3, size: 6},
		{r: vol2, off: 2, size: 6},
	}, []io.Closer{c})
}

// TestPartStreamRead tests reading a member split over two volumes
func TestPartStreamRead(t *testing.T) {
	c := &closeCounter{}
	s := newTestPartStream(c)

	if s.Size() != 12 {
		t.Errorf("Size = %d, want 12", s.Size())
	}
	data, err := io.ReadAll(s)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello world!" {
		t.Errorf("read %q", data)
	}

	s.Close()
	s.Close()
	if c.n != 1 {
		t.Errorf("volumes closed %d times, want 1", c.n)
	}
	if _, err := s.Read(make([]byte, 1)); err == nil {
		t.Error("read after close should fail")
	}
}

// TestPartStreamSeekAndReadAt tests random access across the part boundary
func TestPartStreamSeekAndReadAt(t *testing.T) {
	s := newTestPartStream(&closeCounter{})
	defer s.Close()

	buf := make([]byte, 5)
	n, err := s.ReadAt(buf, 4)
	if err != nil || string(buf[:n]) != "o wor" {
		t.Errorf("ReadAt = %q, %v", buf[:n], err)
	}

	n, err = s.ReadAt(buf, 10)
	if err != io.EOF || string(buf[:n]) != "d!" {
		t.Errorf("ReadAt at the tail = %q, %v", buf[:n], err)
	}

	pos, err := s.Seek(-6, io.SeekEnd)
	if err != nil || pos != 6 {
		t.Fatalf("Seek = %d, %v", pos, err)
	}
	rest, _ := io.ReadAll(s)
	if string(rest) != "world!" {
		t.Errorf("read after seek %q", rest)
	}

	if _, err := s.Seek(-1, io.SeekStart); err == nil {
		t.Error("negative seek should fail")
	}
	if size, err := streamSize(s); err != nil || size != 12 {
		t.Errorf("streamSize = %d, %v", size, err)
	}
}
