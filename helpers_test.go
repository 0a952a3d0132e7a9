package searchset

import (
	"bytes"
	"io"
	"os"
	"path"
	"testing"

	"github.com/absfs/absfs"
	"github.com/absfs/memfs"
	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

// quietLogger discards log output
func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

// mustNewMemFS creates a new memfs or panics
func mustNewMemFS() absfs.FileSystem {
	mfs, err := memfs.NewFS()
	if err != nil {
		panic(err)
	}
	return mfs
}

// writeFile writes data to a file in an absfs filesystem
func writeFile(fs absfs.FileSystem, name string, data []byte) error {
	if dir := path.Dir(name); dir != "/" {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	f, err := fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(data)
	return err
}

// memDir builds an in-memory directory holding files (relative name -> content)
func memDir(t testing.TB, files map[string]string) DirNode {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/data", 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for name, content := range files {
		p := path.Join("/data", name)
		if err := fs.MkdirAll(path.Dir(p), 0755); err != nil {
			t.Fatalf("mkdir %s: %v", p, err)
		}
		if err := afero.WriteFile(fs, p, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	return AferoDir(fs, "/data")
}

// newDir returns an FSDirectory over memDir(files)
func newDir(t testing.TB, files map[string]string, opts ...DirOption) *FSDirectory {
	t.Helper()
	opts = append([]DirOption{WithDirLogger(quietLogger())}, opts...)
	return NewFSDirectory(memDir(t, files), opts...)
}

// readStream reads a stream to the end and closes it
func readStream(t testing.TB, s Stream, err error) string {
	t.Helper()
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer s.Close()
	data, err := io.ReadAll(s)
	if err != nil {
		t.Fatalf("read stream: %v", err)
	}
	return string(data)
}

// readMember opens a member and reads it
func readMember(t testing.TB, m Member) string {
	t.Helper()
	if m == nil {
		t.Fatal("member is nil")
	}
	s, err := m.CreateReadStream()
	return readStream(t, s, err)
}

// bytesStream adapts a bytes.Reader to Stream
type bytesStream struct {
	*bytes.Reader
}

func (bytesStream) Close() error { return nil }

// mapArchive is an in-memory Archive. Names listed in corrupt fail to open
// with a CorruptError.
type mapArchive struct {
	files   map[string]string
	order   []string
	corrupt map[string]bool
	closed  bool
}

func newMapArchive(names ...string) *mapArchive {
	a := &mapArchive{files: make(map[string]string), corrupt: make(map[string]bool)}
	for _, n := range names {
		a.put(n, n)
	}
	return a
}

func (a *mapArchive) put(name, content string) *mapArchive {
	if _, ok := a.files[name]; !ok {
		a.order = append(a.order, name)
	}
	a.files[name] = content
	return a
}

func (a *mapArchive) HasFile(name string) bool {
	_, ok := a.files[name]
	return ok
}

func (a *mapArchive) ListMembers(list *MemberList) int {
	for _, n := range a.order {
		*list = append(*list, NewGenericMember(n, a))
	}
	return len(a.order)
}

func (a *mapArchive) ListMatchingMembers(list *MemberList, pattern string) int {
	return MatchMembers(a, list, pattern, MatchOptions{Logger: quietLogger()})
}

func (a *mapArchive) GetMember(name string) Member {
	if !a.HasFile(name) {
		return nil
	}
	return NewGenericMember(name, a)
}

func (a *mapArchive) CreateReadStreamForMember(name string) (Stream, error) {
	if a.corrupt[name] {
		return nil, &CorruptError{Archive: "map", Name: name, Err: io.ErrUnexpectedEOF}
	}
	content, ok := a.files[name]
	if !ok {
		return nil, notFound(name)
	}
	return bytesStream{bytes.NewReader([]byte(content))}, nil
}

func (a *mapArchive) Close() error {
	a.closed = true
	return nil
}

// writeOSFile writes content to dir/name on the host filesystem
func writeOSFile(dir, name, content string) error {
	p := path.Join(dir, name)
	if err := os.MkdirAll(path.Dir(p), 0755); err != nil {
		return err
	}
	return os.WriteFile(p, []byte(content), 0644)
}
