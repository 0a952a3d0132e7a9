package searchset

import (
	"io"
	"io/fs"
	"os"
	"path"
	"sync"
	"time"
)

// memberInfo is the os.FileInfo of a member. The size is found by opening
// the member the first time it is asked for.
type memberInfo struct {
	m    Member
	once sync.Once
	size int64
}

func newMemberInfo(m Member) *memberInfo {
	return &memberInfo{m: m}
}

func (i *memberInfo) Name() string { return path.Base(i.m.Name()) }

func (i *memberInfo) Size() int64 {
	i.once.Do(func() {
		s, err := i.m.CreateReadStream()
		if err != nil {
			return
		}
		defer s.Close()
		i.size, _ = streamSize(s)
	})
	return i.size
}

func (i *memberInfo) Mode() os.FileMode  { return 0444 }
func (i *memberInfo) ModTime() time.Time { return time.Time{} }
func (i *memberInfo) IsDir() bool        { return false }
func (i *memberInfo) Sys() any           { return i.m }

// dirInfo is the os.FileInfo of a synthesized directory
type dirInfo struct {
	name string
}

func (i dirInfo) Name() string       { return i.name }
func (i dirInfo) Size() int64        { return 0 }
func (i dirInfo) Mode() os.FileMode  { return fs.ModeDir | 0555 }
func (i dirInfo) ModTime() time.Time { return time.Time{} }
func (i dirInfo) IsDir() bool        { return true }
func (i dirInfo) Sys() any           { return nil }

// streamSize measures a stream and restores its position
func streamSize(s io.Seeker) (int64, error) {
	cur, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	end, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	_, err = s.Seek(cur, io.SeekStart)
	return end, err
}

// memberFile is an open member in the filesystem view
type memberFile struct {
	path   string
	stream Stream
}

func newMemberFile(p string, s Stream) *memberFile {
	return &memberFile{path: p, stream: s}
}

func (f *memberFile) Name() string { return f.path }

func (f *memberFile) Read(p []byte) (int, error) { return f.stream.Read(p) }

func (f *memberFile) ReadAt(p []byte, off int64) (int, error) { return f.stream.ReadAt(p, off) }

func (f *memberFile) Seek(offset int64, whence int) (int64, error) {
	return f.stream.Seek(offset, whence)
}

func (f *memberFile) Close() error { return f.stream.Close() }

func (f *memberFile) Write(p []byte) (int, error) { return 0, readOnly("write", f.path) }

func (f *memberFile) WriteAt(p []byte, off int64) (int, error) {
	return 0, readOnly("write", f.path)
}

func (f *memberFile) WriteString(s string) (int, error) { return 0, readOnly("write", f.path) }

func (f *memberFile) Truncate(size int64) error { return readOnly("truncate", f.path) }

func (f *memberFile) Sync() error { return nil }

func (f *memberFile) Readdir(int) ([]os.FileInfo, error) {
	return nil, &os.PathError{Op: "readdir", Path: f.path, Err: os.ErrInvalid}
}

func (f *memberFile) Readdirnames(int) ([]string, error) {
	return nil, &os.PathError{Op: "readdir", Path: f.path, Err: os.ErrInvalid}
}

func (f *memberFile) ReadDir(int) ([]fs.DirEntry, error) {
	return nil, &os.PathError{Op: "readdir", Path: f.path, Err: os.ErrInvalid}
}

func (f *memberFile) Stat() (os.FileInfo, error) {
	size, err := streamSize(f.stream)
	if err != nil {
		return nil, err
	}
	return &sizedInfo{name: path.Base(f.path), size: size}, nil
}

// sizedInfo is the os.FileInfo of an open member
type sizedInfo struct {
	name string
	size int64
}

func (i *sizedInfo) Name() string       { return i.name }
func (i *sizedInfo) Size() int64        { return i.size }
func (i *sizedInfo) Mode() os.FileMode  { return 0444 }
func (i *sizedInfo) ModTime() time.Time { return time.Time{} }
func (i *sizedInfo) IsDir() bool        { return false }
func (i *sizedInfo) Sys() any           { return nil }
