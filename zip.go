package searchset

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/afero/zipfs"
)

// ZipArchive serves the members of a ZIP file. Stored members are read in
// place from the file; compressed members are inflated through zipfs.
//
// The archive keeps the file open until Close. Streams of stored members
// have their own handle and outlive Close; streams of compressed members
// read through the archive's handle and do not.
type ZipArchive struct {
	fs         afero.Fs
	path       string
	ignoreCase bool
	logger     *log.Logger

	file   afero.File
	zfs    afero.Fs
	files  map[string]*zipMember
	order  []*zipMember
	closed atomic.Bool
}

type zipMember struct {
	name string
	zf   *zip.File
}

// ZipOption configures a ZipArchive
type ZipOption func(*ZipArchive)

// WithZipIgnoreCase makes lookups and patterns case insensitive
func WithZipIgnoreCase(ignore bool) ZipOption {
	return func(a *ZipArchive) {
		a.ignoreCase = ignore
	}
}

// WithZipLogger sets the logger
func WithZipLogger(logger *log.Logger) ZipOption {
	return func(a *ZipArchive) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// OpenZipArchive indexes the ZIP file at p on the host filesystem
func OpenZipArchive(p string, opts ...ZipOption) (*ZipArchive, error) {
	return OpenZipArchiveFs(afero.NewOsFs(), p, opts...)
}

// OpenZipArchiveFs indexes the ZIP file at p inside fsys. A file that is
// not a readable ZIP fails with an error matching ErrCorrupt.
func OpenZipArchiveFs(fsys afero.Fs, p string, opts ...ZipOption) (*ZipArchive, error) {
	a := &ZipArchive{
		fs:     fsys,
		path:   p,
		logger: log.NewWithOptions(os.Stderr, log.Options{Prefix: "zip"}),
		files:  make(map[string]*zipMember),
	}
	for _, opt := range opts {
		opt(a)
	}

	f, err := fsys.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", p, err)
	}
	r, err := zip.NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("index %s: %w: %w", p, ErrCorrupt, err)
	}
	a.file = f
	a.zfs = zipfs.New(r)

	for _, zf := range r.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		name := strings.TrimPrefix(strings.ReplaceAll(zf.Name, "\\", "/"), "/")
		k := a.key(name)
		if _, dup := a.files[k]; dup {
			a.logger.Warn("duplicate member, keeping first", "archive", p, "name", name)
			continue
		}
		m := &zipMember{name: name, zf: zf}
		a.files[k] = m
		a.order = append(a.order, m)
	}
	a.logger.Debug("zip indexed", "archive", p, "members", len(a.order))
	return a, nil
}

func (a *ZipArchive) key(name string) string {
	if a.ignoreCase {
		return strings.ToLower(name)
	}
	return name
}

func (a *ZipArchive) lookup(name string) *zipMember {
	if a.closed.Load() {
		return nil
	}
	return a.files[a.key(name)]
}

// Path returns the location of the ZIP file
func (a *ZipArchive) Path() string {
	return a.path
}

// HasFile reports whether the archive stores name
func (a *ZipArchive) HasFile(name string) bool {
	return a.lookup(name) != nil
}

// ListMembers appends every member in central directory order
func (a *ZipArchive) ListMembers(list *MemberList) int {
	if a.closed.Load() {
		return 0
	}
	for _, m := range a.order {
		*list = append(*list, NewGenericMember(m.name, a))
	}
	return len(a.order)
}

// ListMatchingMembers appends the members whose name matches pattern
func (a *ZipArchive) ListMatchingMembers(list *MemberList, pattern string) int {
	return MatchMembers(a, list, pattern, MatchOptions{IgnoreCase: a.ignoreCase, Logger: a.logger})
}

// GetMember returns the member called name
func (a *ZipArchive) GetMember(name string) Member {
	m := a.lookup(name)
	if m == nil {
		return nil
	}
	return NewGenericMember(m.name, a)
}

// CreateReadStreamForMember opens the member called name
func (a *ZipArchive) CreateReadStreamForMember(name string) (Stream, error) {
	if a.closed.Load() {
		return nil, &os.PathError{Op: "open", Path: name, Err: ErrArchiveClosed}
	}
	m := a.lookup(name)
	if m == nil {
		return nil, notFound(name)
	}
	if m.zf.Method == zip.Store {
		return a.openStored(m)
	}

	f, err := a.zfs.Open(m.zf.Name)
	if err != nil {
		return nil, &CorruptError{Archive: a.path, Name: name, Err: err}
	}
	return f, nil
}

// openStored returns a stream over the bytes of a stored member
func (a *ZipArchive) openStored(m *zipMember) (Stream, error) {
	off, err := m.zf.DataOffset()
	if err != nil {
		return nil, &CorruptError{Archive: a.path, Name: m.name, Err: err}
	}

	f, err := a.fs.Open(a.path)
	if err != nil {
		return nil, &CorruptError{Archive: a.path, Name: m.name, Err: fmt.Errorf("reopen: %w", err)}
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &CorruptError{Archive: a.path, Name: m.name, Err: err}
	}
	size := int64(m.zf.CompressedSize64)
	if off+size > info.Size() {
		f.Close()
		return nil, &CorruptError{Archive: a.path, Name: m.name,
			Err: fmt.Errorf("data at %d+%d runs past end of file (%d bytes)", off, size, info.Size())}
	}
	return newPartStream(m.name, []section{{r: f, off: off, size: size}}, []io.Closer{f}), nil
}

// Close empties the archive and releases the file
func (a *ZipArchive) Close() error {
	if a.closed.Swap(true) {
		return nil
	}
	return a.file.Close()
}

var _ Archive = (*ZipArchive)(nil)
