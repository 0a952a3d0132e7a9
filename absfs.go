package searchset

import (
	"errors"
	"os"
	"path"
	"strings"
	"time"

	"github.com/absfs/absfs"
)

// ErrReadOnly is returned by every mutating call on the filesystem view
var ErrReadOnly = errors.New("search set is read-only")

// absFSAdapter exposes a SearchSet as a read-only absfs.Filer
type absFSAdapter struct {
	s *SearchSet
}

var _ absfs.Filer = (*absFSAdapter)(nil)

// FileSystem returns a read-only absfs.FileSystem view of the set.
//
// Member "gfx/title.bmp" is the file /gfx/title.bmp and /gfx is a
// directory. Reading a directory merges every archive; when two archives
// have the same name the entry comes from the one that wins lookups.
//
//	fs := set.FileSystem()
//	f, err := fs.Open("/gfx/title.bmp")
func (s *SearchSet) FileSystem() absfs.FileSystem {
	return absfs.ExtendFiler(&absFSAdapter{s: s})
}

// cleanPath normalizes a view path to an absolute slash path
func cleanPath(p string) string {
	return path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
}

// memberName converts a view path to a member name
func memberName(p string) string {
	return strings.TrimPrefix(cleanPath(p), "/")
}

func readOnly(op, name string) error {
	return &os.PathError{Op: op, Path: name, Err: ErrReadOnly}
}

// isDir reports whether name is the root or a prefix of some member name
func (a *absFSAdapter) isDir(name string) bool {
	if name == "" {
		return true
	}
	prefix := name + "/"
	var list MemberList
	a.s.ListMembers(&list)
	for _, m := range list {
		if strings.HasPrefix(m.Name(), prefix) {
			return true
		}
	}
	return false
}

// OpenFile implements absfs.Filer. Only read-only opens succeed.
func (a *absFSAdapter) OpenFile(name string, flag int, perm os.FileMode) (absfs.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_APPEND|os.O_CREATE|os.O_TRUNC) != 0 {
		return nil, readOnly("open", name)
	}
	p := cleanPath(name)
	member := memberName(name)

	stream, err := a.s.CreateReadStreamForMember(member)
	if err == nil {
		return newMemberFile(p, stream), nil
	}
	if !IsNotFound(err) {
		return nil, err
	}
	if a.isDir(member) {
		return newViewDir(a, p), nil
	}
	return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
}

// Stat implements absfs.Filer
func (a *absFSAdapter) Stat(name string) (os.FileInfo, error) {
	member := memberName(name)
	if m := a.s.GetMember(member); m != nil {
		return newMemberInfo(m), nil
	}
	if a.isDir(member) {
		return dirInfo{name: path.Base(cleanPath(name))}, nil
	}
	return nil, &os.PathError{Op: "stat", Path: name, Err: os.ErrNotExist}
}

// Mkdir implements absfs.Filer
func (a *absFSAdapter) Mkdir(name string, perm os.FileMode) error {
	return readOnly("mkdir", name)
}

// Remove implements absfs.Filer
func (a *absFSAdapter) Remove(name string) error {
	return readOnly("remove", name)
}

// Rename implements absfs.Filer
func (a *absFSAdapter) Rename(oldpath, newpath string) error {
	return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: ErrReadOnly}
}

// Chmod implements absfs.Filer
func (a *absFSAdapter) Chmod(name string, mode os.FileMode) error {
	return readOnly("chmod", name)
}

// Chtimes implements absfs.Filer
func (a *absFSAdapter) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return readOnly("chtimes", name)
}

// Chown implements absfs.Filer
func (a *absFSAdapter) Chown(name string, uid, gid int) error {
	return readOnly("chown", name)
}

// Separator returns the path separator (always forward slash for virtual paths)
func (a *absFSAdapter) Separator() uint8 {
	return '/'
}

// ListSeparator returns the path list separator
func (a *absFSAdapter) ListSeparator() uint8 {
	return ':'
}

// Truncate always fails
func (a *absFSAdapter) Truncate(name string, size int64) error {
	return readOnly("truncate", name)
}
