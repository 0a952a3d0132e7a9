package searchset

import (
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
)

// viewDir is a directory of the filesystem view. Its entries merge every
// archive of the set.
type viewDir struct {
	a       *absFSAdapter
	path    string
	entries []os.FileInfo
	offset  int
	closed  bool
}

func newViewDir(a *absFSAdapter, p string) *viewDir {
	return &viewDir{a: a, path: p}
}

// Close closes the directory
func (d *viewDir) Close() error {
	d.closed = true
	return nil
}

// Read is not supported for directories
func (d *viewDir) Read(p []byte) (n int, err error) {
	return 0, os.ErrInvalid
}

// ReadAt is not supported for directories
func (d *viewDir) ReadAt(p []byte, off int64) (n int, err error) {
	return 0, os.ErrInvalid
}

// Seek seeks to an offset in the directory listing
func (d *viewDir) Seek(offset int64, whence int) (int64, error) {
	if d.closed {
		return 0, os.ErrClosed
	}

	switch whence {
	case io.SeekStart:
		d.offset = int(offset)
	case io.SeekCurrent:
		d.offset += int(offset)
	case io.SeekEnd:
		if d.entries == nil {
			d.loadEntries()
		}
		d.offset = len(d.entries) + int(offset)
	}

	if d.offset < 0 {
		d.offset = 0
	}

	return int64(d.offset), nil
}

// Write is not supported for directories
func (d *viewDir) Write(p []byte) (n int, err error) {
	return 0, readOnly("write", d.path)
}

// WriteAt is not supported for directories
func (d *viewDir) WriteAt(p []byte, off int64) (n int, err error) {
	return 0, readOnly("write", d.path)
}

// Name returns the path of the directory
func (d *viewDir) Name() string {
	return d.path
}

// Readdir reads directory entries
func (d *viewDir) Readdir(count int) ([]os.FileInfo, error) {
	if d.closed {
		return nil, os.ErrClosed
	}

	if d.entries == nil {
		d.loadEntries()
	}

	if d.offset >= len(d.entries) {
		if count > 0 {
			return nil, io.EOF
		}
		return nil, nil
	}

	end := len(d.entries)
	if count > 0 && d.offset+count < end {
		end = d.offset + count
	}

	result := d.entries[d.offset:end]
	d.offset = end
	return result, nil
}

// Readdirnames reads directory entry names
func (d *viewDir) Readdirnames(count int) ([]string, error) {
	infos, err := d.Readdir(count)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name()
	}
	return names, nil
}

// ReadDir reads directory entries as fs.DirEntry values
func (d *viewDir) ReadDir(count int) ([]fs.DirEntry, error) {
	infos, err := d.Readdir(count)
	if err != nil {
		return nil, err
	}

	entries := make([]fs.DirEntry, len(infos))
	for i, info := range infos {
		entries[i] = fs.FileInfoToDirEntry(info)
	}
	return entries, nil
}

// Stat returns the FileInfo for the directory
func (d *viewDir) Stat() (os.FileInfo, error) {
	if d.closed {
		return nil, os.ErrClosed
	}
	return dirInfo{name: path.Base(d.path)}, nil
}

// Sync is a no-op for directories
func (d *viewDir) Sync() error {
	return nil
}

// Truncate is not supported for directories
func (d *viewDir) Truncate(size int64) error {
	return readOnly("truncate", d.path)
}

// WriteString is not supported for directories
func (d *viewDir) WriteString(s string) (ret int, err error) {
	return 0, readOnly("write", d.path)
}

// loadEntries merges the children of the directory across archives.
// Archives are visited highest priority first, so a name seen once hides
// the same name in lower archives.
func (d *viewDir) loadEntries() {
	prefix := memberName(d.path)
	if prefix != "" {
		prefix += "/"
	}

	seen := make(map[string]bool)
	var entries []os.FileInfo

	for _, n := range d.a.s.lookupOrder() {
		var members MemberList
		n.arc.ListMembers(&members)

		for _, m := range members {
			name := m.Name()
			if !strings.HasPrefix(name, prefix) {
				continue
			}
			rest := name[len(prefix):]
			if rest == "" {
				continue
			}

			child := rest
			isDir := false
			if i := strings.IndexByte(rest, '/'); i >= 0 {
				child = rest[:i]
				isDir = true
			}

			if seen[child] {
				continue
			}
			seen[child] = true

			if isDir {
				entries = append(entries, dirInfo{name: child})
			} else {
				entries = append(entries, newMemberInfo(m))
			}
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
	})

	d.entries = entries
}
