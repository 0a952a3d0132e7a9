package searchset

import (
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/absfs/absfs"
	"github.com/spf13/afero"
)

// DirNode is a directory that an FSDirectory can index and open files in.
type DirNode interface {
	// Path is the root of the directory, used in diagnostics
	Path() string
	// Join builds the path of name inside dir
	Join(dir, name string) string
	// ReadDir lists dir sorted by name
	ReadDir(dir string) ([]os.FileInfo, error)
	// Open opens the file at p for reading
	Open(p string) (Stream, error)
}

// aferoDir is a DirNode on an afero filesystem
type aferoDir struct {
	fs   afero.Fs
	root string
	join func(elem ...string) string
}

// OSDir returns the DirNode for a directory of the host filesystem
func OSDir(root string) DirNode {
	return &aferoDir{fs: afero.NewOsFs(), root: filepath.Clean(root), join: filepath.Join}
}

// AferoDir returns the DirNode for root inside fs
func AferoDir(fs afero.Fs, root string) DirNode {
	return &aferoDir{fs: fs, root: root, join: filepath.Join}
}

func (d *aferoDir) Path() string {
	return d.root
}

func (d *aferoDir) Join(dir, name string) string {
	return d.join(dir, name)
}

func (d *aferoDir) ReadDir(dir string) ([]os.FileInfo, error) {
	return afero.ReadDir(d.fs, dir)
}

func (d *aferoDir) Open(p string) (Stream, error) {
	return d.fs.Open(p)
}

// absDir is a DirNode on an absfs filesystem
type absDir struct {
	fs   absfs.FileSystem
	root string
}

// AbsDir returns the DirNode for root inside an absfs filesystem
func AbsDir(fs absfs.FileSystem, root string) DirNode {
	return &absDir{fs: fs, root: path.Clean("/" + root)}
}

func (d *absDir) Path() string {
	return d.root
}

func (d *absDir) Join(dir, name string) string {
	return path.Join(dir, name)
}

func (d *absDir) ReadDir(dir string) ([]os.FileInfo, error) {
	f, err := d.fs.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	infos, err := f.Readdir(-1)
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name() < infos[j].Name()
	})
	return infos, nil
}

func (d *absDir) Open(p string) (Stream, error) {
	return d.fs.Open(p)
}
