package searchset

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// FSDirectory is an Archive over a directory tree. The tree is indexed
// the first time it is queried; Refresh drops the index.
//
// In hierarchical mode a file two levels down is named "sub/file.txt".
// In flat mode it is named "file.txt", and when two files share a
// basename the first one indexed wins.
type FSDirectory struct {
	node       DirNode
	depth      int
	flat       bool
	ignoreCase bool
	prefix     string
	logger     *log.Logger

	mu      sync.Mutex
	indexed bool
	entries map[string]*dirEntry // keyed by lookup key
	order   []*dirEntry          // indexing order
	closed  atomic.Bool
}

type dirEntry struct {
	name string // member name
	rel  string // path relative to the root, for display
	path string // path handed to DirNode.Open
}

// DirOption configures an FSDirectory
type DirOption func(*FSDirectory)

// WithDepth sets how many directory levels are indexed. 1 indexes only
// the files directly inside the root.
func WithDepth(depth int) DirOption {
	return func(d *FSDirectory) {
		if depth < 1 {
			depth = 1
		}
		d.depth = depth
	}
}

// WithFlat names members by their basename
func WithFlat(flat bool) DirOption {
	return func(d *FSDirectory) {
		d.flat = flat
	}
}

// WithDirIgnoreCase makes lookups and patterns case insensitive
func WithDirIgnoreCase(ignore bool) DirOption {
	return func(d *FSDirectory) {
		d.ignoreCase = ignore
	}
}

// WithPrefix prepends prefix to every member name
func WithPrefix(prefix string) DirOption {
	return func(d *FSDirectory) {
		d.prefix = prefix
	}
}

// WithDirLogger sets the logger
func WithDirLogger(logger *log.Logger) DirOption {
	return func(d *FSDirectory) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewFSDirectory returns an archive over node
func NewFSDirectory(node DirNode, opts ...DirOption) *FSDirectory {
	d := &FSDirectory{
		node:   node,
		depth:  1,
		logger: log.NewWithOptions(os.Stderr, log.Options{Prefix: "fsdir"}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Path returns the root of the directory
func (d *FSDirectory) Path() string {
	return d.node.Path()
}

func (d *FSDirectory) key(name string) string {
	if d.ignoreCase {
		return strings.ToLower(name)
	}
	return name
}

// ensureIndex builds the index once. Caller holds d.mu.
func (d *FSDirectory) ensureIndex() {
	if d.indexed {
		return
	}
	d.entries = make(map[string]*dirEntry)
	d.order = nil
	d.index(d.node.Path(), "", d.depth)
	d.indexed = true
}

func (d *FSDirectory) index(dir, rel string, depth int) {
	infos, err := d.node.ReadDir(dir)
	if err != nil {
		d.logger.Warn("cannot read directory", "path", dir, "error", err)
		return
	}

	for _, fi := range infos {
		if fi.Name() == "." || fi.Name() == ".." {
			continue
		}
		full := d.node.Join(dir, fi.Name())
		if fi.IsDir() {
			if depth > 1 {
				d.index(full, rel+fi.Name()+"/", depth-1)
			}
			continue
		}

		name := d.prefix + rel + fi.Name()
		if d.flat {
			name = d.prefix + fi.Name()
		}
		k := d.key(name)
		if prev, dup := d.entries[k]; dup {
			d.logger.Warn("name clash while indexing, keeping first", "name", name,
				"kept", prev.rel, "ignored", rel+fi.Name())
			continue
		}
		e := &dirEntry{name: name, rel: rel + fi.Name(), path: full}
		d.entries[k] = e
		d.order = append(d.order, e)
	}
}

func (d *FSDirectory) lookup(name string) *dirEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ensureIndex()
	return d.entries[d.key(name)]
}

// Refresh discards the index so the next query reads the directory again
func (d *FSDirectory) Refresh() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.indexed = false
	d.entries = nil
	d.order = nil
}

// HasFile reports whether name was indexed
func (d *FSDirectory) HasFile(name string) bool {
	if d.closed.Load() {
		return false
	}
	return d.lookup(name) != nil
}

// ListMembers appends every indexed file
func (d *FSDirectory) ListMembers(list *MemberList) int {
	if d.closed.Load() {
		return 0
	}

	d.mu.Lock()
	d.ensureIndex()
	order := d.order
	d.mu.Unlock()

	for _, e := range order {
		*list = append(*list, d.member(e))
	}
	return len(order)
}

// ListMatchingMembers appends the indexed files whose name matches pattern
func (d *FSDirectory) ListMatchingMembers(list *MemberList, pattern string) int {
	return MatchMembers(d, list, pattern, MatchOptions{IgnoreCase: d.ignoreCase, Logger: d.logger})
}

// GetMember returns the member called name
func (d *FSDirectory) GetMember(name string) Member {
	if d.closed.Load() {
		return nil
	}
	e := d.lookup(name)
	if e == nil {
		return nil
	}
	return d.member(e)
}

func (d *FSDirectory) member(e *dirEntry) Member {
	return &dirMember{GenericMember: NewGenericMember(e.name, d), display: e.rel}
}

// CreateReadStreamForMember opens the file indexed as name
func (d *FSDirectory) CreateReadStreamForMember(name string) (Stream, error) {
	if d.closed.Load() {
		return nil, &os.PathError{Op: "open", Path: name, Err: ErrArchiveClosed}
	}
	e := d.lookup(name)
	if e == nil {
		return nil, notFound(name)
	}

	f, err := d.node.Open(e.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(name)
		}
		return nil, &CorruptError{Archive: d.node.Path(), Name: name, Err: err}
	}
	return f, nil
}

// Close releases the index. Members handed out earlier stop working.
func (d *FSDirectory) Close() error {
	d.closed.Store(true)
	d.Refresh()
	return nil
}

// dirMember reports the on-disk relative path as its display name
type dirMember struct {
	*GenericMember
	display string
}

func (m *dirMember) DisplayName() string {
	return m.display
}

var _ Archive = (*FSDirectory)(nil)
