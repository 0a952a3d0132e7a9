package searchset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Ownership says whether a SearchSet releases an archive it drops
type Ownership int

const (
	// Owned archives are closed (if they implement io.Closer) when the set
	// removes, replaces or clears them. Nobody else may close them.
	Owned Ownership = iota
	// Borrowed archives belong to someone else and are never closed by the set
	Borrowed
)

func (o Ownership) String() string {
	switch o {
	case Owned:
		return "owned"
	case Borrowed:
		return "borrowed"
	default:
		return fmt.Sprintf("Ownership(%d)", int(o))
	}
}

// DuplicatePolicy decides what Add does with a name that is already registered
type DuplicatePolicy int

const (
	// ReplaceDuplicates drops the existing node, logs a warning and adds the new one
	ReplaceDuplicates DuplicatePolicy = iota
	// RejectDuplicates fails Add with ErrDuplicateArchive
	RejectDuplicates
)

// node binds an archive to its name, priority and ownership
type node struct {
	priority int
	name     string
	arc      Archive
	own      Ownership
	seq      uint64 // insertion sequence, logged
}

// SearchSet is an Archive made of other archives. Nodes are stored in
// ascending priority order, equal priorities in insertion order. Single
// name lookups walk the nodes backwards so the highest priority wins and,
// among equal priorities, the most recently added archive wins. Listing
// walks every node forwards and does not remove duplicate names.
//
// A SearchSet is meant to be driven from one goroutine; the lock only
// keeps the node list consistent if that rule is broken.
type SearchSet struct {
	nodes      []*node
	seq        uint64
	mu         sync.RWMutex
	cache      *lookupCache
	logger     *log.Logger
	ignoreCase bool
	duplicates DuplicatePolicy
}

// Option is a functional option for configuring a SearchSet
type Option func(*SearchSet)

// WithLogger sets the logger used for warnings and debug output
func WithLogger(logger *log.Logger) Option {
	return func(s *SearchSet) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIgnoreCase makes directories added through AddDirectory match names
// without regard to case
func WithIgnoreCase(ignore bool) Option {
	return func(s *SearchSet) {
		s.ignoreCase = ignore
	}
}

// WithDuplicatePolicy sets how Add treats a name that is already present
func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(s *SearchSet) {
		s.duplicates = p
	}
}

// WithLookupCache caches name resolution for ttl. Misses are cached for half as long.
func WithLookupCache(enabled bool, ttl time.Duration) Option {
	return func(s *SearchSet) {
		s.cache = newLookupCache(enabled, ttl, ttl/2, 1000)
	}
}

// WithCacheConfig enables the lookup cache with explicit limits
func WithCacheConfig(enabled bool, hitTTL, missTTL time.Duration, maxEntries int) Option {
	return func(s *SearchSet) {
		s.cache = newLookupCache(enabled, hitTTL, missTTL, maxEntries)
	}
}

// New creates an empty SearchSet
func New(opts ...Option) *SearchSet {
	s := &SearchSet{
		cache:  newLookupCache(false, 0, 0, 0),
		logger: log.NewWithOptions(os.Stderr, log.Options{Prefix: "searchset"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// find returns the index of the node called name, or -1
func (s *SearchSet) find(name string) int {
	for i, n := range s.nodes {
		if n.name == name {
			return i
		}
	}
	return -1
}

// insert places n after every node whose priority is not greater than its own
func (s *SearchSet) insert(n *node) {
	i := sort.Search(len(s.nodes), func(i int) bool {
		return s.nodes[i].priority > n.priority
	})
	s.nodes = slices.Insert(s.nodes, i, n)
}

// release closes an owned archive
func (s *SearchSet) release(n *node) {
	if n.own != Owned {
		return
	}
	c, ok := n.arc.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		s.logger.Warn("closing archive", "name", n.name, "error", err)
	}
}

// Add registers arc under name with the given priority and ownership.
func (s *SearchSet) Add(name string, arc Archive, priority int, own Ownership) error {
	if arc == nil {
		return fmt.Errorf("add %q: %w", name, ErrNilArchive)
	}

	s.mu.Lock()
	var dropped *node
	if i := s.find(name); i >= 0 {
		if s.duplicates == RejectDuplicates {
			s.mu.Unlock()
			return fmt.Errorf("add %q: %w", name, ErrDuplicateArchive)
		}
		dropped = s.nodes[i]
		s.nodes = slices.Delete(s.nodes, i, i+1)
		s.logger.Warn("archive already registered, replacing", "name", name,
			"old_priority", dropped.priority, "priority", priority)
	}
	s.seq++
	seq := s.seq
	s.insert(&node{priority: priority, name: name, arc: arc, own: own, seq: seq})
	s.cache.clear()
	s.mu.Unlock()

	s.logger.Debug("archive added", "name", name, "priority", priority, "ownership", own, "seq", seq)

	// re-adding the same archive under its own name must not close it
	if dropped != nil && dropped.arc != arc {
		s.release(dropped)
	}
	return nil
}

// AddDirectory registers an owned FSDirectory for the OS directory at path.
func (s *SearchSet) AddDirectory(name, path string, priority, depth int, flat bool) error {
	return s.AddDirectoryNode(name, OSDir(path), priority, depth, flat)
}

// AddDirectoryNode registers an owned FSDirectory rooted at dir. depth is
// how many directory levels are indexed and flat selects basename keys
// instead of slash separated relative paths.
func (s *SearchSet) AddDirectoryNode(name string, dir DirNode, priority, depth int, flat bool) error {
	d := NewFSDirectory(dir,
		WithDepth(depth),
		WithFlat(flat),
		WithDirIgnoreCase(s.ignoreCase),
		WithDirLogger(s.logger),
	)
	return s.Add(name, d, priority, Owned)
}

// Remove drops the archive called name, closing it if owned. Unknown names are ignored.
func (s *SearchSet) Remove(name string) {
	s.mu.Lock()
	i := s.find(name)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	n := s.nodes[i]
	s.nodes = slices.Delete(s.nodes, i, i+1)
	s.cache.clear()
	s.mu.Unlock()

	s.logger.Debug("archive removed", "name", name, "seq", n.seq)
	s.release(n)
}

// HasArchive reports whether an archive is registered under name
func (s *SearchSet) HasArchive(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.find(name) >= 0
}

// Archive returns the archive registered under name
func (s *SearchSet) Archive(name string) (Archive, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.find(name); i >= 0 {
		return s.nodes[i].arc, true
	}
	return nil, false
}

// Priority returns the priority of the archive registered under name
func (s *SearchSet) Priority(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.find(name); i >= 0 {
		return s.nodes[i].priority, true
	}
	return 0, false
}

// Names returns the archive names in lookup order, highest priority first
func (s *SearchSet) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.nodes))
	for i := len(s.nodes) - 1; i >= 0; i-- {
		names = append(names, s.nodes[i].name)
	}
	return names
}

// lookupOrder returns a snapshot of the nodes, highest priority first
func (s *SearchSet) lookupOrder() []*node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nodes := slices.Clone(s.nodes)
	slices.Reverse(nodes)
	return nodes
}

// Len returns the number of registered archives
func (s *SearchSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// Clear drops every archive, closing the owned ones
func (s *SearchSet) Clear() {
	s.mu.Lock()
	nodes := s.nodes
	s.nodes = nil
	s.cache.clear()
	s.mu.Unlock()

	for i := len(nodes) - 1; i >= 0; i-- {
		s.release(nodes[i])
	}
}

// Close clears the set, so a SearchSet owned by another set releases its archives
func (s *SearchSet) Close() error {
	s.Clear()
	return nil
}

// SetPriority moves the archive called name to priority. The archive
// becomes the most recent among archives of that priority. Setting the
// current priority again changes nothing.
func (s *SearchSet) SetPriority(name string, priority int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(name)
	if i < 0 || s.nodes[i].priority == priority {
		return
	}
	n := s.nodes[i]
	s.nodes = slices.Delete(s.nodes, i, i+1)
	s.seq++
	n.priority = priority
	n.seq = s.seq
	s.insert(n)
	s.cache.clear()
	s.logger.Debug("archive priority changed", "name", name, "priority", priority, "seq", n.seq)
}

// resolve returns the node that serves name. Caller holds s.mu.
func (s *SearchSet) resolve(name string) *node {
	if n, found, ok := s.cache.get(name); ok {
		if !found || n.arc.HasFile(name) {
			return n
		}
		s.cache.invalidate(name)
	}
	for i := len(s.nodes) - 1; i >= 0; i-- {
		if s.nodes[i].arc.HasFile(name) {
			s.cache.putHit(name, s.nodes[i])
			return s.nodes[i]
		}
	}
	s.cache.putMiss(name)
	return nil
}

// Resolve returns the name of the archive that serves the member name
func (s *SearchSet) Resolve(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n := s.resolve(name); n != nil {
		return n.name, true
	}
	return "", false
}

// HasFile reports whether any archive has name
func (s *SearchSet) HasFile(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolve(name) != nil
}

// GetMember returns the member from the highest priority archive that has name
func (s *SearchSet) GetMember(name string) Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n := s.resolve(name); n != nil {
		return n.arc.GetMember(name)
	}
	return nil
}

// skippable reports whether a stream error lets the search go on to the
// next archive. A closed archive answers like one without the name.
func skippable(err error) bool {
	return IsNotFound(err) || errors.Is(err, ErrArchiveClosed)
}

// CreateReadStreamForMember opens name from the highest priority archive
// that can open it. Archives reporting the name as missing, and closed
// archives, are skipped; a corrupt archive ends the search with its error.
func (s *SearchSet) CreateReadStreamForMember(name string) (Stream, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n, found, ok := s.cache.get(name); ok {
		if !found {
			return nil, notFound(name)
		}
		stream, err := n.arc.CreateReadStreamForMember(name)
		if err == nil {
			return stream, nil
		}
		if !skippable(err) {
			return nil, fmt.Errorf("archive %q: %w", n.name, err)
		}
		s.cache.invalidate(name)
	}

	for i := len(s.nodes) - 1; i >= 0; i-- {
		n := s.nodes[i]
		stream, err := n.arc.CreateReadStreamForMember(name)
		if err == nil {
			s.cache.putHit(name, n)
			return stream, nil
		}
		if !skippable(err) {
			return nil, fmt.Errorf("archive %q: %w", n.name, err)
		}
	}
	s.cache.putMiss(name)
	return nil, notFound(name)
}

// ListMembers appends the members of every archive, lowest priority first
func (s *SearchSet) ListMembers(list *MemberList) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.nodes {
		count += n.arc.ListMembers(list)
	}
	return count
}

// ListMatchingMembers appends the matching members of every archive, lowest priority first
func (s *SearchSet) ListMatchingMembers(list *MemberList, pattern string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.nodes {
		count += n.arc.ListMatchingMembers(list, pattern)
	}
	return count
}

// InvalidateCache forgets the cached resolution of name
func (s *SearchSet) InvalidateCache(name string) {
	s.cache.invalidate(name)
}

// ClearCache forgets every cached resolution
func (s *SearchSet) ClearCache() {
	s.cache.clear()
}

// CacheStats returns lookup cache statistics
func (s *SearchSet) CacheStats() CacheStats {
	return s.cache.stats()
}

var _ Archive = (*SearchSet)(nil)
