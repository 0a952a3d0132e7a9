package searchset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gobwas/glob"
)

var (
	// ErrCorrupt marks a failure of the data backing an archive. An
	// operation that sees it cannot continue with that resource.
	ErrCorrupt = errors.New("archive data is corrupt")
	// ErrArchiveClosed is returned when a closed archive is asked for a stream
	ErrArchiveClosed = errors.New("archive is closed")
	// ErrDuplicateArchive is returned by Add under RejectDuplicates
	ErrDuplicateArchive = errors.New("archive name already registered")
	// ErrNilArchive is returned when Add is given a nil archive
	ErrNilArchive = errors.New("nil archive")
)

// Archive is a read-only provider of named members. Directories, packed
// data files and SearchSet itself implement it.
//
// A name that is not present is reported as a normal value: false, a nil
// Member, or an error matching fs.ErrNotExist. Only damage to the backing
// data is reported with an error matching ErrCorrupt.
type Archive interface {
	// HasFile reports whether name is present. Patterns are not expanded.
	HasFile(name string) bool

	// ListMembers appends every member to list and returns how many were
	// appended. Existing entries are left alone.
	ListMembers(list *MemberList) int

	// ListMatchingMembers appends the members whose name matches the glob
	// pattern and returns how many were appended.
	ListMatchingMembers(list *MemberList, pattern string) int

	// GetMember returns the member called name, or nil.
	GetMember(name string) Member

	// CreateReadStreamForMember opens the member called name. The stream is
	// owned by the caller.
	CreateReadStreamForMember(name string) (Stream, error)
}

// CorruptError records which member of which archive could not be read
type CorruptError struct {
	Archive string
	Name    string
	Err     error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Archive, e.Name, e.Err)
}

// Unwrap makes errors.Is(err, ErrCorrupt) hold along with the cause
func (e *CorruptError) Unwrap() []error {
	return []error{ErrCorrupt, e.Err}
}

// IsNotFound reports whether err means the member does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// notFound builds the error returned when a member is absent
func notFound(name string) error {
	return &os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
}

// MatchOptions controls MatchMembers
type MatchOptions struct {
	// IgnoreCase folds both the pattern and member names to lower case
	IgnoreCase bool
	// Logger receives a warning for patterns that do not compile
	Logger *log.Logger
}

// compilePattern builds a glob matcher. No separators are passed so '*'
// also matches across '/'.
func compilePattern(pattern string, ignoreCase bool) (glob.Glob, error) {
	if ignoreCase {
		pattern = strings.ToLower(pattern)
	}
	return glob.Compile(pattern)
}

// MatchMembers is the generic ListMatchingMembers: it enumerates arc with
// ListMembers and appends to list the members whose name matches pattern.
// Archives without a faster way to filter names implement
// ListMatchingMembers by calling it.
func MatchMembers(arc Archive, list *MemberList, pattern string, opts MatchOptions) int {
	g, err := compilePattern(pattern, opts.IgnoreCase)
	if err != nil {
		logger := opts.Logger
		if logger == nil {
			logger = log.Default()
		}
		logger.Warn("invalid member pattern", "pattern", pattern, "error", err)
		return 0
	}

	var all MemberList
	arc.ListMembers(&all)

	n := 0
	for _, m := range all {
		name := m.Name()
		if opts.IgnoreCase {
			name = strings.ToLower(name)
		}
		if g.Match(name) {
			*list = append(*list, m)
			n++
		}
	}
	return n
}
