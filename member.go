package searchset

import "io"

// Stream is a read-only byte stream over one member. The caller owns it
// and must Close it.
type Stream interface {
	io.Reader
	io.ReaderAt
	io.Seeker
	io.Closer
}

// Member is a named resource inside an Archive.
type Member interface {
	// Name is the lookup key of the member within its archive.
	Name() string
	// DisplayName is a human friendly name. Members without one return Name.
	DisplayName() string
	// CreateReadStream opens the member for reading from offset 0.
	CreateReadStream() (Stream, error)
}

// MemberList is the append-only result of the listing methods of Archive.
type MemberList []Member

// Names returns the member names in list order.
func (l MemberList) Names() []string {
	names := make([]string, len(l))
	for i, m := range l {
		names[i] = m.Name()
	}
	return names
}

// GenericMember is a Member that asks its parent archive for the stream.
//
// The parent is not kept alive in any useful sense: once the parent is
// closed (for example because a SearchSet that owned it removed it),
// CreateReadStream fails with ErrArchiveClosed. Callers must not hold
// generic members past the lifetime of the archive that produced them.
type GenericMember struct {
	name   string
	parent Archive
}

// NewGenericMember returns a member named name that is served by parent.
func NewGenericMember(name string, parent Archive) *GenericMember {
	return &GenericMember{name: name, parent: parent}
}

// Name returns the member name
func (m *GenericMember) Name() string {
	return m.name
}

// DisplayName returns the member name
func (m *GenericMember) DisplayName() string {
	return m.name
}

// CreateReadStream delegates to the parent archive
func (m *GenericMember) CreateReadStream() (Stream, error) {
	return m.parent.CreateReadStreamForMember(m.name)
}
