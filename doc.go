/*
Package searchset resolves named resources across a prioritized set of
read-only archives, the way a game engine finds its data files without
knowing which directory or packed file holds them.

# Overview

An Archive is anything that can tell whether it holds a name, list its
members and open a member as a Stream. Directories (FSDirectory) and ZIP
files (ZipArchive) are archives, and so is SearchSet, which combines
other archives under names and priorities.

# Lookup Order

A SearchSet keeps its archives sorted by ascending priority, equal
priorities in the order they were added. HasFile, GetMember and
CreateReadStreamForMember walk that list backwards, so the archive with
the highest priority answers first and, among equal priorities, the one
added last:

	set := searchset.New()
	set.AddDirectory("base", "/usr/share/game", 0, 1, false)
	set.AddDirectory("patch", "./patch", 10, 1, false)

	// served from ./patch if it has the file, /usr/share/game otherwise
	s, err := set.CreateReadStreamForMember("title.bmp")
	if err != nil {
	    return err
	}
	defer s.Close()

Listing is different: ListMembers and ListMatchingMembers visit every
archive, lowest priority first, and keep duplicate names.

# Missing Names and Corruption

A missing name is not a failure. HasFile returns false, GetMember returns
nil and CreateReadStreamForMember returns an error for which IsNotFound is
true. Damaged archive data is reported with a *CorruptError, which matches
ErrCorrupt; the search stops there.

# Ownership

Add takes an Ownership. An Owned archive belongs to the set: Remove, Clear
and a replacing Add close it if it implements io.Closer. A Borrowed archive
is never closed by the set. Members returned by an archive are only good
while the archive is open; after Close they fail with ErrArchiveClosed.

# Patterns

ListMatchingMembers takes shell style patterns: '*', '?', character
classes such as [a-z] and [!0-9], and alternatives such as {bmp,png}. '*'
matches across '/'. Case folding is configured per archive with
WithDirIgnoreCase, WithZipIgnoreCase or WithIgnoreCase on the set.

# Registry

Registry returns a process-wide SearchManager populated with the platform
data directories and the working directory. Its Clear restores that
default population. Call ShutdownRegistry once at exit.

# Filesystem View

FileSystem exposes a set as a read-only absfs.FileSystem. Member names
with slashes become nested directories and directory listings merge all
archives.

# Thread Safety

A set is meant to be used from one goroutine. Its node list is guarded by
a read-write lock, but archives are not required to be safe for concurrent
use and streams never are.
*/
package searchset
