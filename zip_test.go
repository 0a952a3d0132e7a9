package searchset

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"

	"github.com/spf13/afero"
)

// buildZip returns a ZIP holding files given as name, content pairs
func buildZip(t testing.TB, method uint16, files ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for i := 0; i+1 < len(files); i += 2 {
		f, err := w.CreateHeader(&zip.FileHeader{Name: files[i], Method: method})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write([]byte(files[i+1])); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func writeZip(t testing.TB, fs afero.Fs, p string, method uint16, files ...string) {
	t.Helper()
	if err := afero.WriteFile(fs, p, buildZip(t, method, files...), 0644); err != nil {
		t.Fatal(err)
	}
}

func openZip(t testing.TB, fs afero.Fs, p string, opts ...ZipOption) *ZipArchive {
	t.Helper()
	arc, err := OpenZipArchiveFs(fs, p, append([]ZipOption{WithZipLogger(quietLogger())}, opts...)...)
	if err != nil {
		t.Fatalf("open %s: %v", p, err)
	}
	t.Cleanup(func() { arc.Close() })
	return arc
}

// TestZipArchiveRead tests stored and compressed members
func TestZipArchiveRead(t *testing.T) {
	for _, tt := range []struct {
		name   string
		method uint16
	}{
		{"stored", zip.Store},
		{"deflated", zip.Deflate},
	} {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeZip(t, fs, "/pak/game.zip", tt.method,
				"intro.txt", "hello zip",
				"gfx/", "",
				"gfx/title.bmp", "title")
			arc := openZip(t, fs, "/pak/game.zip")

			if !arc.HasFile("intro.txt") || !arc.HasFile("gfx/title.bmp") || arc.HasFile("gfx/") {
				t.Error("HasFile mismatch")
			}
			var list MemberList
			if n := arc.ListMembers(&list); n != 2 {
				t.Errorf("members = %v", list.Names())
			}
			if got := readMember(t, arc.GetMember("intro.txt")); got != "hello zip" {
				t.Errorf("read %q", got)
			}
			if got := readMember(t, arc.GetMember("gfx/title.bmp")); got != "title" {
				t.Errorf("read %q", got)
			}
			if _, err := arc.CreateReadStreamForMember("missing.txt"); !IsNotFound(err) {
				t.Errorf("expected not found, got %v", err)
			}

			list = nil
			if n := arc.ListMatchingMembers(&list, "*.bmp"); n != 1 {
				t.Errorf("pattern matched %v", list.Names())
			}
		})
	}
}

// TestZipArchiveStoredSeek tests random access into a stored member
func TestZipArchiveStoredSeek(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeZip(t, fs, "/pak/game.zip", zip.Store, "a.txt", "0123456789")
	arc := openZip(t, fs, "/pak/game.zip")

	s, err := arc.CreateReadStreamForMember("a.txt")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	buf := make([]byte, 3)
	if n, err := s.ReadAt(buf, 4); err != nil || string(buf[:n]) != "456" {
		t.Errorf("ReadAt = %q, %v", buf[:n], err)
	}
	if size, err := streamSize(s); err != nil || size != 10 {
		t.Errorf("streamSize = %d, %v", size, err)
	}
}

// TestZipArchiveInSearchSet tests a packed archive overriding a directory
func TestZipArchiveInSearchSet(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeZip(t, fs, "/pak/patch.zip", zip.Deflate, "intro.txt", "patched")
	arc, err := OpenZipArchiveFs(fs, "/pak/patch.zip", WithZipLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}

	set := newSet()
	set.AddDirectoryNode("base", memDir(t, map[string]string{"intro.txt": "loose file"}), 0, 1, false)
	set.Add("patch", arc, 10, Owned)

	s, err := set.CreateReadStreamForMember("intro.txt")
	if got := readStream(t, s, err); got != "patched" {
		t.Errorf("read %q, want patched", got)
	}

	set.Remove("patch")
	if !arc.closed.Load() {
		t.Error("owned zip should be closed by Remove")
	}
	s, err = set.CreateReadStreamForMember("intro.txt")
	if got := readStream(t, s, err); got != "loose file" {
		t.Errorf("read %q, want loose file", got)
	}
}

// TestZipArchiveTruncated tests that data missing from the file is corruption
func TestZipArchiveTruncated(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeZip(t, fs, "/pak/game.zip", zip.Store, "intro.txt", "hello zip")
	arc := openZip(t, fs, "/pak/game.zip")

	full := buildZip(t, zip.Store, "intro.txt", "hello zip")
	cut := bytes.Index(full, []byte("hello zip")) + 2
	if err := afero.WriteFile(fs, "/pak/game.zip", full[:cut], 0644); err != nil {
		t.Fatal(err)
	}

	_, err := arc.CreateReadStreamForMember("intro.txt")
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

// TestZipArchiveNotZip tests that a file without a central directory is refused
func TestZipArchiveNotZip(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/pak/junk.zip", []byte("not a zip file"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := OpenZipArchiveFs(fs, "/pak/junk.zip", WithZipLogger(quietLogger()))
	if !errors.Is(err, ErrCorrupt) || !errors.Is(err, zip.ErrFormat) {
		t.Errorf("expected ErrCorrupt and zip.ErrFormat, got %v", err)
	}
}

// TestZipArchiveClose tests members after Close
func TestZipArchiveClose(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeZip(t, fs, "/pak/game.zip", zip.Store, "Intro.TXT", "hello")
	arc := openZip(t, fs, "/pak/game.zip", WithZipIgnoreCase(true))

	m := arc.GetMember("intro.txt")
	if m == nil {
		t.Fatal("case insensitive lookup failed")
	}
	if m.Name() != "Intro.TXT" {
		t.Errorf("Name = %q", m.Name())
	}
	if err := arc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := arc.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}

	if arc.HasFile("intro.txt") {
		t.Error("closed archive still has members")
	}
	if _, err := m.CreateReadStream(); !errors.Is(err, ErrArchiveClosed) {
		t.Errorf("expected ErrArchiveClosed, got %v", err)
	}
}

func TestOpenZipArchiveMissing(t *testing.T) {
	if _, err := OpenZipArchiveFs(afero.NewMemMapFs(), "/nope.zip"); !IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}
