package main

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// run executes searchctl with args and returns what it wrote to stdout
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dirFlags, zipFlags = nil, nil
	verbose, cfgFile, depth, flat, ignoreCase, noDefaults = false, "", 1, false, false, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func fixtureDirs(t *testing.T) (base, patch string) {
	t.Helper()
	base, patch = t.TempDir(), t.TempDir()
	files := map[string]string{
		filepath.Join(base, "title.bmp"):  "base",
		filepath.Join(base, "intro.txt"):  "intro",
		filepath.Join(patch, "title.bmp"): "patched",
	}
	for p, content := range files {
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return base, patch
}

func TestRunCommands(t *testing.T) {
	base, patch := fixtureDirs(t)
	common := []string{"--no-defaults", "--dir", "base=" + base, "--dir", "patch=" + patch + ":10"}

	out, err := run(t, append(common, "which", "title.bmp")...)
	if err != nil {
		t.Fatalf("which: %v", err)
	}
	if strings.TrimSpace(out) != "patch" {
		t.Errorf("which = %q", out)
	}

	out, err = run(t, append(common, "cat", "title.bmp")...)
	if err != nil || out != "patched" {
		t.Errorf("cat = %q, %v", out, err)
	}

	out, err = run(t, append(common, "ls", "*.txt")...)
	if err != nil || strings.TrimSpace(out) != "intro.txt" {
		t.Errorf("ls = %q, %v", out, err)
	}

	out, err = run(t, append(common, "archives")...)
	if err != nil {
		t.Fatal(err)
	}
	if want := "10\tpatch\n0\tbase\n"; out != want {
		t.Errorf("archives = %q, want %q", out, want)
	}

	if _, err := run(t, append(common, "has", "missing.bmp")...); err == nil {
		t.Error("has should fail for a missing member")
	}
}

func TestRunBadDirFlag(t *testing.T) {
	if _, err := run(t, "--no-defaults", "--dir", "nopath", "archives"); err == nil {
		t.Error("expected an error for a malformed --dir")
	}
}

func writeTestZip(t *testing.T, p string, files map[string]string) {
	t.Helper()
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	w := zip.NewWriter(f)
	for name, content := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

// TestRunBoundFlags tests flags that reach the registry through the config layer
func TestRunBoundFlags(t *testing.T) {
	base := t.TempDir()
	if err := os.MkdirAll(filepath.Join(base, "gfx"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(base, "gfx", "title.bmp"), []byte("base"), 0644); err != nil {
		t.Fatal(err)
	}
	pak := filepath.Join(t.TempDir(), "patch.zip")
	writeTestZip(t, pak, map[string]string{"gfx/title.bmp": "zipped"})

	out, err := run(t, "--no-defaults", "--dir", "base="+base, "ls")
	if err != nil || out != "" {
		t.Errorf("depth 1 ls = %q, %v", out, err)
	}

	out, err = run(t, "--no-defaults", "--depth", "2", "--dir", "base="+base, "ls")
	if err != nil || strings.TrimSpace(out) != "gfx/title.bmp" {
		t.Errorf("depth 2 ls = %q, %v", out, err)
	}

	common := []string{"--no-defaults", "--depth", "2", "--dir", "base=" + base, "--zip", pak + ":5"}
	out, err = run(t, append(common, "which", "gfx/title.bmp")...)
	if err != nil || strings.TrimSpace(out) != pak {
		t.Errorf("which = %q, %v", out, err)
	}
	out, err = run(t, append(common, "cat", "gfx/title.bmp")...)
	if err != nil || out != "zipped" {
		t.Errorf("cat = %q, %v", out, err)
	}
}
