package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRequireDirectory(t *testing.T) {
	dir := t.TempDir()

	got, err := requireDirectory(dir)
	if err != nil {
		t.Fatalf("existing directory rejected: %v", err)
	}
	if got != filepath.Clean(dir) {
		t.Fatalf("got %q, want %q", got, filepath.Clean(dir))
	}

	if _, err := requireDirectory("relative/path"); err == nil {
		t.Fatal("relative path must be rejected")
	}

	if _, err := requireDirectory(filepath.Join(dir, "absent")); err == nil {
		t.Fatal("missing path must be rejected")
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := requireDirectory(file); err == nil {
		t.Fatal("plain file must be rejected")
	}
}

func TestPrintUsageIsPlainASCII(t *testing.T) {
	old := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stderr = w
	printUsage()
	w.Close()
	os.Stderr = old

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read usage output: %v", err)
	}
	for _, c := range string(out) {
		if c > 127 {
			t.Fatalf("usage output contains non-ASCII rune %q", c)
		}
	}
	if !strings.Contains(string(out), "usage: proxngin <template-dir> <output-dir>") {
		t.Fatalf("unexpected usage output: %q", out)
	}
}
