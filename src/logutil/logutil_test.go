package logutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRedactKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "********"},
		{"short", "********"},
		{"sk-or-v1-abcdef123456", "sk-o...3456"},
	}
	for _, tt := range tests {
		if got := RedactKey(tt.in); got != tt.want {
			t.Errorf("RedactKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"plain", "hello", 0, "hello"},
		{"line breaks", "a\r\nb", 0, `a\n\nb`},
		{"control chars", "a\x1b[31mb", 0, "a[31mb"},
		{"tab", "a\tb", 0, "a b"},
		{"truncate runes", "你好世界", 2, "你好..."},
		{"exact length", "abc", 3, "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in, tt.max); got != tt.want {
				t.Errorf("Sanitize(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestRotatingWriterRotates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	w, err := NewRotatingWriter(path, 10, 2)
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	defer w.Close()

	for _, line := range []string{"first12\n", "second1\n", "third12\n", "fourth1\n"} {
		if _, err := w.Write([]byte(line)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	current, _ := os.ReadFile(path)
	if string(current) != "fourth1\n" {
		t.Errorf("current log = %q", current)
	}
	a1, _ := os.ReadFile(path + ".1")
	if string(a1) != "third12\n" {
		t.Errorf("archive 1 = %q", a1)
	}
	a2, _ := os.ReadFile(path + ".2")
	if string(a2) != "second1\n" {
		t.Errorf("archive 2 = %q", a2)
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Errorf("expected no third archive, got err=%v", err)
	}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "app.log") {
			t.Errorf("unexpected file %s", e.Name())
		}
	}
}
