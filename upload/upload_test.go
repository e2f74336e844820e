package upload

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestAcceptStoresFile(t *testing.T) {
	dir := t.TempDir()
	p := NewPipeline(dir, 1024)

	content := []byte("hello, registry")
	stored, err := p.Accept(bytes.NewReader(content), "photo.PNG")
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}

	if stored.Size != int64(len(content)) {
		t.Errorf("Size = %d, want %d", stored.Size, len(content))
	}
	if !strings.HasSuffix(stored.Name, ".png") {
		t.Errorf("Name = %q, want .png suffix", stored.Name)
	}
	if strings.Contains(stored.Name, "photo") {
		t.Errorf("Name = %q must not contain the client-supplied name", stored.Name)
	}

	got, err := os.ReadFile(filepath.Join(dir, stored.Name))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("Stored content = %q, want %q", got, content)
	}
}

func TestAcceptRejectsExtension(t *testing.T) {
	tests := []struct {
		name     string
		filename string
	}{
		{"Executable", "malware.exe"},
		{"Shell script", "run.sh"},
		{"No extension", "README"},
		{"Trailing dot", "file."},
	}

	dir := t.TempDir()
	p := NewPipeline(dir, 1024)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Accept(bytes.NewReader([]byte("data")), tt.filename)
			if !errors.Is(err, ErrExtensionNotAllowed) {
				t.Errorf("Accept(%q) error = %v, want ErrExtensionNotAllowed", tt.filename, err)
			}
		})
	}

	// Rejection happens before any bytes are persisted
	if names := listDir(t, dir); len(names) != 0 {
		t.Errorf("Files left on disk after rejections: %v", names)
	}
}

func TestAcceptSizeBoundary(t *testing.T) {
	const max = 64
	dir := t.TempDir()
	p := NewPipeline(dir, max)

	// Exactly max bytes succeeds
	stored, err := p.Accept(bytes.NewReader(bytes.Repeat([]byte("a"), max)), "full.txt")
	if err != nil {
		t.Fatalf("Accept() at limit error = %v", err)
	}
	if stored.Size != max {
		t.Errorf("Size = %d, want %d", stored.Size, max)
	}

	// One byte over is rejected and leaves nothing behind
	_, err = p.Accept(bytes.NewReader(bytes.Repeat([]byte("a"), max+1)), "over.txt")
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("Accept() over limit error = %v, want ErrFileTooLarge", err)
	}

	names := listDir(t, dir)
	if len(names) != 1 || names[0] != stored.Name {
		t.Errorf("Directory contents = %v, want only %q", names, stored.Name)
	}
}

func TestAcceptCleansUpOnReadFailure(t *testing.T) {
	dir := t.TempDir()
	p := NewPipeline(dir, 1024)

	r := &failingReader{data: []byte("partial data")}
	_, err := p.Accept(r, "doc.pdf")
	if err == nil {
		t.Fatal("Accept() expected error on read failure")
	}
	if errors.Is(err, ErrExtensionNotAllowed) || errors.Is(err, ErrFileTooLarge) {
		t.Errorf("Read failure surfaced as client error: %v", err)
	}

	if names := listDir(t, dir); len(names) != 0 {
		t.Errorf("Partial file left on disk: %v", names)
	}
}

func TestPathIgnoresTraversal(t *testing.T) {
	p := NewPipeline("/srv/uploads", 1024)
	got := p.Path("../../etc/passwd")
	if got != filepath.Join("/srv/uploads", "passwd") {
		t.Errorf("Path() = %q escaped the storage directory", got)
	}
}

// failingReader yields its data once, then an error.
type failingReader struct {
	data []byte
	done bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, errors.New("connection reset")
	}
	r.done = true
	return copy(p, r.data), nil
}
