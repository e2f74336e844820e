// Package upload validates and streams uploaded files to the storage
// directory under a freshly generated name. It never touches the mapping
// store; inserting the corresponding entry is the caller's job.
package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Client-class rejections, distinct from server-side I/O failures.
var (
	ErrExtensionNotAllowed = errors.New("file type not allowed")
	ErrFileTooLarge        = errors.New("file too large")
)

// allowedExtensions is the enumerated upload allow-list: images, documents,
// archives, audio/video.
var allowedExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true, "svg": true,
	"pdf": true, "txt": true, "md": true, "csv": true, "json": true,
	"doc": true, "docx": true, "xls": true, "xlsx": true, "ppt": true, "pptx": true,
	"zip": true, "tar": true, "gz": true, "rar": true, "7z": true,
	"mp3": true, "mp4": true, "mov": true, "webm": true,
}

// Extension returns the lowercased extension of a declared filename, without
// the leading dot.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// ExtensionAllowed reports whether the extension is on the allow-list.
func ExtensionAllowed(ext string) bool {
	return allowedExtensions[ext]
}

// StoredFile describes a successfully persisted upload.
type StoredFile struct {
	// Name is the generated storage-relative filename (uuid + original
	// extension). The client-supplied name is never used for the path.
	Name string
	Size int64
}

// Pipeline streams uploads into a directory under a configured size cap.
type Pipeline struct {
	dir      string
	maxBytes int64
}

// NewPipeline creates an upload pipeline writing into dir, rejecting
// payloads larger than maxBytes.
func NewPipeline(dir string, maxBytes int64) *Pipeline {
	return &Pipeline{dir: dir, maxBytes: maxBytes}
}

// Dir returns the storage directory (for static file serving).
func (p *Pipeline) Dir() string { return p.dir }

// MaxBytes returns the configured size cap.
func (p *Pipeline) MaxBytes() int64 { return p.maxBytes }

// Path returns the absolute path of a stored file by its generated name.
// Only the base name is honored, so a crafted name cannot escape the
// storage directory.
func (p *Pipeline) Path(name string) string {
	return filepath.Join(p.dir, filepath.Base(name))
}

// Remove deletes a stored file by its generated name.
func (p *Pipeline) Remove(name string) error {
	return os.Remove(p.Path(name))
}

// Accept validates the declared filename against the allow-list, then
// streams the payload to disk under a generated name, tracking the running
// byte count. The moment the total exceeds the cap the partial file is
// deleted and ErrFileTooLarge returned; any I/O failure likewise leaves no
// partial artifact behind.
func (p *Pipeline) Accept(r io.Reader, declaredName string) (StoredFile, error) {
	ext := Extension(declaredName)
	if !ExtensionAllowed(ext) {
		log.Warn().Str("filename", declaredName).Str("extension", ext).Msg("Rejected upload by extension")
		return StoredFile{}, fmt.Errorf("%w: .%s", ErrExtensionNotAllowed, ext)
	}

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return StoredFile{}, fmt.Errorf("create upload directory: %w", err)
	}

	name := fmt.Sprintf("%s.%s", uuid.New().String(), ext)
	path := filepath.Join(p.dir, name)

	out, err := os.Create(path)
	if err != nil {
		return StoredFile{}, fmt.Errorf("create file: %w", err)
	}

	var written int64
	buf := make([]byte, 32*1024)
	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			written += int64(n)
			if written > p.maxBytes {
				p.discard(out, path)
				return StoredFile{}, fmt.Errorf("%w: limit %d bytes", ErrFileTooLarge, p.maxBytes)
			}
			if _, err := out.Write(buf[:n]); err != nil {
				p.discard(out, path)
				return StoredFile{}, fmt.Errorf("write file: %w", err)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			p.discard(out, path)
			return StoredFile{}, fmt.Errorf("read upload: %w", readErr)
		}
	}

	if err := out.Close(); err != nil {
		if removeErr := os.Remove(path); removeErr != nil {
			log.Error().Err(removeErr).Str("path", path).Msg("Failed to remove partial upload")
		}
		return StoredFile{}, fmt.Errorf("close file: %w", err)
	}

	log.Info().Str("name", name).Int64("bytes", written).Msg("File stored")
	return StoredFile{Name: name, Size: written}, nil
}

// discard closes and unlinks a partial upload.
func (p *Pipeline) discard(f *os.File, path string) {
	f.Close()
	if err := os.Remove(path); err != nil {
		log.Error().Err(err).Str("path", path).Msg("Failed to remove partial upload")
	}
}
