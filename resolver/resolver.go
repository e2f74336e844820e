// Package resolver turns a short code into a concrete HTTP action. The
// content-negotiation branch for image files lives here as plain decision
// functions so it can be tested away from any handler.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"short-link-registry/cache"
	"short-link-registry/model"
	"short-link-registry/store"
	"short-link-registry/upload"
)

// Action is what the handler should do for a resolved code.
type Action interface {
	isAction()
}

// RedirectPermanent redirects (301) to the target URL.
type RedirectPermanent struct {
	URL string
}

// RenderPreview renders the Open-Graph image preview page.
type RenderPreview struct {
	ImageURL    string
	PageURL     string
	Title       string
	Description string
}

// RenderFileInfo renders the download page for a non-image file.
type RenderFileInfo struct {
	Filename string
	FileURL  string
	MIME     string
}

// NotFound means no entry exists for the code.
type NotFound struct{}

func (RedirectPermanent) isAction() {}
func (RenderPreview) isAction()     {}
func (RenderFileInfo) isAction()    {}
func (NotFound) isAction()          {}

// displayableImages are the extensions rendered inline by browsers; they get
// the preview-or-redirect negotiation instead of the download page.
var displayableImages = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true, "svg": true,
}

// mimeByExtension is the fixed extension to MIME table for the allow-list.
var mimeByExtension = map[string]string{
	"jpg": "image/jpeg", "jpeg": "image/jpeg", "png": "image/png",
	"gif": "image/gif", "webp": "image/webp", "svg": "image/svg+xml",
	"pdf": "application/pdf", "txt": "text/plain", "md": "text/markdown",
	"csv": "text/csv", "json": "application/json",
	"doc": "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls": "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"ppt": "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"zip": "application/zip", "tar": "application/x-tar", "gz": "application/gzip",
	"rar": "application/vnd.rar", "7z": "application/x-7z-compressed",
	"mp3": "audio/mpeg", "mp4": "video/mp4", "mov": "video/quicktime",
	"webm": "video/webm",
}

// WantsHTML reports whether the Accept header indicates a browser
// navigation. A tool fetching the image directly (e.g. a Markdown renderer)
// sends no text/html and gets the raw image instead of the preview page.
func WantsHTML(accept string) bool {
	return strings.Contains(strings.ToLower(accept), "text/html")
}

// IsDisplayableImage reports whether the extension is browser-displayable.
func IsDisplayableImage(ext string) bool {
	return displayableImages[strings.ToLower(ext)]
}

// MIMEByExtension maps an extension to its MIME type, defaulting to
// application/octet-stream.
func MIMEByExtension(ext string) string {
	if mime, ok := mimeByExtension[strings.ToLower(ext)]; ok {
		return mime
	}
	return "application/octet-stream"
}

// Resolver loads entries and decides the response action.
type Resolver struct {
	store   *store.Store
	cache   *cache.Cache
	baseURL string
}

// New creates a resolver. cache may be nil to disable read caching.
func New(st *store.Store, c *cache.Cache, baseURL string) *Resolver {
	return &Resolver{
		store:   st,
		cache:   c,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Invalidate drops a code from the read cache (called after admin deletes).
func (r *Resolver) Invalidate(code string) {
	if r.cache != nil {
		r.cache.Delete(code)
	}
}

// lookup loads an entry through the read cache.
func (r *Resolver) lookup(ctx context.Context, code string) (model.Entry, error) {
	if r.cache != nil {
		if cached, found := r.cache.Get(code); found {
			if entry, ok := cached.(model.Entry); ok {
				log.Debug().Str("code", code).Msg("Cache hit")
				return entry, nil
			}
		}
	}

	entry, err := r.store.GetEntry(ctx, code)
	if err != nil {
		return model.Entry{}, err
	}

	if r.cache != nil {
		r.cache.Set(code, entry, 1024)
	}
	return entry, nil
}

// Resolve maps a code and the request's Accept header to an action. The
// error return is reserved for storage failures; an unknown code is the
// NotFound action, not an error.
func (r *Resolver) Resolve(ctx context.Context, code string, accept string) (Action, error) {
	entry, err := r.lookup(ctx, code)
	if err == store.ErrNotFound {
		return NotFound{}, nil
	}
	if err != nil {
		return nil, err
	}

	switch entry.Kind {
	case model.KindURL:
		return RedirectPermanent{URL: entry.Value}, nil

	case model.KindFile:
		filename := entry.Filename()
		ext := upload.Extension(filename)
		if ext == "" {
			return NotFound{}, nil
		}

		fileURL := fmt.Sprintf("%s/files/%s", r.baseURL, filename)
		if IsDisplayableImage(ext) {
			// Same code, same file: a browser gets the preview page, a
			// direct fetch gets the image itself.
			if !WantsHTML(accept) {
				return RedirectPermanent{URL: fileURL}, nil
			}
			return RenderPreview{
				ImageURL:    fileURL,
				PageURL:     fmt.Sprintf("%s/s/%s", r.baseURL, code),
				Title:       "Shared Image",
				Description: "Shared via short link",
			}, nil
		}

		return RenderFileInfo{
			Filename: filename,
			FileURL:  fileURL,
			MIME:     MIMEByExtension(ext),
		}, nil

	default:
		log.Warn().Str("code", code).Str("kind", entry.Kind).Msg("Entry with unknown kind")
		return NotFound{}, nil
	}
}
