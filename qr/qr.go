// Package qr derives scannable QR artifacts from absolute URLs. It is
// stateless; a given input always yields the same image.
package qr

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the rendered image edge in pixels.
const DefaultSize = 320

// Absolute canonicalizes a possibly-relative short link against the base
// public origin.
func Absolute(base, link string) string {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(base, "/"), strings.TrimPrefix(link, "/"))
}

// PNG renders a QR code for the given text.
func PNG(text string, size int) ([]byte, error) {
	return qrcode.Encode(text, qrcode.Medium, size)
}

// DataURL renders a QR code as a data URL suitable for inline embedding.
// Malformed or oversized input yields an empty string, never an error.
func DataURL(text string) string {
	png, err := PNG(text, DefaultSize)
	if err != nil {
		log.Warn().Err(err).Msg("QR encoding failed")
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
