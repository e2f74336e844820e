package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"

	"short-link-registry/qr"
	"short-link-registry/store"
)

// GenerateQR handles GET /qr/{code}: a PNG QR image for an existing short
// link, with optional size and error-correction level parameters.
func (h *Handler) GenerateQR(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	if _, err := h.store.GetEntry(r.Context(), code); err != nil {
		if err == store.ErrNotFound {
			SendJSONError(w, http.StatusNotFound, errors.New("short code not found"), "")
			return
		}
		log.Error().Err(err).Str("code", code).Msg("Failed to check code existence for QR")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to verify short code")
		return
	}

	query := r.URL.Query()

	size := qr.DefaultSize
	if sizeStr := query.Get("size"); sizeStr != "" {
		parsed, err := strconv.Atoi(sizeStr)
		if err != nil {
			SendJSONError(w, http.StatusBadRequest, errors.New("invalid size parameter"), "Size must be a number")
			return
		}
		if parsed < 128 || parsed > 1024 {
			SendJSONError(w, http.StatusBadRequest, errors.New("size out of range"), "Size must be between 128 and 1024")
			return
		}
		size = parsed
	}

	level := qrcode.Medium
	if levelStr := query.Get("level"); levelStr != "" {
		switch levelStr {
		case "low":
			level = qrcode.Low
		case "medium":
			level = qrcode.Medium
		case "high":
			level = qrcode.High
		case "highest":
			level = qrcode.Highest
		default:
			SendJSONError(w, http.StatusBadRequest, errors.New("invalid level parameter"), "Level must be: low, medium, high, or highest")
			return
		}
	}

	target := qr.Absolute(h.baseURL, h.shortLink(code))
	png, err := qrcode.Encode(target, level, size)
	if err != nil {
		log.Error().Err(err).Str("url", target).Msg("Failed to generate QR code")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to generate QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	if _, err := w.Write(png); err != nil {
		log.Error().Err(err).Msg("Failed to write QR code response")
	}
}
