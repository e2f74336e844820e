package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"short-link-registry/model"
	"short-link-registry/qr"
	"short-link-registry/upload"
)

// textFieldLimit caps non-file multipart fields.
const textFieldLimit = 64 * 1024

// uploadStatus maps a pipeline rejection to the right status class: client
// errors keep their specific reason, server errors stay generic.
func uploadStatus(err error) (int, string) {
	switch {
	case errors.Is(err, upload.ErrExtensionNotAllowed):
		return http.StatusBadRequest, "File type not allowed"
	case errors.Is(err, upload.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "File too large"
	default:
		return http.StatusInternalServerError, "Failed to save file"
	}
}

func readTextField(part *multipart.Part) (string, error) {
	data, err := io.ReadAll(io.LimitReader(part, textFieldLimit))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// CreateLink handles POST /link: a form-encoded URL submission returning
// the short link as JSON, with an optional QR artifact.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid form body")
		return
	}

	link := strings.TrimSpace(r.PostFormValue("link"))
	if err := validateLink(link); err != nil {
		log.Warn().Str("link", link).Msg("Rejected link submission")
		SendJSONError(w, http.StatusBadRequest, err, "")
		return
	}

	code, err := h.insertWithUniqueCode(r.Context(), model.KindURL, link)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create link entry")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to create short link")
		return
	}

	resp := SubmitResponse{Code: code, ShortURL: h.shortLink(code)}
	if r.PostFormValue("qr") == "on" {
		resp.QR = qr.DataURL(qr.Absolute(h.baseURL, resp.ShortURL))
	}

	log.Info().Str("code", code).Str("link", link).Msg("Short link created")
	SendJSONSuccess(w, http.StatusOK, resp)
}

// UploadFile handles POST /upload: a multipart upload of a "file" field,
// streamed to storage and registered under a fresh code.
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	mr, err := r.MultipartReader()
	if err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Expected multipart form data")
		return
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			SendJSONError(w, http.StatusBadRequest, err, "Malformed multipart body")
			return
		}
		if part.FormName() != "file" || part.FileName() == "" {
			continue
		}

		stored, err := h.pipeline.Accept(part, part.FileName())
		if err != nil {
			status, msg := uploadStatus(err)
			log.Error().Err(err).Str("filename", part.FileName()).Msg("Upload rejected")
			SendJSONError(w, status, err, msg)
			return
		}

		code, err := h.insertWithUniqueCode(r.Context(), model.KindFile, model.FilePrefix+stored.Name)
		if err != nil {
			// The entry never existed; do not leave the file orphaned
			if removeErr := h.pipeline.Remove(stored.Name); removeErr != nil {
				log.Error().Err(removeErr).Str("name", stored.Name).Msg("Failed to remove unregistered upload")
			}
			log.Error().Err(err).Msg("Failed to register uploaded file")
			SendJSONError(w, http.StatusInternalServerError, err, "Failed to create short link")
			return
		}

		shortURL := h.shortLink(code)
		log.Info().Str("code", code).Str("file", stored.Name).Msg("File uploaded")
		SendJSONSuccess(w, http.StatusOK, SubmitResponse{
			Code:     code,
			ShortURL: shortURL,
			File:     stored.Name,
			QR:       qr.DataURL(qr.Absolute(h.baseURL, shortURL)),
		})
		return
	}

	SendJSONError(w, http.StatusBadRequest, errors.New("no file provided"), "")
}

// Submit handles POST /submit: the index form accepting either a link or a
// file plus a QR checkbox, redirecting to the result page. A file takes
// precedence over a link when both are supplied.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	mr, err := r.MultipartReader()
	if err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Expected multipart form data")
		return
	}

	var link string
	var storedName string
	wantQR := false

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			SendJSONError(w, http.StatusBadRequest, err, "Malformed multipart body")
			return
		}

		switch part.FormName() {
		case "link":
			if text, err := readTextField(part); err == nil && text != "" {
				link = text
			}
		case "file":
			if part.FileName() == "" || storedName != "" {
				continue
			}
			stored, err := h.pipeline.Accept(part, part.FileName())
			if err != nil {
				status, msg := uploadStatus(err)
				log.Error().Err(err).Str("filename", part.FileName()).Msg("Upload rejected")
				SendJSONError(w, status, err, msg)
				return
			}
			storedName = stored.Name
		case "qr":
			wantQR = true
		}
	}

	qrFlag := "0"
	if wantQR {
		qrFlag = "1"
	}

	if storedName != "" {
		code, err := h.insertWithUniqueCode(r.Context(), model.KindFile, model.FilePrefix+storedName)
		if err != nil {
			if removeErr := h.pipeline.Remove(storedName); removeErr != nil {
				log.Error().Err(removeErr).Str("name", storedName).Msg("Failed to remove unregistered upload")
			}
			SendJSONError(w, http.StatusInternalServerError, err, "Failed to create short link")
			return
		}
		http.Redirect(w, r, fmt.Sprintf("/r/%s?qr=%s", code, qrFlag), http.StatusFound)
		return
	}

	if link != "" {
		if err := validateLink(link); err != nil {
			SendJSONError(w, http.StatusBadRequest, err, "")
			return
		}
		code, err := h.insertWithUniqueCode(r.Context(), model.KindURL, link)
		if err != nil {
			SendJSONError(w, http.StatusInternalServerError, err, "Failed to create short link")
			return
		}
		http.Redirect(w, r, fmt.Sprintf("/r/%s?qr=%s", code, qrFlag), http.StatusFound)
		return
	}

	SendJSONError(w, http.StatusBadRequest, errors.New("provide a URL or a file"), "")
}

// APIUpload handles POST /api/upload: a "content" field carrying either a
// file or a URL string, plus a "qr_required" flag. Response is the JSON
// envelope used by API clients.
func (h *Handler) APIUpload(w http.ResponseWriter, r *http.Request) {
	mr, err := r.MultipartReader()
	if err != nil {
		SendJSONSuccess(w, http.StatusBadRequest, APIResponse{Success: false, Error: "Expected multipart form data"})
		return
	}

	var link string
	var storedName string
	qrRequired := false

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			SendJSONSuccess(w, http.StatusBadRequest, APIResponse{Success: false, Error: "Malformed multipart body"})
			return
		}

		switch part.FormName() {
		case "content":
			if part.FileName() != "" {
				stored, err := h.pipeline.Accept(part, part.FileName())
				if err != nil {
					status, msg := uploadStatus(err)
					log.Error().Err(err).Str("filename", part.FileName()).Msg("API upload rejected")
					SendJSONSuccess(w, status, APIResponse{Success: false, Error: msg})
					return
				}
				storedName = stored.Name
			} else if text, err := readTextField(part); err == nil && text != "" {
				link = text
			}
		case "qr_required":
			if v, err := readTextField(part); err == nil {
				qrRequired = strings.EqualFold(v, "true")
			}
		}
	}

	respond := func(code string) {
		shortURL := h.shortLink(code)
		resp := APIResponse{Success: true, ShortURL: shortURL}
		if qrRequired {
			if data := qr.DataURL(qr.Absolute(h.baseURL, shortURL)); data != "" {
				resp.QRCodeData = &data
			}
		}
		SendJSONSuccess(w, http.StatusOK, resp)
	}

	if storedName != "" {
		code, err := h.insertWithUniqueCode(r.Context(), model.KindFile, model.FilePrefix+storedName)
		if err != nil {
			if removeErr := h.pipeline.Remove(storedName); removeErr != nil {
				log.Error().Err(removeErr).Str("name", storedName).Msg("Failed to remove unregistered upload")
			}
			SendJSONSuccess(w, http.StatusInternalServerError, APIResponse{Success: false, Error: "Server error"})
			return
		}
		respond(code)
		return
	}

	if link != "" {
		if err := validateLink(link); err != nil {
			SendJSONSuccess(w, http.StatusBadRequest, APIResponse{Success: false, Error: "Invalid URL"})
			return
		}
		code, err := h.insertWithUniqueCode(r.Context(), model.KindURL, link)
		if err != nil {
			SendJSONSuccess(w, http.StatusInternalServerError, APIResponse{Success: false, Error: "Server error"})
			return
		}
		respond(code)
		return
	}

	SendJSONSuccess(w, http.StatusBadRequest, APIResponse{Success: false, Error: "Provide content or file"})
}
