package asset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

const maxUploadSize = 10 << 20 // 10MB

// UploadResponse is returned from the upload endpoint.
type UploadResponse struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Type   string `json:"type"`
	Name   string `json:"name"`
}

// Handler serves asset upload and retrieval endpoints.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Upload handles POST /assets/upload (multipart form with "file" field).
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file too large (max 10MB)"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing file field"})
		return
	}
	defer file.Close()

	if ct := header.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") && ct != "application/octet-stream" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "only images are supported"})
		return
	}

	img, format, err := Decode(file)
	if err != nil {
		slog.Warn("rejected upload", "name", header.Filename, "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid image"})
		return
	}

	assetID, err := h.store.Put(img)
	if err != nil {
		slog.Error("store asset", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save file"})
		return
	}

	bounds := img.Bounds()
	writeJSON(w, http.StatusOK, UploadResponse{
		ID:     assetID,
		URL:    fmt.Sprintf("/assets/%s.png", assetID),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Type:   format,
		Name:   header.Filename,
	})
}

// Serve handles GET /assets/{id}. Assets are re-encoded as PNG.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(mux.Vars(r)["id"], ".png")

	img, err := h.store.Get(id)
	if errors.Is(err, ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("load asset", "asset", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		slog.Error("encode png", "asset", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	// Asset IDs are unique, so content never changes.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

// Delete handles DELETE /assets/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(mux.Vars(r)["id"], ".png")
	err := h.store.Delete(id)
	if errors.Is(err, ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("delete asset", "asset", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	slog.Info("asset deleted", "asset", id)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
