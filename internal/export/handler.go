package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/inamate/canvasviewer/internal/engine"
)

const maxSnapshotSize = 32 << 20 // 32MB

var (
	exportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "canvas_exports_total",
			Help: "Total number of canvas exports",
		},
		[]string{"format", "status"},
	)
	exportDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "canvas_export_duration_seconds",
			Help:    "Time spent rasterising and encoding exports",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"format"},
	)
)

// Collectors returns the export metrics for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{exportsTotal, exportDuration}
}

// Handler renders posted scene snapshots into downloads.
type Handler struct {
	store   engine.AssetStore
	width   int
	height  int
	quality int
}

// NewHandler creates an export handler. Image and pattern ids in posted
// snapshots are resolved against store.
func NewHandler(store engine.AssetStore, width, height, quality int) *Handler {
	return &Handler{store: store, width: width, height: height, quality: quality}
}

// Export handles POST /export/{format}. The body is a scene snapshot; the
// optional "name" query parameter sets the download base name.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	format, err := ParseFormat(mux.Vars(r)["format"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid format: must be png, jpeg, or pdf"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSnapshotSize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "snapshot too large"})
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing snapshot"})
		return
	}

	width, height := h.width, h.height
	if v, err := strconv.Atoi(r.URL.Query().Get("width")); err == nil && v > 0 && v <= 8192 {
		width = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("height")); err == nil && v > 0 && v <= 8192 {
		height = v
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "canvas"
	}
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)

	eng := engine.New(engine.Options{Width: width, Height: height, Assets: h.store})
	defer eng.Close()

	if err := eng.LoadSnapshot(body); err != nil {
		exportsTotal.WithLabelValues(string(format), "invalid").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	start := time.Now()
	var out bytes.Buffer
	if err := Export(&out, eng.PrepareExport(), format, h.quality, sceneImages{h.store, eng}); err != nil {
		exportsTotal.WithLabelValues(string(format), "failed").Inc()
		slog.Error("export failed", "format", format, "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, ErrEmptyFrame) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": "export failed"})
		return
	}
	exportDuration.WithLabelValues(string(format)).Observe(time.Since(start).Seconds())
	exportsTotal.WithLabelValues(string(format), "ok").Inc()

	slog.Info("export complete", "format", format, "bytes", out.Len(), "width", width, "height", height)

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, format.FileName(name)))
	w.Header().Set("Content-Length", strconv.Itoa(out.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(out.Bytes())
}

// sceneImages resolves images from the shared store and pattern tiles from
// the request's engine, so derived tiles never reach the store.
type sceneImages struct {
	store engine.AssetStore
	eng   *engine.Engine
}

func (s sceneImages) Get(id string) (image.Image, error) { return s.store.Get(id) }

func (s sceneImages) PatternTile(sourceID string, scale float64) (image.Image, error) {
	return s.eng.PatternTile(sourceID, scale)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
