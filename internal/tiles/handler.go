package tiles

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/arcsys/arcsys-cli/internal/slug"
)

// Handler serves cached tile pyramids over HTTP.
// Expected path format: /{layer}/{z}/{x}/{y}.png
type Handler struct {
	root string
}

// NewHandler creates a handler serving pyramids under the given cache root.
func NewHandler(root string) *Handler {
	return &Handler{root: root}
}

// ServeHTTP implements http.Handler. Path components are validated
// individually, so requests cannot escape the cache root.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 4 {
		http.Error(w, "invalid tile path", http.StatusBadRequest)
		return
	}

	layer := parts[0]
	if layer == "" || layer != slug.Make(layer) {
		http.Error(w, "invalid layer", http.StatusBadRequest)
		return
	}

	z, errZ := strconv.Atoi(parts[1])
	x, errX := strconv.Atoi(parts[2])
	y, errY := strconv.Atoi(strings.TrimSuffix(parts[3], ".png"))
	if errZ != nil || errX != nil || errY != nil || z < 0 || x < 0 || y < 0 {
		http.Error(w, "invalid tile index", http.StatusBadRequest)
		return
	}

	path := filepath.Join(h.root, layer, strconv.Itoa(z), strconv.Itoa(x), strconv.Itoa(y)+".png")
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "tile not cached", http.StatusNotFound)
		return
	}

	zap.L().Debug("tiles: serving cached tile",
		zap.String("layer", layer),
		zap.Int("z", z), zap.Int("x", x), zap.Int("y", y),
	)
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeFile(w, r, path)
}
