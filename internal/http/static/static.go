// Package static serves the studio front end with single-page-app fallback.
package static

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const notFoundBody = "404 Not Found: The requested resource could not be found on this server."

var mimeTypes = map[string]string{
	".html":  "text/html; charset=utf-8",
	".htm":   "text/html; charset=utf-8",
	".css":   "text/css; charset=utf-8",
	".js":    "application/javascript",
	".mjs":   "application/javascript",
	".json":  "application/json",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".ico":   "image/x-icon",
	".txt":   "text/plain; charset=utf-8",
	".csv":   "text/csv",
	".xml":   "application/xml",
	".wav":   "audio/wav",
	".mp3":   "audio/mpeg",
	".webp":  "image/webp",
	".woff":  "font/woff",
	".woff2": "font/woff2",
}

// ContentType maps a file name to its MIME type by extension.
func ContentType(name string) string {
	if ct, ok := mimeTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Handler serves files below one root directory. Requests never reach
// outside the root, symlinks included.
type Handler struct {
	root   *os.Root
	logger zerolog.Logger
}

func New(dir string, logger zerolog.Logger) (*Handler, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, err
	}
	return &Handler{root: root, logger: logger}, nil
}

func (h *Handler) Close() error {
	return h.root.Close()
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "405 Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	name := h.resolve(r.URL.Path)
	if name == "" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(notFoundBody))
		return
	}
	f, err := h.root.Open(name)
	if err != nil {
		h.logger.Error().Err(err).Str("file", name).Msg("static open failed")
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", ContentType(name))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// resolve maps a URL path to a file inside the root, or "" when even the
// root index.html is missing. Directories serve their own index.html or the
// root one; unknown paths fall back to the root index.html.
func (h *Handler) resolve(urlPath string) string {
	rel := strings.NewReplacer("\r", "", "\n", "").Replace(urlPath)
	rel = strings.TrimPrefix(path.Clean("/"+rel), "/")
	if rel == "" {
		rel = "."
	}

	if info, err := h.root.Stat(rel); err == nil {
		if info.Mode().IsRegular() {
			return rel
		}
		if info.IsDir() {
			index := path.Join(rel, "index.html")
			if h.isFile(index) {
				return index
			}
		}
	}
	if h.isFile("index.html") {
		return "index.html"
	}
	return ""
}

func (h *Handler) isFile(name string) bool {
	info, err := h.root.Stat(name)
	return err == nil && info.Mode().IsRegular()
}
