package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/videoflix/vod/internal/domain"
	"github.com/videoflix/vod/internal/hls"
)

// Content types required for HLS interop.
const (
	contentTypeManifest = "application/vnd.apple.mpegurl"
	contentTypeSegment  = "video/MP2T"
)

// ServeManifest serves a rendition playlist. Every rejection collapses to the
// same not-found so the response leaks nothing about which check failed.
func (h *Handler) ServeManifest(w http.ResponseWriter, r *http.Request) {
	videoID, label, ok := h.resolveRendition(w, r)
	if !ok {
		return
	}

	path := h.layout.ManifestPath(videoID, label)
	h.serveAsset(w, r, path, contentTypeManifest, "manifest")
}

// ServeSegment serves one segment file. The filename must be a plain base
// name with the segment extension; anything else, including traversal
// attempts, is not-found.
func (h *Handler) ServeSegment(w http.ResponseWriter, r *http.Request) {
	videoID, label, ok := h.resolveRendition(w, r)
	if !ok {
		return
	}

	segment := chi.URLParam(r, "segment")
	if !safeFilename(segment) {
		http.NotFound(w, r)
		return
	}
	if !strings.HasSuffix(strings.ToLower(segment), hls.SegmentExt) {
		http.NotFound(w, r)
		return
	}

	path := h.layout.SegmentPath(videoID, label, segment)
	h.serveAsset(w, r, path, contentTypeSegment, "segment")
}

// ServeThumbnail serves an uploaded thumbnail by its stored name.
func (h *Handler) ServeThumbnail(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "thumbnail")
	if !safeFilename(name) {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.layout.ThumbnailDir(), name)
	h.serveAsset(w, r, path, "", "thumbnail")
}

// resolveRendition runs the first two serving validations: allow-listed
// resolution, then an existing video record. Both failures are not-found.
func (h *Handler) resolveRendition(w http.ResponseWriter, r *http.Request) (int64, string, bool) {
	label := chi.URLParam(r, "resolution")
	if _, ok := domain.RenditionByLabel(label); !ok {
		http.NotFound(w, r)
		return 0, "", false
	}

	videoID, err := strconv.ParseInt(chi.URLParam(r, "movieId"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return 0, "", false
	}

	exists, err := h.finder.Exists(r.Context(), videoID)
	if err != nil {
		h.logger.Error("failed to check video existence", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return 0, "", false
	}
	if !exists {
		http.NotFound(w, r)
		return 0, "", false
	}

	return videoID, label, true
}

func (h *Handler) serveAsset(w http.ResponseWriter, r *http.Request, path, contentType, assetType string) {
	f, err := os.Open(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	h.metrics.IncAssetsServed(assetType)
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// safeFilename accepts only plain base names: no directory separators and no
// parent-directory token anywhere. Enforced even for authenticated callers.
func safeFilename(name string) bool {
	if name == "" {
		return false
	}
	if filepath.Base(name) != name {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	if strings.Contains(name, "..") {
		return false
	}
	return true
}
