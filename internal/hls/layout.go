// Package hls computes the canonical on-disk layout for HLS renditions:
// <media-root>/hls/<video_id>/<label>/index.m3u8 plus numbered .ts segments.
// Both the encoding side and the serving side resolve paths through this
// package so the two never disagree.
package hls

import (
	"path/filepath"
	"strconv"
)

const (
	// ManifestName is the playlist filename inside every rendition directory.
	ManifestName = "index.m3u8"

	// SegmentPattern is the printf-style segment filename pattern handed to
	// the encoder: zero-padded 3-digit sequence with a .ts extension.
	SegmentPattern = "%03d.ts"

	// SegmentExt is the required extension for servable segments.
	SegmentExt = ".ts"
)

// Layout maps video identifiers and rendition labels to filesystem paths.
// It is pure: no I/O, no failure modes.
type Layout struct {
	MediaRoot string
}

// RenditionPaths bundles the paths of one rendition directory.
type RenditionPaths struct {
	Dir            string
	Manifest       string
	SegmentPattern string
}

// NewLayout creates a layout rooted at mediaRoot.
func NewLayout(mediaRoot string) Layout {
	return Layout{MediaRoot: mediaRoot}
}

// VideoDir returns the directory holding every rendition of one video.
func (l Layout) VideoDir(videoID int64) string {
	return filepath.Join(l.MediaRoot, "hls", strconv.FormatInt(videoID, 10))
}

// RenditionDir returns the directory of one (video, label) rendition.
func (l Layout) RenditionDir(videoID int64, label string) string {
	return filepath.Join(l.VideoDir(videoID), label)
}

// ManifestPath returns the playlist path of one rendition.
func (l Layout) ManifestPath(videoID int64, label string) string {
	return filepath.Join(l.RenditionDir(videoID, label), ManifestName)
}

// SegmentPath returns the path of a named segment inside a rendition.
func (l Layout) SegmentPath(videoID int64, label, name string) string {
	return filepath.Join(l.RenditionDir(videoID, label), name)
}

// Rendition returns the full path bundle for one (video, label) pair.
func (l Layout) Rendition(videoID int64, label string) RenditionPaths {
	dir := l.RenditionDir(videoID, label)
	return RenditionPaths{
		Dir:            dir,
		Manifest:       filepath.Join(dir, ManifestName),
		SegmentPattern: filepath.Join(dir, SegmentPattern),
	}
}

// SourceDir returns the directory uploaded media files are stored in.
func (l Layout) SourceDir() string {
	return filepath.Join(l.MediaRoot, "videos")
}

// ThumbnailDir returns the directory uploaded thumbnails are stored in.
func (l Layout) ThumbnailDir() string {
	return filepath.Join(l.MediaRoot, "thumbnail")
}

// Abs resolves a media-root-relative path (as stored in the metadata store)
// to an absolute filesystem path.
func (l Layout) Abs(rel string) string {
	return filepath.Join(l.MediaRoot, rel)
}
