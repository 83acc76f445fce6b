package domain

import "time"

// Video represents a video record in the metadata store. SourcePath and
// ThumbnailPath are relative to the media root; either may be absent.
type Video struct {
	ID            int64     `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	Description   string    `json:"description" db:"description"`
	Category      string    `json:"category" db:"category"`
	SourcePath    *string   `json:"-" db:"source_path"`
	ThumbnailPath *string   `json:"-" db:"thumbnail_path"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// HasSource reports whether a source media file is attached.
func (v *Video) HasSource() bool {
	return v.SourcePath != nil && *v.SourcePath != ""
}

// HasThumbnail reports whether a thumbnail is attached.
func (v *Video) HasThumbnail() bool {
	return v.ThumbnailPath != nil && *v.ThumbnailPath != ""
}
