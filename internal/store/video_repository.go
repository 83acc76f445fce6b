package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/videoflix/vod/internal/domain"
)

// ErrNotFound is returned when a resource is not found
var ErrNotFound = errors.New("not found")

// VideoRepository handles video metadata persistence
type VideoRepository struct {
	db *DB
}

// NewVideoRepository creates a new video repository
func NewVideoRepository(db *DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// Create inserts a new video and fills in its generated ID and timestamp.
func (r *VideoRepository) Create(ctx context.Context, video *domain.Video) error {
	query := `
		INSERT INTO videos (title, description, category, source_path, thumbnail_path)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		video.Title,
		video.Description,
		video.Category,
		video.SourcePath,
		video.ThumbnailPath,
	).Scan(&video.ID, &video.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create video: %w", err)
	}

	return nil
}

// GetByID retrieves a video by ID
func (r *VideoRepository) GetByID(ctx context.Context, id int64) (*domain.Video, error) {
	query := `
		SELECT id, title, description, category, source_path, thumbnail_path, created_at
		FROM videos
		WHERE id = $1
	`

	return r.scanVideo(r.db.Pool.QueryRow(ctx, query, id))
}

// Exists reports whether a video record exists
func (r *VideoRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM videos WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check video existence: %w", err)
	}
	return exists, nil
}

// List retrieves all videos, newest first
func (r *VideoRepository) List(ctx context.Context) ([]*domain.Video, error) {
	query := `
		SELECT id, title, description, category, source_path, thumbnail_path, created_at
		FROM videos
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	var videos []*domain.Video
	for rows.Next() {
		video, err := r.scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}

	return videos, rows.Err()
}

// Update updates a video's mutable fields
func (r *VideoRepository) Update(ctx context.Context, video *domain.Video) error {
	query := `
		UPDATE videos SET
			title = $2,
			description = $3,
			category = $4,
			source_path = $5,
			thumbnail_path = $6
		WHERE id = $1
	`

	result, err := r.db.Pool.Exec(ctx, query,
		video.ID,
		video.Title,
		video.Description,
		video.Category,
		video.SourcePath,
		video.ThumbnailPath,
	)
	if err != nil {
		return fmt.Errorf("failed to update video: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a video record
func (r *VideoRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *VideoRepository) scanVideo(row pgx.Row) (*domain.Video, error) {
	var video domain.Video

	err := row.Scan(
		&video.ID,
		&video.Title,
		&video.Description,
		&video.Category,
		&video.SourcePath,
		&video.ThumbnailPath,
		&video.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan video: %w", err)
	}

	return &video, nil
}
