// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"time"

	"echofeed/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDuplicatePost reports that an insert was a no-op because a record
// with the same post_id already exists. A losing race against a
// concurrent insert surfaces as this error, never as a driver error.
var ErrDuplicatePost = errors.New("post already exists")

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	ExistsByPostID(ctx context.Context, postID string) (bool, error)
	List(ctx context.Context, limit int) ([]*models.Post, error)
	Texts(ctx context.Context) ([]string, error)
	CreationTimes(ctx context.Context) ([]*time.Time, error)
	Count(ctx context.Context) (int64, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts the post. The uniqueness constraint on post_id is the
// sole arbiter of duplicates: ON CONFLICT DO NOTHING makes the insert
// atomic, and a conflict is reported as ErrDuplicatePost.
func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}},
			DoNothing: true,
		}).
		Create(post)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDuplicatePost
	}
	return nil
}

func (r *postRepository) ExistsByPostID(ctx context.Context, postID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("post_id = ?", postID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *postRepository) List(ctx context.Context, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// Texts returns the text column of every stored post. The reports only
// need this projection, not full rows.
func (r *postRepository) Texts(ctx context.Context) ([]string, error) {
	var texts []string
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Pluck("text", &texts).Error
	if err != nil {
		return nil, err
	}
	return texts, nil
}

// CreationTimes returns the created_at column of every stored post,
// NULLs included so the volume report can bucket them as unknown.
func (r *postRepository) CreationTimes(ctx context.Context) ([]*time.Time, error) {
	var times []*time.Time
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Pluck("created_at", &times).Error
	if err != nil {
		return nil, err
	}
	return times, nil
}

func (r *postRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&count).Error
	return count, err
}
