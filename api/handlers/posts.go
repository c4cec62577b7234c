package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Fahmialfayadh/mahainsight/api/config"
)

// Post is the slice of an article this service cares about: its id and
// the attached dataset URL.
type Post struct {
	ID        int       `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	DataURL   string    `json:"data_url"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	errPostNotFound = errors.New("post not found")
	errPostNoData   = errors.New("post has no dataset")
)

func fetchPost(ctx context.Context, postID int) (Post, error) {
	var p Post
	var dataURL *string
	err := config.PgPool.QueryRow(ctx, `
		SELECT id, slug, title, data_url, created_at
		FROM posts WHERE id = $1
	`, postID).Scan(&p.ID, &p.Slug, &p.Title, &dataURL, &p.CreatedAt)
	if err == pgx.ErrNoRows {
		return Post{}, errPostNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("failed to fetch post %d: %w", postID, err)
	}
	if dataURL == nil || *dataURL == "" {
		return Post{}, errPostNoData
	}
	p.DataURL = *dataURL
	return p, nil
}

// datasetHandle is the stable cache key for a post's dataset.
func datasetHandle(p Post) string {
	return fmt.Sprintf("post:%d", p.ID)
}
