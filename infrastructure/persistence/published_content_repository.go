package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"my-publisher/domain/model"
)

// PublishedContentRepository records content that reached at least one
// platform (PostgreSQL only, like the report history features).
type PublishedContentRepository struct {
	db *sql.DB
}

func NewPublishedContentRepository(db *sql.DB) *PublishedContentRepository {
	return &PublishedContentRepository{db: db}
}

func (r *PublishedContentRepository) RecordPublish(ctx context.Context, rec *model.PublishedContent) error {
	refs, err := json.Marshal(rec.ExternalRefs)
	if err != nil {
		return err
	}
	if rec.PublishedAt.IsZero() {
		rec.PublishedAt = time.Now().UTC()
	}
	// Re-publish overwrites the previous refs for the same content item.
	q := `INSERT INTO published_content (content_id, user_id, external_refs, published_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (content_id) DO UPDATE SET
			external_refs = EXCLUDED.external_refs,
			published_at = EXCLUDED.published_at`
	_, err = r.db.ExecContext(ctx, q, rec.ContentID, rec.UserID, string(refs), rec.PublishedAt)
	return err
}

func (r *PublishedContentRepository) GetByContentID(ctx context.Context, contentID string) (*model.PublishedContent, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, content_id, user_id, external_refs, published_at
		FROM published_content WHERE content_id=$1`, contentID)
	rec := &model.PublishedContent{}
	var refsJSON string
	if err := row.Scan(&rec.ID, &rec.ContentID, &rec.UserID, &refsJSON, &rec.PublishedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	_ = json.Unmarshal([]byte(refsJSON), &rec.ExternalRefs)
	return rec, nil
}
