package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"my-publisher/domain/model"
)

// PublishedContentRepositoryMSSQL is the SQL Server twin of the
// PostgreSQL published-content repository.
type PublishedContentRepositoryMSSQL struct{ db *sql.DB }

func NewPublishedContentRepositoryMSSQL(db *sql.DB) *PublishedContentRepositoryMSSQL {
	return &PublishedContentRepositoryMSSQL{db}
}

func (r *PublishedContentRepositoryMSSQL) RecordPublish(ctx context.Context, rec *model.PublishedContent) error {
	refs, err := json.Marshal(rec.ExternalRefs)
	if err != nil {
		return err
	}
	if rec.PublishedAt.IsZero() {
		rec.PublishedAt = time.Now().UTC()
	}
	// MERGE keyed on content_id, mirroring the PostgreSQL ON CONFLICT
	// upsert: a re-publish overwrites the previous refs.
	q := `MERGE dbo.[published_content] AS target
		USING (SELECT @p1 AS content_id) AS src
		ON target.content_id = src.content_id
		WHEN MATCHED THEN UPDATE SET
			external_refs = @p3, published_at = @p4
		WHEN NOT MATCHED THEN INSERT (content_id, user_id, external_refs, published_at)
			VALUES (@p1, @p2, @p3, @p4);`
	_, err = r.db.ExecContext(ctx, q, rec.ContentID, rec.UserID, string(refs), rec.PublishedAt)
	return err
}

func (r *PublishedContentRepositoryMSSQL) GetByContentID(ctx context.Context, contentID string) (*model.PublishedContent, error) {
	row := r.db.QueryRowContext(ctx, `SELECT TOP 1 id, content_id, user_id, external_refs, published_at
		FROM dbo.[published_content] WHERE content_id = @p1`, contentID)
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
