package persistence

import (
	"context"
	"database/sql"
	"time"

	"my-publisher/infrastructure/logger"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

type IStatusRepository interface {
	Check(ctx context.Context) map[string]string
}

type StatusRepository struct {
	mongoDb    *mongo.Client
	PostgresDB *sql.DB
}

func NewStatusRepository(db *mongo.Client, postgresDB *sql.DB) IStatusRepository {
	return &StatusRepository{mongoDb: db, PostgresDB: postgresDB}
}

// Check pings each backing store and reports per-component status.
// Optional components that were never configured report "disabled"
// rather than failing the whole check.
func (s *StatusRepository) Check(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	status := map[string]string{}

	if s.PostgresDB == nil {
		status["database"] = "disabled"
	} else if err := s.PostgresDB.PingContext(ctx); err != nil {
		logger.GetLogger().WithField("error", err).Error("Database ping failed")
		status["database"] = "down"
	} else {
		status["database"] = "up"
	}

	if s.mongoDb == nil {
		status["archive"] = "disabled"
	} else if err := s.mongoDb.Ping(ctx, readpref.Primary()); err != nil {
		logger.GetLogger().WithField("error", err).Error("Archive ping failed")
		status["archive"] = "down"
	} else {
		status["archive"] = "up"
	}

	return status
}
