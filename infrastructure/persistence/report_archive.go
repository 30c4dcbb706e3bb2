package persistence

import (
	"context"
	"time"

	"my-publisher/domain/model"
	"my-publisher/infrastructure/logger"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ReportArchive stores full publish reports in MongoDB so users can
// inspect per-platform error messages long after the publish ran. The
// archive is best-effort: a nil client disables it without failing
// publishes.
type ReportArchive struct {
	mongoDb *mongo.Client
}

func NewReportArchive(client *mongo.Client) *ReportArchive {
	return &ReportArchive{mongoDb: client}
}

func (a *ReportArchive) collection() *mongo.Collection {
	return a.mongoDb.Database("publisher").Collection("publish_reports")
}

func (a *ReportArchive) SaveReport(ctx context.Context, report *model.PublishReport) error {
	if a.mongoDb == nil {
		logger.GetLogger().Debug("MongoDB client is nil - skipping report archive")
		return nil
	}
	if report.CompletedAt.IsZero() {
		report.CompletedAt = time.Now().UTC()
	}
	_, err := a.collection().InsertOne(ctx, report)
	return err
}

func (a *ReportArchive) ListReports(ctx context.Context, userID string, limit int) ([]*model.PublishReport, error) {
	if a.mongoDb == nil {
		return nil, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "completedat", Value: -1}}).SetLimit(int64(limit))
	cursor, err := a.collection().Find(ctx, bson.D{{Key: "userid", Value: userID}}, opts)
	if err != nil {
		return nil, err
	}
	defer func(cursor *mongo.Cursor, ctx context.Context) {
		if err := cursor.Close(ctx); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while closing cursor")
		}
	}(cursor, ctx)

	var reports []*model.PublishReport
	for cursor.Next(ctx) {
		var report model.PublishReport
		if err := cursor.Decode(&report); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while decoding report")
			continue
		}
		reports = append(reports, &report)
	}
	return reports, cursor.Err()
}

func (a *ReportArchive) GetReport(ctx context.Context, contentID string) (*model.PublishReport, error) {
	if a.mongoDb == nil {
		return nil, nil
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "completedat", Value: -1}})
	var report model.PublishReport
	err := a.collection().FindOne(ctx, bson.D{{Key: "contentid", Value: contentID}}, opts).Decode(&report)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}
