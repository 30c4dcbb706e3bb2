package filecsv

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"my-publisher/domain/model"
	"my-publisher/infrastructure/logger"
)

var reportHeader = []string{
	"content_id", "outcome", "started_at", "platform", "success",
	"external_post_id", "error_kind", "error_message", "posted_at",
}

// WriteReports flattens publish reports into one CSV row per platform
// attempt. Used by the report export endpoint.
func WriteReports(w io.Writer, reports []*model.PublishReport) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(reportHeader); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while writing csv header")
		return err
	}

	for _, report := range reports {
		for _, res := range report.Results {
			row := []string{
				report.ContentID,
				report.Outcome,
				report.StartedAt.Format(time.RFC3339),
				res.Platform.String(),
				strconv.FormatBool(res.Success),
				res.ExternalPostID,
				string(res.ErrorKind),
				res.ErrorMessage,
				res.PostedAt.Format(time.RFC3339),
			}
			if err := writer.Write(row); err != nil {
				logger.GetLogger().WithField("error", err).Error("Error while writing csv row")
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}
