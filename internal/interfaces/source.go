package interfaces

import (
	"context"

	"github.com/ternarybob/vigil/internal/models"
)

// DocumentSource supplies the documents for one report run. Collectors
// (RSS, Reddit, YouTube, Telegram) live behind this interface.
type DocumentSource interface {
	FetchDocuments(ctx context.Context) ([]models.Document, error)
}

// ReportGenerator produces one report from a document set. Implemented by
// the summarization pipeline.
type ReportGenerator interface {
	GenerateReport(ctx context.Context, docs []models.Document, runContext string) (*models.Report, error)
}
