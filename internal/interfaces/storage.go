package interfaces

import "github.com/ternarybob/vigil/internal/models"

// ReportStorage persists generated reports. The pipeline itself stays
// stateless; archival happens in the application layer.
type ReportStorage interface {
	SaveReport(report *models.Report) error
	GetReport(id string) (*models.Report, error)
	ListReports(limit int) ([]*models.Report, error)
	DeleteReport(id string) error
	Close() error
}
