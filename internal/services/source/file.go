package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
)

// FileSource reads a document collection from a JSON file. Collectors
// export their results in this format; the pipeline consumes it without
// caring which collector produced it.
type FileSource struct {
	path   string
	logger arbor.ILogger
}

var _ interfaces.DocumentSource = (*FileSource)(nil)

// NewFileSource creates a file-backed document source
func NewFileSource(path string, logger arbor.ILogger) *FileSource {
	return &FileSource{
		path:   path,
		logger: logger,
	}
}

// FetchDocuments reads and decodes the document file. The file is re-read
// on every call so scheduled runs pick up fresh collector output.
func (s *FileSource) FetchDocuments(ctx context.Context) ([]models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document file %s: %w", s.path, err)
	}

	var docs []models.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to parse document file %s: %w", s.path, err)
	}

	s.logger.Debug().
		Str("path", s.path).
		Int("documents", len(docs)).
		Msg("Loaded documents from file")

	return docs, nil
}
