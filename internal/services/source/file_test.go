package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/models"
)

func TestFetchDocuments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "documents.json")
	content := `[
		{"id": "a", "title": "First post", "body": "Body text", "author": "alice", "source": "rss", "engagement_score": 12.5, "sentiment": "positive"},
		{"id": "b", "title": "Second post", "body": "More text", "source": "reddit"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	fileSource := NewFileSource(path, arbor.NewLogger())

	docs, err := fileSource.FetchDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, models.SentimentPositive, docs[0].Sentiment)
	assert.Equal(t, 12.5, docs[0].EngagementScore)
	assert.Equal(t, models.SentimentUnknown, docs[1].Label())
}

func TestFetchDocumentsMissingFile(t *testing.T) {
	fileSource := NewFileSource("/nonexistent/documents.json", arbor.NewLogger())

	_, err := fileSource.FetchDocuments(context.Background())
	assert.Error(t, err)
}

func TestFetchDocumentsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "documents.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	fileSource := NewFileSource(path, arbor.NewLogger())

	_, err := fileSource.FetchDocuments(context.Background())
	assert.Error(t, err)
}

func TestFetchDocumentsRereadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "documents.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": "a"}]`), 0644))

	fileSource := NewFileSource(path, arbor.NewLogger())

	docs, err := fileSource.FetchDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)

	require.NoError(t, os.WriteFile(path, []byte(`[{"id": "a"}, {"id": "b"}]`), 0644))

	docs, err = fileSource.FetchDocuments(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestFetchDocumentsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fileSource := NewFileSource("documents.json", arbor.NewLogger())
	_, err := fileSource.FetchDocuments(ctx)
	assert.Error(t, err)
}
