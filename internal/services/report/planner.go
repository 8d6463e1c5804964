package report

import "github.com/ternarybob/vigil/internal/models"

// PlanBatches partitions documents into contiguous batches of batchSize,
// preserving input order. Each document's body is truncated to maxChars
// before inclusion; truncation is per document, never per batch, so every
// batch holds the same number of documents regardless of individual
// lengths. The last batch may be smaller; no batch is ever empty.
// Batch IDs are sequential starting at 1.
func PlanBatches(docs []models.Document, batchSize, maxChars int) []models.Batch {
	if len(docs) == 0 {
		return nil
	}
	if batchSize < 1 {
		batchSize = 1
	}

	batches := make([]models.Batch, 0, (len(docs)+batchSize-1)/batchSize)
	for start := 0; start < len(docs); start += batchSize {
		end := start + batchSize
		if end > len(docs) {
			end = len(docs)
		}

		batch := models.Batch{
			ID:        len(batches) + 1,
			Documents: make([]models.Document, end-start),
		}
		for i, doc := range docs[start:end] {
			doc.Body = truncateRunes(doc.Body, maxChars)
			batch.Documents[i] = doc
		}
		batches = append(batches, batch)
	}

	return batches
}
