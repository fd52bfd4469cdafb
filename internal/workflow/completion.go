// Package workflow holds the pure rules of the enrollment lifecycle: which
// document counts for each type, when an enrollment's requirement is
// satisfied, which status transitions exist and how roles are promoted.
// Nothing here touches storage; callers pass snapshots read inside their own
// transaction.
package workflow

import "github.com/autoecole/enrollment-service/internal/models"

// Counted returns, for each document type present in docs, the record that
// counts toward completion: the one with the highest revision. Creation time
// breaks ties between records that were written without a revision.
func Counted(docs []models.Document) map[models.DocumentType]models.Document {
	counted := make(map[models.DocumentType]models.Document, len(docs))
	for _, doc := range docs {
		current, ok := counted[doc.DocumentType]
		if !ok || newer(doc, current) {
			counted[doc.DocumentType] = doc
		}
	}
	return counted
}

func newer(a, b models.Document) bool {
	if a.Revision != b.Revision {
		return a.Revision > b.Revision
	}
	return a.CreatedAt.After(b.CreatedAt)
}

// IsComplete reports whether every required type has its counted record
// accepted. A required type with no record at all is incomplete.
func IsComplete(docs []models.Document, required []models.DocumentType) bool {
	return len(Missing(docs, required)) == 0
}

// Missing lists the required types whose counted record is absent or not
// accepted, in the order of required.
func Missing(docs []models.Document, required []models.DocumentType) []models.DocumentType {
	counted := Counted(docs)
	var missing []models.DocumentType
	for _, docType := range required {
		doc, ok := counted[docType]
		if !ok || doc.Status != models.DocumentAccepted {
			missing = append(missing, docType)
		}
	}
	return missing
}
