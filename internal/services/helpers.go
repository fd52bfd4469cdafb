package services

import (
	"strings"

	"github.com/autoecole/enrollment-service/internal/models"
)

func humanize(value string) string {
	return strings.ReplaceAll(value, "_", " ")
}

func joinDocumentTypes(types []models.DocumentType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}
