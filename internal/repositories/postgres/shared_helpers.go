package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/autoecole/enrollment-service/internal/repositories"
)

// translateError maps gorm errors onto the store-independent sentinels so
// services never import gorm to classify a failure.
func translateError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, repositories.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", what, repositories.ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

// applyPaginationAndSort applies pagination and sorting with a whitelist of
// sortable columns.
func applyPaginationAndSort(query *gorm.DB, table, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	allowedSortColumns := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"status":     true,
	}
	if !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}
	if sortOrder != "desc" && sortOrder != "DESC" {
		sortOrder = "ASC"
	} else {
		sortOrder = "DESC"
	}

	query = query.Order(table + "." + sortBy + " " + sortOrder).Order(table + ".id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}
