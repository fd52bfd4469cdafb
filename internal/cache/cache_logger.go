package cache

import (
	"context"
	"log/slog"
)

// SafeDelete deletes keys and logs instead of failing.
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateManagerSchools drops the cached school list of a manager after
// they register a new school.
func InvalidateManagerSchools(ctx context.Context, cm *CacheManager, managerID string) {
	SafeDelete(ctx, cm.ManagerSchools, managerID)
}
