package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/autoecole/enrollment-service/internal/metrics"
	"github.com/autoecole/enrollment-service/internal/models"
	"github.com/autoecole/enrollment-service/internal/repositories"
	"github.com/autoecole/enrollment-service/internal/workflow"
)

// roleManager persists promotions decided by workflow.Promote. It is the
// only writer of User.Role.
type roleManager struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func newRoleManager(deps Dependencies) *roleManager {
	return &roleManager{logger: deps.Logger, metrics: deps.Metrics}
}

func (r *roleManager) OnEnrollmentApproved(ctx context.Context, repo repositories.Repository, userID string) (*models.User, error) {
	return r.promote(ctx, repo, userID, workflow.MilestoneEnrollmentApproved)
}

func (r *roleManager) OnSchoolRegistered(ctx context.Context, repo repositories.Repository, userID string) (*models.User, error) {
	return r.promote(ctx, repo, userID, workflow.MilestoneSchoolRegistered)
}

// promote is idempotent. A lost compare-and-set means another request
// promoted the user first, so the role is re-read and re-evaluated once.
func (r *roleManager) promote(ctx context.Context, repo repositories.Repository, userID string, milestone workflow.Milestone) (*models.User, error) {
	for attempt := 0; attempt < 2; attempt++ {
		user, err := getUser(ctx, repo, userID)
		if err != nil {
			return nil, err
		}

		target := workflow.Promote(user.Role, milestone)
		if target == user.Role {
			return user, nil
		}

		err = repo.User().UpdateRole(ctx, userID, user.Role, target)
		if errors.Is(err, repositories.ErrStaleWrite) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update role: %w", err)
		}

		r.metrics.IncPromotion(string(user.Role), string(target))
		r.logger.InfoContext(ctx, "User role promoted",
			"user_id", userID,
			"from", user.Role,
			"to", target,
			"milestone", milestone)
		user.Role = target
		return user, nil
	}
	return nil, fmt.Errorf("role of user %s kept changing during promotion", userID)
}
