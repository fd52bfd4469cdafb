package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/autoecole/enrollment-service/internal/events"
	"github.com/autoecole/enrollment-service/internal/metrics"
	"github.com/autoecole/enrollment-service/internal/models"
	"github.com/autoecole/enrollment-service/internal/repositories"
	"github.com/autoecole/enrollment-service/internal/workflow"
)

// stateMachine is the only writer of enrollment status. Callers hold the
// enrollment row lock (GetForUpdate) in the repository they pass in.
type stateMachine struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func newStateMachine(deps Dependencies) *stateMachine {
	return &stateMachine{logger: deps.Logger, metrics: deps.Metrics, now: deps.Now}
}

var transitionEvents = map[models.EnrollmentStatus]events.EventType{
	models.EnrollmentPendingApproval:  events.EventDocumentsComplete,
	models.EnrollmentPendingDocuments: events.EventEnrollmentReopened,
	models.EnrollmentApproved:         events.EventEnrollmentApproved,
	models.EnrollmentRejected:         events.EventEnrollmentRejected,
	models.EnrollmentCompleted:        events.EventEnrollmentCompleted,
}

// apply moves enrollment along trigger, updating it in place, and returns the
// event to publish once the surrounding transaction commits. reason is kept
// on the enrollment only for a rejection; otherwise it just rides the event.
func (m *stateMachine) apply(ctx context.Context, repo repositories.Repository, enrollment *models.Enrollment, trigger workflow.Trigger, actor string, reason *string) (events.Event, error) {
	from := enrollment.Status
	to, err := workflow.Next(from, trigger)
	if err != nil {
		return events.Event{}, transitionError(err, from, trigger)
	}

	if to.RequiresCompleteDocuments() {
		snapshot, err := repo.Document().Snapshot(ctx, enrollment.ID)
		if err != nil {
			return events.Event{}, fmt.Errorf("failed to read document ledger: %w", err)
		}
		if !workflow.IsComplete(snapshot, models.RequiredDocumentTypes) {
			if from.RequiresCompleteDocuments() {
				return events.Event{}, m.inconsistent(ctx, enrollment, snapshot)
			}
			return events.Event{}, withMessage(ErrInvalidTransition, "required documents are not all accepted")
		}
	}

	at := m.now()
	change := repositories.StatusChange{From: from, To: to, Actor: actor, At: at}
	if trigger == workflow.TriggerReject {
		change.Reason = reason
	}
	err = repo.Enrollment().UpdateStatus(ctx, enrollment.ID, change)
	if err != nil {
		if errors.Is(err, repositories.ErrStaleWrite) {
			return events.Event{}, withMessage(ErrInvalidTransition, "enrollment status changed concurrently")
		}
		return events.Event{}, fmt.Errorf("failed to update enrollment status: %w", err)
	}

	enrollment.Status = to
	enrollment.StatusUpdatedAt = &at
	enrollment.StatusUpdatedBy = &actor
	enrollment.UpdatedAt = at
	if change.Reason != nil {
		enrollment.RefusalReason = change.Reason
	}

	m.metrics.IncTransition(string(from), string(to))
	m.logger.InfoContext(ctx, "Enrollment status changed",
		"enrollment_id", enrollment.ID,
		"from", from,
		"to", to,
		"trigger", trigger,
		"actor", actor)

	data := map[string]interface{}{
		"enrollment_id": enrollment.ID,
		"school_id":     enrollment.SchoolID,
		"from":          string(from),
		"to":            string(to),
	}
	if reason != nil {
		data["reason"] = *reason
	}
	return events.NewEvent(transitionEvents[to], enrollment.StudentID, data), nil
}

// verify fails with ErrInconsistentState when a status past document
// collection is stored for an enrollment whose ledger is incomplete.
func (m *stateMachine) verify(ctx context.Context, enrollment *models.Enrollment, snapshot []models.Document) error {
	if enrollment.Status.RequiresCompleteDocuments() && !workflow.IsComplete(snapshot, models.RequiredDocumentTypes) {
		return m.inconsistent(ctx, enrollment, snapshot)
	}
	return nil
}

// inconsistent reports a stored state that should be unreachable. It is
// never corrected here; the reconcile tool owns repairs.
func (m *stateMachine) inconsistent(ctx context.Context, enrollment *models.Enrollment, snapshot []models.Document) error {
	m.metrics.IncViolation("incomplete_past_collection")
	m.logger.ErrorContext(ctx, "Enrollment status disagrees with document ledger",
		"fatal", true,
		"enrollment_id", enrollment.ID,
		"status", enrollment.Status,
		"missing", workflow.Missing(snapshot, models.RequiredDocumentTypes))
	return withMessage(ErrInconsistentState, "enrollment %s is %s but its documents are incomplete", enrollment.ID, enrollment.Status)
}

func transitionError(err error, from models.EnrollmentStatus, trigger workflow.Trigger) error {
	switch {
	case errors.Is(err, workflow.ErrTerminalState):
		return withMessage(ErrTerminalState, "enrollment is %s", from)
	case errors.Is(err, workflow.ErrInvalidTransition):
		return withMessage(ErrInvalidTransition, "cannot %s an enrollment that is %s", trigger, from)
	}
	return err
}
