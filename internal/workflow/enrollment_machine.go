package workflow

import (
	"errors"
	"fmt"

	"github.com/autoecole/enrollment-service/internal/models"
)

type Trigger string

const (
	TriggerDocumentsComplete Trigger = "documents_complete"
	TriggerApprove           Trigger = "approve"
	TriggerReject            Trigger = "reject"
	TriggerReopen            Trigger = "reopen"
	TriggerComplete          Trigger = "complete"
)

var (
	ErrTerminalState     = errors.New("enrollment is in a terminal state")
	ErrInvalidTransition = errors.New("transition not allowed from current state")
)

type transitionKey struct {
	from    models.EnrollmentStatus
	trigger Trigger
}

var transitions = map[transitionKey]models.EnrollmentStatus{
	{models.EnrollmentPendingDocuments, TriggerDocumentsComplete}: models.EnrollmentPendingApproval,
	{models.EnrollmentPendingApproval, TriggerApprove}:            models.EnrollmentApproved,
	{models.EnrollmentPendingApproval, TriggerReject}:             models.EnrollmentRejected,
	{models.EnrollmentPendingApproval, TriggerReopen}:             models.EnrollmentPendingDocuments,
	{models.EnrollmentApproved, TriggerComplete}:                  models.EnrollmentCompleted,
}

// Next returns the status reached by applying trigger to from.
func Next(from models.EnrollmentStatus, trigger Trigger) (models.EnrollmentStatus, error) {
	if from.Terminal() {
		return from, fmt.Errorf("%w: %s", ErrTerminalState, from)
	}
	to, ok := transitions[transitionKey{from, trigger}]
	if !ok {
		return from, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, trigger, from)
	}
	return to, nil
}

// CanApply is Next without the error detail.
func CanApply(from models.EnrollmentStatus, trigger Trigger) bool {
	_, err := Next(from, trigger)
	return err == nil
}
