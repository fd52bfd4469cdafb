package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/autoecole/enrollment-service/internal/events"
	"github.com/autoecole/enrollment-service/internal/models"
	"github.com/autoecole/enrollment-service/internal/repositories"
	"github.com/autoecole/enrollment-service/internal/workflow"
)

type documentService struct {
	Dependencies
	machine *stateMachine
}

func NewDocumentService(deps Dependencies) DocumentService {
	deps = deps.withDefaults()
	return &documentService{Dependencies: deps, machine: newStateMachine(deps)}
}

// ===== SUBMISSION =====

// Submit appends a pending record to the ledger. The new record supersedes
// the counted record of its type, so an enrollment waiting for approval is
// sent back to document collection in the same transaction.
func (s *documentService) Submit(ctx context.Context, studentID string, req *SubmitDocumentRequest, file FileUpload) (*models.Document, error) {
	if err := s.Validator.Validate(req); err != nil {
		return nil, validationFailed(err)
	}

	enrollment, err := s.uploadTarget(ctx, studentID, req.EnrollmentID)
	if err != nil {
		return nil, err
	}
	if err := acceptsUploads(enrollment); err != nil {
		return nil, err
	}

	ref, size, err := s.Blobs.Put(ctx, "enrollments/"+enrollment.ID, file.FileName, file.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	document := &models.Document{
		ID:           uuid.NewString(),
		StudentID:    studentID,
		EnrollmentID: enrollment.ID,
		DocumentType: req.DocumentType,
		Status:       models.DocumentPending,
		PayloadRef:   ref,
		FileName:     file.FileName,
		ContentType:  file.ContentType,
		SizeBytes:    size,
	}

	var published []events.Event
	err = s.Repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		locked, err := getEnrollment(ctx, tx, enrollment.ID, true)
		if err != nil {
			return err
		}
		if err := acceptsUploads(locked); err != nil {
			return err
		}

		revision, err := tx.Document().NextRevision(ctx, locked.ID, req.DocumentType)
		if err != nil {
			return fmt.Errorf("failed to compute revision: %w", err)
		}
		document.Revision = revision
		if err := tx.Document().Create(ctx, document); err != nil {
			return fmt.Errorf("failed to create document: %w", err)
		}

		if locked.Status == models.EnrollmentPendingApproval {
			reason := fmt.Sprintf("%s re-uploaded", req.DocumentType)
			event, err := s.machine.apply(ctx, tx, locked, workflow.TriggerReopen, studentID, &reason)
			if err != nil {
				return err
			}
			published = append(published, event)
		}
		return nil
	})
	if err != nil {
		s.Logger.WarnContext(ctx, "Document upload rolled back, payload orphaned", "payload_ref", ref, "error", err)
		return nil, err
	}

	s.Metrics.IncUpload(string(req.DocumentType))
	s.Logger.InfoContext(ctx, "Document submitted",
		"document_id", document.ID,
		"enrollment_id", document.EnrollmentID,
		"document_type", document.DocumentType,
		"revision", document.Revision)

	s.publish(ctx, published)
	return document, nil
}

// uploadTarget resolves the enrollment an upload belongs to. Without an
// explicit id it is the caller's newest enrollment still collecting or
// awaiting review.
func (s *documentService) uploadTarget(ctx context.Context, studentID, enrollmentID string) (*models.Enrollment, error) {
	if enrollmentID != "" {
		enrollment, err := getEnrollment(ctx, s.Repo, enrollmentID, false)
		if err != nil {
			return nil, err
		}
		if enrollment.StudentID != studentID {
			return nil, ErrUnauthorized
		}
		return enrollment, nil
	}

	enrollments, _, err := s.Repo.Enrollment().List(ctx, repositories.EnrollmentFilters{
		StudentID: &studentID,
		Statuses:  []models.EnrollmentStatus{models.EnrollmentPendingDocuments, models.EnrollmentPendingApproval},
		SortBy:    "created_at",
		SortOrder: "desc",
		Limit:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find enrollment: %w", err)
	}
	if len(enrollments) == 0 {
		return nil, withMessage(ErrEnrollmentNotFound, "no enrollment is collecting documents")
	}
	return enrollments[0], nil
}

func acceptsUploads(enrollment *models.Enrollment) error {
	switch {
	case enrollment.Status.Terminal():
		return withMessage(ErrTerminalState, "enrollment is %s", enrollment.Status)
	case enrollment.Status == models.EnrollmentApproved:
		return withMessage(ErrInvalidTransition, "enrollment is approved and no longer accepts documents")
	}
	return nil
}

// ===== DECISIONS =====

// Decide records a manager decision. The enrollment row is locked before the
// document is re-read, so two decisions on the same enrollment serialize and
// the completion check always sees the other's write.
func (s *documentService) Decide(ctx context.Context, managerID, documentID string, decision models.DocumentDecision, reason string) (*DecisionResult, error) {
	reason = strings.TrimSpace(reason)
	var status models.DocumentStatus
	switch decision {
	case models.DecisionAccept:
		status = models.DocumentAccepted
	case models.DecisionRefuse:
		if reason == "" {
			return nil, withMessage(ErrMissingReason, "a reason is required to refuse a document")
		}
		status = models.DocumentRefused
	default:
		return nil, withMessage(ErrValidation, "unknown decision %q", decision)
	}

	s.Logger.InfoContext(ctx, "Deciding document",
		"document_id", documentID,
		"manager_id", managerID,
		"decision", decision)

	document, err := s.getDocument(ctx, s.Repo, documentID)
	if err != nil {
		return nil, err
	}
	existing, err := getEnrollment(ctx, s.Repo, document.EnrollmentID, false)
	if err != nil {
		return nil, err
	}
	if _, err := authorizeSchool(ctx, s.Repo, managerID, existing.SchoolID); err != nil {
		return nil, err
	}

	start := time.Now()
	result := &DecisionResult{}
	var published []events.Event

	err = s.Repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		enrollment, err := getEnrollment(ctx, tx, document.EnrollmentID, true)
		if err != nil {
			return err
		}
		if enrollment.Status.Terminal() {
			return withMessage(ErrTerminalState, "enrollment is %s", enrollment.Status)
		}

		current, err := s.getDocument(ctx, tx, documentID)
		if err != nil {
			return err
		}
		if current.Decided() {
			return withMessage(ErrNotPending, "document is already %s", current.Status)
		}

		review := repositories.DocumentReview{
			Status:     status,
			ReviewedBy: managerID,
			ReviewedAt: s.Now(),
		}
		if status == models.DocumentRefused {
			review.Reason = &reason
		}
		if err := tx.Document().Review(ctx, documentID, review); err != nil {
			if errors.Is(err, repositories.ErrStaleWrite) {
				return ErrNotPending
			}
			return fmt.Errorf("failed to record decision: %w", err)
		}
		current.Status = review.Status
		current.RefusalReason = review.Reason
		current.ReviewedBy = &review.ReviewedBy
		current.ReviewedAt = &review.ReviewedAt

		eventType := events.EventDocumentAccepted
		if status == models.DocumentRefused {
			eventType = events.EventDocumentRefused
		}
		data := map[string]interface{}{
			"document_id":   current.ID,
			"document_type": string(current.DocumentType),
			"enrollment_id": enrollment.ID,
		}
		if review.Reason != nil {
			data["reason"] = *review.Reason
		}
		published = append(published, events.NewEvent(eventType, current.StudentID, data))

		snapshot, err := tx.Document().Snapshot(ctx, enrollment.ID)
		if err != nil {
			return fmt.Errorf("failed to read document ledger: %w", err)
		}
		complete := workflow.IsComplete(snapshot, models.RequiredDocumentTypes)
		if err := s.machine.verify(ctx, enrollment, snapshot); err != nil {
			return err
		}

		if status == models.DocumentAccepted && complete && enrollment.Status == models.EnrollmentPendingDocuments {
			event, err := s.machine.apply(ctx, tx, enrollment, workflow.TriggerDocumentsComplete, managerID, nil)
			if err != nil {
				return err
			}
			published = append(published, event)
		}

		result.Document = current
		result.DocumentsComplete = complete
		result.Enrollment = enrollment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.ObserveDecision(string(document.DocumentType), string(decision), time.Since(start).Seconds())
	s.publish(ctx, published)
	return result, nil
}

// ===== LISTINGS =====

func (s *documentService) ListForManager(ctx context.Context, managerID, schoolID string, status *models.DocumentStatus) ([]*models.Document, error) {
	if _, err := authorizeSchool(ctx, s.Repo, managerID, schoolID); err != nil {
		return nil, err
	}
	documents, _, err := s.Repo.Document().List(ctx, repositories.DocumentFilters{
		SchoolIDs: []string{schoolID},
		Status:    status,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return documents, nil
}

func (s *documentService) ListForStudent(ctx context.Context, studentID string) ([]*models.Document, error) {
	documents, _, err := s.Repo.Document().List(ctx, repositories.DocumentFilters{StudentID: &studentID})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return documents, nil
}

func (s *documentService) ListForEnrollment(ctx context.Context, managerID, enrollmentID string) ([]*models.Document, error) {
	enrollment, err := getEnrollment(ctx, s.Repo, enrollmentID, false)
	if err != nil {
		return nil, err
	}
	if _, err := authorizeSchool(ctx, s.Repo, managerID, enrollment.SchoolID); err != nil {
		return nil, err
	}
	documents, _, err := s.Repo.Document().List(ctx, repositories.DocumentFilters{EnrollmentID: &enrollmentID})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return documents, nil
}

func (s *documentService) getDocument(ctx context.Context, repo repositories.Repository, documentID string) (*models.Document, error) {
	document, err := repo.Document().GetByID(ctx, documentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return document, nil
}
