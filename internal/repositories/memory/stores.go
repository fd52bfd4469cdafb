package memory

import (
	"context"
	"strings"
	"time"

	"github.com/autoecole/enrollment-service/internal/models"
	"github.com/autoecole/enrollment-service/internal/repositories"
)

type userRepo struct{ r *MemoryRepository }

func (u *userRepo) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(user.Email)
	return u.r.write(func(s *state) error {
		if _, ok := s.users[user.ID]; ok {
			return repositories.ErrDuplicate
		}
		for _, existing := range s.users {
			if existing.Email == user.Email {
				return repositories.ErrDuplicate
			}
		}
		stamp(&user.CreatedAt, &user.UpdatedAt)
		s.users[user.ID] = *user
		s.track(user.ID)
		return nil
	})
}

func (u *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	var out *models.User
	err := u.r.read(func(s *state) error {
		user, ok := s.users[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &user
		return nil
	})
	return out, err
}

func (u *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(email)
	var out *models.User
	err := u.r.read(func(s *state) error {
		for _, user := range s.users {
			if user.Email == email {
				found := user
				out = &found
				return nil
			}
		}
		return repositories.ErrNotFound
	})
	return out, err
}

func (u *userRepo) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	out := make([]*models.User, 0, len(ids))
	err := u.r.read(func(s *state) error {
		for _, id := range ids {
			if user, ok := s.users[id]; ok {
				out = append(out, &user)
			}
		}
		return nil
	})
	return out, err
}

func (u *userRepo) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	var out []*models.User
	err := u.r.read(func(s *state) error {
		ids := make([]string, 0, len(s.users))
		for id, user := range s.users {
			if filters.Role == nil || user.Role == *filters.Role {
				ids = append(ids, id)
			}
		}
		sortByCreation(s, ids, func(id string) time.Time { return s.users[id].CreatedAt }, false)
		for _, id := range ids {
			user := s.users[id]
			out = append(out, &user)
		}
		return nil
	})
	total := int64(len(out))
	return paginate(out, filters.Limit, filters.Offset), total, err
}

func (u *userRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := u.GetByEmail(ctx, email)
	if repositories.IsNotFoundError(err) {
		return false, nil
	}
	return err == nil, err
}

func (u *userRepo) UpdateRole(ctx context.Context, id string, from, to models.UserRole) error {
	return u.r.write(func(s *state) error {
		user, ok := s.users[id]
		if !ok {
			return repositories.ErrNotFound
		}
		if user.Role != from {
			return repositories.ErrStaleWrite
		}
		user.Role = to
		user.UpdatedAt = time.Now().UTC()
		s.users[id] = user
		return nil
	})
}

type schoolRepo struct{ r *MemoryRepository }

func (sr *schoolRepo) Create(ctx context.Context, school *models.DrivingSchool) error {
	return sr.r.write(func(s *state) error {
		if _, ok := s.schools[school.ID]; ok {
			return repositories.ErrDuplicate
		}
		stamp(&school.CreatedAt, &school.UpdatedAt)
		s.schools[school.ID] = *school
		s.track(school.ID)
		return nil
	})
}

func (sr *schoolRepo) GetByID(ctx context.Context, id string) (*models.DrivingSchool, error) {
	var out *models.DrivingSchool
	err := sr.r.read(func(s *state) error {
		school, ok := s.schools[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &school
		return nil
	})
	return out, err
}

func (sr *schoolRepo) ListByManager(ctx context.Context, managerID string) ([]*models.DrivingSchool, error) {
	out := []*models.DrivingSchool{}
	err := sr.r.read(func(s *state) error {
		var ids []string
		for id, school := range s.schools {
			if school.ManagerID == managerID {
				ids = append(ids, id)
			}
		}
		sortByCreation(s, ids, func(id string) time.Time { return s.schools[id].CreatedAt }, false)
		for _, id := range ids {
			school := s.schools[id]
			out = append(out, &school)
		}
		return nil
	})
	return out, err
}

type enrollmentRepo struct{ r *MemoryRepository }

func (e *enrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	return e.r.write(func(s *state) error {
		if _, ok := s.enrollments[enrollment.ID]; ok {
			return repositories.ErrDuplicate
		}
		for _, existing := range s.enrollments {
			if existing.StudentID == enrollment.StudentID &&
				existing.SchoolID == enrollment.SchoolID &&
				existing.Status.Active() {
				return repositories.ErrDuplicate
			}
		}
		stamp(&enrollment.CreatedAt, &enrollment.UpdatedAt)
		s.enrollments[enrollment.ID] = *enrollment
		s.track(enrollment.ID)
		return nil
	})
}

func (e *enrollmentRepo) GetByID(ctx context.Context, id string) (*models.Enrollment, error) {
	var out *models.Enrollment
	err := e.r.read(func(s *state) error {
		enrollment, ok := s.enrollments[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &enrollment
		return nil
	})
	return out, err
}

// GetForUpdate needs no row lock: a transaction already holds the store lock.
func (e *enrollmentRepo) GetForUpdate(ctx context.Context, id string) (*models.Enrollment, error) {
	return e.GetByID(ctx, id)
}

func (e *enrollmentRepo) FindActive(ctx context.Context, studentID, schoolID string) (*models.Enrollment, error) {
	var out *models.Enrollment
	err := e.r.read(func(s *state) error {
		for _, enrollment := range s.enrollments {
			if enrollment.StudentID == studentID && enrollment.SchoolID == schoolID && enrollment.Status.Active() {
				found := enrollment
				out = &found
				return nil
			}
		}
		return repositories.ErrNotFound
	})
	return out, err
}

func (e *enrollmentRepo) List(ctx context.Context, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	if filters.EmptyScope() {
		return []*models.Enrollment{}, 0, nil
	}

	out := []*models.Enrollment{}
	err := e.r.read(func(s *state) error {
		var ids []string
		for id, enrollment := range s.enrollments {
			if filters.StudentID != nil && enrollment.StudentID != *filters.StudentID {
				continue
			}
			if !inScope(filters.SchoolIDs, enrollment.SchoolID) {
				continue
			}
			if len(filters.Statuses) > 0 && !containsStatus(filters.Statuses, enrollment.Status) {
				continue
			}
			ids = append(ids, id)
		}
		created := func(id string) time.Time { return s.enrollments[id].CreatedAt }
		if filters.SortBy == "updated_at" {
			created = func(id string) time.Time { return s.enrollments[id].UpdatedAt }
		}
		sortByCreation(s, ids, created, filters.SortOrder == "desc" || filters.SortOrder == "DESC")
		for _, id := range ids {
			enrollment := s.enrollments[id]
			out = append(out, &enrollment)
		}
		return nil
	})
	total := int64(len(out))
	return paginate(out, filters.Limit, filters.Offset), total, err
}

func containsStatus(statuses []models.EnrollmentStatus, status models.EnrollmentStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func (e *enrollmentRepo) UpdateStatus(ctx context.Context, id string, change repositories.StatusChange) error {
	return e.r.write(func(s *state) error {
		enrollment, ok := s.enrollments[id]
		if !ok {
			return repositories.ErrNotFound
		}
		if enrollment.Status != change.From {
			return repositories.ErrStaleWrite
		}
		at := change.At
		actor := change.Actor
		enrollment.Status = change.To
		enrollment.StatusUpdatedAt = &at
		enrollment.StatusUpdatedBy = &actor
		enrollment.UpdatedAt = at
		if change.Reason != nil {
			reason := *change.Reason
			enrollment.RefusalReason = &reason
		}
		s.enrollments[id] = enrollment
		return nil
	})
}

type documentRepo struct{ r *MemoryRepository }

func (d *documentRepo) Create(ctx context.Context, document *models.Document) error {
	return d.r.write(func(s *state) error {
		if _, ok := s.documents[document.ID]; ok {
			return repositories.ErrDuplicate
		}
		for _, existing := range s.documents {
			if existing.EnrollmentID == document.EnrollmentID &&
				existing.DocumentType == document.DocumentType &&
				existing.Revision == document.Revision {
				return repositories.ErrDuplicate
			}
		}
		stamp(&document.CreatedAt, &document.UpdatedAt)
		s.documents[document.ID] = *document
		s.track(document.ID)
		return nil
	})
}

func (d *documentRepo) GetByID(ctx context.Context, id string) (*models.Document, error) {
	var out *models.Document
	err := d.r.read(func(s *state) error {
		document, ok := s.documents[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &document
		return nil
	})
	return out, err
}

func (d *documentRepo) Snapshot(ctx context.Context, enrollmentID string) ([]models.Document, error) {
	var out []models.Document
	err := d.r.read(func(s *state) error {
		var ids []string
		for id, document := range s.documents {
			if document.EnrollmentID == enrollmentID {
				ids = append(ids, id)
			}
		}
		sortByCreation(s, ids, func(id string) time.Time { return s.documents[id].CreatedAt }, false)
		for _, id := range ids {
			out = append(out, s.documents[id])
		}
		return nil
	})
	return out, err
}

func (d *documentRepo) NextRevision(ctx context.Context, enrollmentID string, docType models.DocumentType) (int, error) {
	next := 1
	err := d.r.read(func(s *state) error {
		for _, document := range s.documents {
			if document.EnrollmentID == enrollmentID && document.DocumentType == docType && document.Revision >= next {
				next = document.Revision + 1
			}
		}
		return nil
	})
	return next, err
}

func (d *documentRepo) List(ctx context.Context, filters repositories.DocumentFilters) ([]*models.Document, int64, error) {
	if filters.EmptyScope() {
		return []*models.Document{}, 0, nil
	}

	out := []*models.Document{}
	err := d.r.read(func(s *state) error {
		var ids []string
		for id, document := range s.documents {
			if filters.StudentID != nil && document.StudentID != *filters.StudentID {
				continue
			}
			if filters.EnrollmentID != nil && document.EnrollmentID != *filters.EnrollmentID {
				continue
			}
			if filters.Status != nil && document.Status != *filters.Status {
				continue
			}
			if filters.SchoolIDs != nil {
				enrollment, ok := s.enrollments[document.EnrollmentID]
				if !ok || !inScope(filters.SchoolIDs, enrollment.SchoolID) {
					continue
				}
			}
			ids = append(ids, id)
		}
		sortByCreation(s, ids, func(id string) time.Time { return s.documents[id].CreatedAt }, false)
		for _, id := range ids {
			document := s.documents[id]
			out = append(out, &document)
		}
		return nil
	})
	total := int64(len(out))
	return paginate(out, filters.Limit, filters.Offset), total, err
}

func (d *documentRepo) Review(ctx context.Context, id string, review repositories.DocumentReview) error {
	return d.r.write(func(s *state) error {
		document, ok := s.documents[id]
		if !ok {
			return repositories.ErrNotFound
		}
		if document.Status != models.DocumentPending {
			return repositories.ErrStaleWrite
		}
		reviewer := review.ReviewedBy
		at := review.ReviewedAt
		document.Status = review.Status
		document.RefusalReason = review.Reason
		document.ReviewedBy = &reviewer
		document.ReviewedAt = &at
		document.UpdatedAt = at
		s.documents[id] = document
		return nil
	})
}

type notificationRepo struct{ r *MemoryRepository }

func (n *notificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	return n.r.write(func(s *state) error {
		if _, ok := s.notifications[notification.ID]; ok {
			return repositories.ErrDuplicate
		}
		var updated time.Time
		stamp(&notification.CreatedAt, &updated)
		s.notifications[notification.ID] = *notification
		s.track(notification.ID)
		return nil
	})
}

func (n *notificationRepo) ListByUser(ctx context.Context, userID string, filters repositories.NotificationFilters) ([]*models.Notification, int64, error) {
	out := []*models.Notification{}
	err := n.r.read(func(s *state) error {
		var ids []string
		for id, notification := range s.notifications {
			if notification.UserID != userID {
				continue
			}
			if filters.UnreadOnly && notification.ReadAt != nil {
				continue
			}
			ids = append(ids, id)
		}
		sortByCreation(s, ids, func(id string) time.Time { return s.notifications[id].CreatedAt }, true)
		for _, id := range ids {
			notification := s.notifications[id]
			out = append(out, &notification)
		}
		return nil
	})
	total := int64(len(out))
	return paginate(out, filters.Limit, filters.Offset), total, err
}

func (n *notificationRepo) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := n.r.read(func(s *state) error {
		for _, notification := range s.notifications {
			if notification.UserID == userID && notification.ReadAt == nil {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (n *notificationRepo) MarkRead(ctx context.Context, id, userID string, at time.Time) error {
	return n.r.write(func(s *state) error {
		notification, ok := s.notifications[id]
		if !ok || notification.UserID != userID {
			return repositories.ErrNotFound
		}
		notification.ReadAt = &at
		s.notifications[id] = notification
		return nil
	})
}

// stamp fills zero timestamps the way gorm's autoCreateTime does.
func stamp(created, updated *time.Time) {
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	if updated.IsZero() {
		*updated = *created
	}
}
