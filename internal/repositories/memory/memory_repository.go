// Package memory is an in-process implementation of repositories.Repository
// used by tests and by STORAGE_DRIVER=memory. Transactions are serialized by
// a single lock and rolled back by restoring a copy of the state taken when
// the transaction began.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/autoecole/enrollment-service/internal/models"
	"github.com/autoecole/enrollment-service/internal/repositories"
)

type state struct {
	users         map[string]models.User
	schools       map[string]models.DrivingSchool
	enrollments   map[string]models.Enrollment
	documents     map[string]models.Document
	notifications map[string]models.Notification

	// insertion order, used to break created_at ties deterministically
	order map[string]int64
	seq   int64
}

func newState() *state {
	return &state{
		users:         make(map[string]models.User),
		schools:       make(map[string]models.DrivingSchool),
		enrollments:   make(map[string]models.Enrollment),
		documents:     make(map[string]models.Document),
		notifications: make(map[string]models.Notification),
		order:         make(map[string]int64),
	}
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *state) clone() *state {
	return &state{
		users:         cloneMap(s.users),
		schools:       cloneMap(s.schools),
		enrollments:   cloneMap(s.enrollments),
		documents:     cloneMap(s.documents),
		notifications: cloneMap(s.notifications),
		order:         cloneMap(s.order),
		seq:           s.seq,
	}
}

func (s *state) track(id string) {
	s.seq++
	s.order[id] = s.seq
}

type store struct {
	mu   sync.RWMutex
	data *state
}

// MemoryRepository implements repositories.Repository over maps.
type MemoryRepository struct {
	st   *store
	inTx bool
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{st: &store{data: newState()}}
}

func (r *MemoryRepository) read(fn func(s *state) error) error {
	if r.inTx {
		return fn(r.st.data)
	}
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	return fn(r.st.data)
}

func (r *MemoryRepository) write(fn func(s *state) error) error {
	if r.inTx {
		return fn(r.st.data)
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return fn(r.st.data)
}

func (r *MemoryRepository) User() repositories.UserRepository {
	return &userRepo{r}
}

func (r *MemoryRepository) School() repositories.SchoolRepository {
	return &schoolRepo{r}
}

func (r *MemoryRepository) Enrollment() repositories.EnrollmentRepository {
	return &enrollmentRepo{r}
}

func (r *MemoryRepository) Document() repositories.DocumentRepository {
	return &documentRepo{r}
}

func (r *MemoryRepository) Notification() repositories.NotificationRepository {
	return &notificationRepo{r}
}

// WithTransaction holds the store lock for the whole callback, which makes
// every transaction serializable. Nested calls join the outer transaction.
func (r *MemoryRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) (err error) {
	if r.inTx {
		return fn(r)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	saved := r.st.data.clone()
	committed := false
	defer func() {
		if !committed {
			r.st.data = saved
		}
	}()

	if err := fn(&MemoryRepository{st: r.st, inTx: true}); err != nil {
		return err
	}
	committed = true
	return nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *MemoryRepository) Close() error {
	return nil
}

// sortByCreation orders ids by created time then insertion order.
func sortByCreation(s *state, ids []string, created func(id string) time.Time, desc bool) {
	sort.SliceStable(ids, func(i, j int) bool {
		ci, cj := created(ids[i]), created(ids[j])
		if !ci.Equal(cj) {
			if desc {
				return ci.After(cj)
			}
			return ci.Before(cj)
		}
		if desc {
			return s.order[ids[i]] > s.order[ids[j]]
		}
		return s.order[ids[i]] < s.order[ids[j]]
	})
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func inScope(ids []string, id string) bool {
	return ids == nil || slices.Contains(ids, id)
}

// RepositoryManager adapts MemoryRepository to the manager lifecycle.
type RepositoryManager struct {
	repo *MemoryRepository
}

func NewRepositoryManager() repositories.RepositoryManager {
	return &RepositoryManager{}
}

func (rm *RepositoryManager) Initialize() error {
	rm.repo = NewMemoryRepository()
	return nil
}

func (rm *RepositoryManager) GetRepository() repositories.Repository {
	return rm.repo
}

func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	return rm.repo.Ping(ctx)
}

func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	return nil
}
