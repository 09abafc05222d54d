// Package repositorytest provides in-memory repositories for tests.
package repositorytest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/fluxo-portal/internal/domain"
	"github.com/spec-kit/fluxo-portal/internal/repository"
)

// Users is an in-memory repository.UserRepository.
type Users struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

var _ repository.UserRepository = (*Users)(nil)

func NewUsers() *Users {
	return &Users{users: map[string]*domain.User{}}
}

func (r *Users) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrDuplicateEmail
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

// GetByID looks a user up by id. It backs the owner join and test assertions.
func (r *Users) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *Users) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// Len reports how many users are stored.
func (r *Users) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

// Requests is an in-memory repository.RequestRepository. Each Create
// advances a fake clock by a minute so listing order is deterministic.
type Requests struct {
	mu       sync.Mutex
	users    *Users
	requests map[string]*domain.Request
	clock    time.Time
	updates  int
	listErr  error
}

var _ repository.RequestRepository = (*Requests)(nil)

// NewRequests returns an empty store. users, when set, resolves owners for
// listings that ask for them.
func NewRequests(users *Users) *Requests {
	return &Requests{
		users:    users,
		requests: map[string]*domain.Request{},
		clock:    time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (r *Requests) Create(_ context.Context, request *domain.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock = r.clock.Add(time.Minute)
	request.ID = uuid.NewString()
	request.CreatedAt = r.clock
	request.UpdatedAt = r.clock
	stored := *request
	r.requests[request.ID] = &stored
	return nil
}

func (r *Requests) GetByID(_ context.Context, id string) (*domain.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *request
	return &copied, nil
}

func (r *Requests) UpdateStatus(_ context.Context, id string, status domain.RequestStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.requests[id]
	if !ok {
		return pgx.ErrNoRows
	}
	r.updates++
	request.Status = status
	request.UpdatedAt = request.UpdatedAt.Add(time.Second)
	return nil
}

func (r *Requests) List(ctx context.Context, filter repository.RequestFilter) ([]domain.Request, error) {
	r.mu.Lock()
	if r.listErr != nil {
		err := r.listErr
		r.mu.Unlock()
		return nil, err
	}
	result := []domain.Request{}
	for _, request := range r.requests {
		if filter.OwnerID != nil && (request.OwnerID == nil || *request.OwnerID != *filter.OwnerID) {
			continue
		}
		result = append(result, *request)
	}
	r.mu.Unlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	if filter.WithOwner && r.users != nil {
		for i := range result {
			if result[i].OwnerID == nil {
				continue
			}
			if owner, err := r.users.GetByID(ctx, *result[i].OwnerID); err == nil {
				result[i].Owner = &domain.RequestOwner{Name: owner.Name, Email: owner.Email}
			}
		}
	}
	return result, nil
}

// Seed stores request as given, bypassing any service rule, and returns its id.
func (r *Requests) Seed(request domain.Request) string {
	_ = r.Create(context.Background(), &request)
	return request.ID
}

// FailList makes List return err until it is called again with nil.
func (r *Requests) FailList(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listErr = err
}

// Len reports how many requests are stored.
func (r *Requests) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

// StatusUpdates reports how many UpdateStatus calls reached a stored request.
func (r *Requests) StatusUpdates() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updates
}
