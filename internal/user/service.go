package user

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidUser rejects saves with missing required fields.
var ErrInvalidUser = errors.New("invalid user")

// Service implements the use cases over a Repository. Constructed
// explicitly by the composition root; it holds no global state.
type Service struct {
	repo   Repository
	logger *zap.Logger
	newID  func() string
}

// NewService wires a Service over the given repository.
func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		logger: logger,
		newID:  uuid.NewString,
	}
}

// List returns all users, empty when the underlying read fails.
func (s *Service) List() []User {
	return s.repo.List()
}

// Get looks a user up by id.
func (s *Service) Get(id string) (User, bool) {
	return s.repo.Get(id)
}

// Save validates and persists a user, assigning a fresh id when none is
// given. The returned user carries the id actually stored.
func (s *Service) Save(u User) (User, error) {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.TrimSpace(u.Email)
	if u.Name == "" {
		return User{}, fmt.Errorf("%w: name is required", ErrInvalidUser)
	}
	if u.Email == "" {
		return User{}, fmt.Errorf("%w: email is required", ErrInvalidUser)
	}
	if u.ID == "" {
		u.ID = s.newID()
		s.logger.Debug("assigned new user id", zap.String("id", u.ID))
	}
	return s.repo.Save(u)
}

// Delete removes a user by id, reporting whether anything was removed.
func (s *Service) Delete(id string) bool {
	return s.repo.Delete(id)
}
