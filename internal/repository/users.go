// Package repository bridges the domain layer to the record store,
// mapping records to users and converting store failures into the
// read-soft/write-loud contract the domain expects.
package repository

import (
	"fmt"

	"go.uber.org/zap"

	"roster/internal/record"
	"roster/internal/store"
	"roster/internal/user"
)

// Users adapts a RecordStore to the user.Repository interface.
type Users struct {
	store  *store.RecordStore
	logger *zap.Logger
}

// NewUsers wires the repository over a record store.
func NewUsers(st *store.RecordStore, logger *zap.Logger) *Users {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Users{store: st, logger: logger}
}

// List returns all stored users. A store failure yields an empty slice;
// readers see "no data", never an error.
func (r *Users) List() []user.User {
	records, err := r.store.ListAll()
	if err != nil {
		r.logger.Warn("list failed, returning empty result", zap.Error(err))
		return []user.User{}
	}
	users := make([]user.User, 0, len(records))
	for _, rec := range records {
		users = append(users, toUser(rec))
	}
	return users
}

// Get looks a user up by id. Store failures read as absence.
func (r *Users) Get(id string) (user.User, bool) {
	rec, ok, err := r.store.GetByID(id)
	if err != nil {
		r.logger.Warn("get failed, reporting absent", zap.String("id", id), zap.Error(err))
		return user.User{}, false
	}
	if !ok {
		return user.User{}, false
	}
	return toUser(rec), true
}

// Save upserts the user. Unlike the read paths, a failure here is
// returned to the caller: a lost write must not look like success.
func (r *Users) Save(u user.User) (user.User, error) {
	stored, err := r.store.Upsert(record.Record{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Active: u.Active,
	})
	if err != nil {
		return user.User{}, fmt.Errorf("failed to save user %q: %w", u.ID, err)
	}
	return toUser(stored), nil
}

// Delete removes the user by id. Store failures read as "nothing
// removed".
func (r *Users) Delete(id string) bool {
	removed, err := r.store.DeleteByID(id)
	if err != nil {
		r.logger.Warn("delete failed, reporting no removal", zap.String("id", id), zap.Error(err))
		return false
	}
	return removed
}

func toUser(rec record.Record) user.User {
	return user.User{
		ID:     rec.ID,
		Name:   rec.Name,
		Email:  rec.Email,
		Active: rec.Active,
	}
}
