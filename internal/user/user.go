// Package user holds the domain entity and the use-case service that
// business callers talk to. The store's timestamp metadata never crosses
// into this layer.
package user

// User is the domain view of a stored record.
type User struct {
	ID     string
	Name   string
	Email  string
	Active bool
}

// Repository is the persistence boundary the service depends on. Reads
// degrade to empty results on failure, deletes to false; only Save
// surfaces an error. That asymmetry is deliberate: a failed write must
// reach the caller, a failed read shows as "no data".
type Repository interface {
	List() []User
	Get(id string) (User, bool)
	Save(u User) (User, error)
	Delete(id string) bool
}
