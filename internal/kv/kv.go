// Package kv provides the preferences-style key/value substrate the
// record store persists into: synchronous string get/set under a fixed
// key, nothing more. Backends differ only in where the strings live.
package kv

// Store is the full substrate contract. GetString reports absence via
// the boolean rather than an error so that "never written yet" stays
// distinguishable from an actual read failure.
type Store interface {
	GetString(key string) (value string, ok bool, err error)
	SetString(key, value string) error
	Close() error
}
