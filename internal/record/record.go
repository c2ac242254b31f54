// Package record defines the stored user record and the flat codec
// that serializes the whole record set into a single string value.
package record

// Record is one stored entity. CreatedAt and UpdatedAt are store-assigned
// metadata in milliseconds since the epoch; callers above the store treat
// them as opaque.
type Record struct {
	ID        string
	Name      string
	Email     string
	Active    bool
	CreatedAt int64 // set at first save, never changed afterwards
	UpdatedAt int64 // refreshed on every save
}
