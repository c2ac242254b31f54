package record

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinel sequences delimiting the serialized form. Multi-character on
// purpose: a single ASCII delimiter would collide with legitimate field
// values far too easily.
const (
	// FieldSep joins the fields of one record, in the fixed order
	// [id, name, email, active, createdAt, updatedAt].
	FieldSep = "|~|"
	// RecordSep joins the encoded records into the stored blob.
	RecordSep = "#~#"
)

// ErrReservedSequence is returned by Encode when a field value contains
// one of the sentinel sequences. Writing such a value would corrupt the
// containing record and possibly its neighbours on the next decode, so
// the write is rejected up front.
var ErrReservedSequence = errors.New("field value contains a reserved separator sequence")

// Encode serializes the record set into a single blob. Record order is
// preserved. Boolean fields use the canonical true/false form, timestamps
// are decimal.
func Encode(records []Record) (string, error) {
	chunks := make([]string, 0, len(records))
	for _, r := range records {
		for _, v := range []string{r.ID, r.Name, r.Email} {
			if strings.Contains(v, FieldSep) || strings.Contains(v, RecordSep) {
				return "", fmt.Errorf("record %q: %w", r.ID, ErrReservedSequence)
			}
		}
		fields := []string{
			r.ID,
			r.Name,
			r.Email,
			strconv.FormatBool(r.Active),
			strconv.FormatInt(r.CreatedAt, 10),
			strconv.FormatInt(r.UpdatedAt, 10),
		}
		chunks = append(chunks, strings.Join(fields, FieldSep))
	}
	return strings.Join(chunks, RecordSep), nil
}

// Decode parses a stored blob back into records. An empty blob is an
// empty set. Malformed chunks (empty, fewer than five fields, or an
// unparseable active/createdAt field) are dropped rather than failing
// the whole read; the second return value reports how many were dropped
// so callers can surface the loss instead of masking it. A missing or
// unparseable updatedAt field defaults to now (milliseconds).
func Decode(blob string, now int64) ([]Record, int) {
	if blob == "" {
		return nil, 0
	}

	chunks := strings.Split(blob, RecordSep)
	records := make([]Record, 0, len(chunks))
	dropped := 0
	for _, chunk := range chunks {
		rec, ok := decodeChunk(chunk, now)
		if !ok {
			dropped++
			continue
		}
		records = append(records, rec)
	}
	return records, dropped
}

func decodeChunk(chunk string, now int64) (Record, bool) {
	if chunk == "" {
		return Record{}, false
	}

	fields := strings.Split(chunk, FieldSep)
	if len(fields) < 5 {
		return Record{}, false
	}

	active, err := strconv.ParseBool(fields[3])
	if err != nil {
		return Record{}, false
	}
	created, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return Record{}, false
	}

	// updatedAt was added after the first release of the format; older
	// blobs carry five fields only.
	updated := now
	if len(fields) >= 6 {
		if v, err := strconv.ParseInt(fields[5], 10, 64); err == nil {
			updated = v
		}
	}

	return Record{
		ID:        fields[0],
		Name:      fields[1],
		Email:     fields[2],
		Active:    active,
		CreatedAt: created,
		UpdatedAt: updated,
	}, true
}
