package record

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	records := []Record{
		{ID: "user_1", Name: "Alice Johnson", Email: "alice@example.com", Active: true, CreatedAt: 1700000000000, UpdatedAt: 1700000001000},
		{ID: "user_2", Name: "Bob Smith", Email: "bob@example.com", Active: false, CreatedAt: 1700000002000, UpdatedAt: 1700000003000},
		{ID: "user_3", Name: "", Email: "", Active: true, CreatedAt: 0, UpdatedAt: -5},
	}

	blob, err := Encode(records)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, dropped := Decode(blob, 42)
	if dropped != 0 {
		t.Errorf("Decode dropped %d chunks, want 0", dropped)
	}
	if diff := cmp.Diff(records, decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeEmptyBlob(t *testing.T) {
	records, dropped := Decode("", 42)
	if len(records) != 0 {
		t.Errorf("expected empty record set, got %d records", len(records))
	}
	if dropped != 0 {
		t.Errorf("expected 0 dropped, got %d", dropped)
	}
}

func TestDecodeMalformedChunks(t *testing.T) {
	valid := strings.Join([]string{"user_1", "Alice", "alice@example.com", "true", "1700000000000", "1700000001000"}, FieldSep)

	tests := []struct {
		name        string
		chunk       string
		wantRecords int
		wantDropped int
	}{
		{
			name:        "empty chunk",
			chunk:       "",
			wantRecords: 1,
			wantDropped: 1,
		},
		{
			name:        "too few fields",
			chunk:       strings.Join([]string{"user_x", "X", "x@example.com", "true"}, FieldSep),
			wantRecords: 1,
			wantDropped: 1,
		},
		{
			name:        "bad active flag",
			chunk:       strings.Join([]string{"user_x", "X", "x@example.com", "maybe", "1700000000000"}, FieldSep),
			wantRecords: 1,
			wantDropped: 1,
		},
		{
			name:        "bad createdAt",
			chunk:       strings.Join([]string{"user_x", "X", "x@example.com", "true", "not-a-number"}, FieldSep),
			wantRecords: 1,
			wantDropped: 1,
		},
		{
			name:        "well formed",
			chunk:       strings.Join([]string{"user_x", "X", "x@example.com", "true", "1700000000000"}, FieldSep),
			wantRecords: 2,
			wantDropped: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob := valid + RecordSep + tt.chunk
			records, dropped := Decode(blob, 42)
			if len(records) != tt.wantRecords {
				t.Errorf("got %d records, want %d", len(records), tt.wantRecords)
			}
			if dropped != tt.wantDropped {
				t.Errorf("got %d dropped, want %d", dropped, tt.wantDropped)
			}
			if len(records) > 0 && records[0].ID != "user_1" {
				t.Errorf("well-formed record lost: first id = %q", records[0].ID)
			}
		})
	}
}

func TestDecodeMissingUpdatedAtDefaultsToNow(t *testing.T) {
	const now = int64(1800000000000)

	fiveFields := strings.Join([]string{"user_1", "Alice", "alice@example.com", "true", "1700000000000"}, FieldSep)
	records, dropped := Decode(fiveFields, now)
	if dropped != 0 {
		t.Fatalf("dropped %d chunks, want 0", dropped)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].UpdatedAt != now {
		t.Errorf("UpdatedAt = %d, want %d", records[0].UpdatedAt, now)
	}

	badSixth := fiveFields + FieldSep + "garbage"
	records, _ = Decode(badSixth, now)
	if len(records) != 1 || records[0].UpdatedAt != now {
		t.Errorf("unparseable updatedAt should default to now, got %+v", records)
	}
}

func TestDecodeIgnoresTrailingFields(t *testing.T) {
	chunk := strings.Join([]string{"user_1", "Alice", "alice@example.com", "true", "100", "200", "extra", "extra2"}, FieldSep)
	records, dropped := Decode(chunk, 42)
	if dropped != 0 || len(records) != 1 {
		t.Fatalf("got %d records, %d dropped", len(records), dropped)
	}
	if records[0].UpdatedAt != 200 {
		t.Errorf("UpdatedAt = %d, want 200", records[0].UpdatedAt)
	}
}

func TestEncodeRejectsReservedSequences(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
	}{
		{"field separator in name", Record{ID: "u1", Name: "Ali" + FieldSep + "ce", Email: "a@example.com"}},
		{"record separator in email", Record{ID: "u1", Name: "Alice", Email: "a@" + RecordSep + ".com"}},
		{"separator in id", Record{ID: "u" + FieldSep + "1", Name: "Alice", Email: "a@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode([]Record{tt.rec})
			if !errors.Is(err, ErrReservedSequence) {
				t.Errorf("Encode error = %v, want ErrReservedSequence", err)
			}
		})
	}
}

func TestEncodeEmptySet(t *testing.T) {
	blob, err := Encode(nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if blob != "" {
		t.Errorf("empty set should encode to empty blob, got %q", blob)
	}
}
