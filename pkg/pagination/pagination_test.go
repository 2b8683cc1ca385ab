package pagination

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	tests := map[int]int{0: DefaultLimit, -4: DefaultLimit, 10: 10, 500: MaxLimit}
	for in, want := range tests {
		if got := NormalizeLimit(in); got != want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", in, got, want)
		}
	}
	if got := LimitWithBuffer(10); got != 11 {
		t.Fatalf("LimitWithBuffer(10) = %d", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	want := Cursor{CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 5, time.UTC), ID: uuid.New()}
	got, err := ParseCursor(EncodeCursor(want))
	if err != nil {
		t.Fatalf("ParseCursor: %v", err)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || got.ID != want.ID {
		t.Fatalf("cursor mismatch: got %+v want %+v", got, want)
	}

	idOnly, err := ParseCursor(EncodeCursor(Cursor{ID: want.ID}))
	if err != nil || !idOnly.CreatedAt.IsZero() {
		t.Fatalf("id-only cursor: %+v %v", idOnly, err)
	}

	empty, err := ParseCursor("  ")
	if err != nil || empty != nil {
		t.Fatalf("expected nil cursor for blank input, got %+v %v", empty, err)
	}
}

func TestParseCursorRejectsForeignInput(t *testing.T) {
	for _, in := range []string{
		"%%%",
		base64.RawURLEncoding.EncodeToString([]byte("not json")),
		base64.RawURLEncoding.EncodeToString([]byte(`{"t":"2026-01-01T00:00:00Z"}`)),
	} {
		if _, err := ParseCursor(in); !errors.Is(err, ErrInvalidCursor) {
			t.Fatalf("ParseCursor(%q) = %v, want ErrInvalidCursor", in, err)
		}
	}
}

func TestPage(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	key := func(id uuid.UUID) Cursor { return Cursor{ID: id} }

	page, next := Page(ids, 2, key)
	if len(page) != 2 || next == "" {
		t.Fatalf("expected 2 rows and a cursor, got %v %q", page, next)
	}
	c, err := ParseCursor(next)
	if err != nil || c.ID != ids[1] {
		t.Fatalf("cursor should name the last row on the page: %+v %v", c, err)
	}

	page, next = Page(ids, 5, key)
	if len(page) != 3 || next != "" {
		t.Fatalf("expected last page, got %v %q", page, next)
	}
}
