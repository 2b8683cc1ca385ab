// Package pagination implements keyset paging: lists are ordered by a stable
// key and a page ends with an opaque cursor naming its last row.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

// ErrInvalidCursor is returned for cursors this package did not produce.
var ErrInvalidCursor = errors.New("invalid cursor")

// Params holds the paging inputs of a list request.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor is the key of the last row of a page. CreatedAt is zero for lists
// ordered by id alone.
type Cursor struct {
	CreatedAt time.Time `json:"t,omitzero"`
	ID        uuid.UUID `json:"id"`
}

// NormalizeLimit clamps limit into [1, MaxLimit], defaulting non-positive values.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}

// LimitWithBuffer fetches one row past the page to learn whether another follows.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// EncodeCursor renders c as URL-safe text.
func EncodeCursor(c Cursor) string {
	c.CreatedAt = c.CreatedAt.UTC()
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// ParseCursor decodes a cursor. Blank input means the first page and yields nil.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil || c.ID == uuid.Nil {
		return nil, ErrInvalidCursor
	}
	return &c, nil
}

// Trim drops the lookahead row fetched with LimitWithBuffer and reports whether
// another page exists.
func Trim[T any](rows []T, limit int) ([]T, bool) {
	n := NormalizeLimit(limit)
	if len(rows) > n {
		return rows[:n], true
	}
	return rows, false
}

// Page trims rows and returns the cursor of the following page, or "" on the
// last page.
func Page[T any](rows []T, limit int, key func(T) Cursor) ([]T, string) {
	rows, more := Trim(rows, limit)
	if !more || len(rows) == 0 {
		return rows, ""
	}
	return rows, EncodeCursor(key(rows[len(rows)-1]))
}

// Newest scopes a query to rows after c in created_at DESC, id DESC order and
// applies that order with the lookahead limit.
func Newest(table string, c *Cursor, limit int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if c != nil {
			db = db.Where("("+table+".created_at < ?) OR ("+table+".created_at = ? AND "+table+".id < ?)", c.CreatedAt, c.CreatedAt, c.ID)
		}
		return db.Order(table + ".created_at DESC").Order(table + ".id DESC").Limit(LimitWithBuffer(limit))
	}
}

// ByID scopes a query to rows after c in id ASC order with the lookahead limit.
func ByID(table string, c *Cursor, limit int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if c != nil {
			db = db.Where(table+".id > ?", c.ID)
		}
		return db.Order(table + ".id ASC").Limit(LimitWithBuffer(limit))
	}
}
