package migrate

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateDir checks every goose SQL file in dir: YYYYMMDDHHMMSS_name.sql
// naming, unique versions, an Up section before the Down section, and
// balanced StatementBegin/StatementEnd markers.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	seen := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		if prev, ok := seen[m[1]]; ok {
			return fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name)
		}
		seen[m[1]] = name

		body, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read file %q: %w", name, err)
		}
		if err := validateAnnotations(body); err != nil {
			return fmt.Errorf("migration %q: %w", name, err)
		}
	}
	return nil
}

func validateAnnotations(body []byte) error {
	upLine, downLine, open := 0, 0, 0
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(text, "-- +goose") {
			continue
		}
		switch strings.TrimSpace(strings.TrimPrefix(text, "-- +goose")) {
		case "Up":
			if upLine == 0 {
				upLine = line
			}
		case "Down":
			if downLine == 0 {
				downLine = line
			}
		case "StatementBegin":
			if open > 0 {
				return fmt.Errorf("line %d: nested StatementBegin", line)
			}
			open++
		case "StatementEnd":
			if open == 0 {
				return fmt.Errorf("line %d: StatementEnd without StatementBegin", line)
			}
			open--
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	switch {
	case upLine == 0:
		return fmt.Errorf(`missing "-- +goose Up"`)
	case downLine == 0:
		return fmt.Errorf(`missing "-- +goose Down"`)
	case downLine < upLine:
		return fmt.Errorf("down section precedes up section")
	case open != 0:
		return fmt.Errorf("unterminated StatementBegin")
	}
	return nil
}
