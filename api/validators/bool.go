package validators

import (
	"strings"

	pkgerrors "github.com/angelmondragon/orderhub-backend/pkg/errors"
)

// ParseBool accepts the usual truthy and falsy spellings (y/yes/t/true/on/1 and
// n/no/f/false/off/0), case-insensitively.
func ParseBool(field, raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "y", "yes", "t", "true", "on", "1":
		return true, nil
	case "n", "no", "f", "false", "off", "0":
		return false, nil
	}
	return false, pkgerrors.New(pkgerrors.CodeValidation, "invalid boolean value").WithDetails(map[string]any{"field": field, "value": raw})
}
