package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/saastools-backend/pkg/errors"
)

// IntRange bounds a numeric query parameter.
type IntRange struct {
	Default int
	Min     int
	Max     int
}

// QueryInt reads key from the query string. An absent key yields the default;
// non-numeric or out-of-range values are validation errors.
func QueryInt(r *http.Request, key string, bounds IntRange) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return bounds.Default, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" must be a whole number").
			WithDetails(map[string]any{key: "must be numeric"})
	}
	if value < bounds.Min || value > bounds.Max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" is out of range").
			WithDetails(map[string]any{key: "out of range", "min": bounds.Min, "max": bounds.Max})
	}
	return value, nil
}

// QueryString returns the sanitized value of key, capped at maxLen runes.
func QueryString(r *http.Request, key string, maxLen int) string {
	return SanitizeString(r.URL.Query().Get(key), maxLen)
}
