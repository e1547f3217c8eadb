package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"spendcraft/internal/aggregate"
	"spendcraft/internal/core"
	"spendcraft/internal/storage"
)

// writeJSON serializes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP status codes and renders a
// JSON error body.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var validationErr *core.ValidationError
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrInsufficientData):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, aggregate.ErrInvalidRange):
		status = http.StatusBadRequest
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// parseRange reads optional from/to query parameters. Missing parameters
// leave the corresponding bound open.
func parseRange(r *http.Request) (from, to core.Date, err error) {
	if v := strings.TrimSpace(r.URL.Query().Get("from")); v != "" {
		from, err = core.ParseDate(v)
		if err != nil {
			return core.Date{}, core.Date{}, fmt.Errorf("from %q: %w", v, err)
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("to")); v != "" {
		to, err = core.ParseDate(v)
		if err != nil {
			return core.Date{}, core.Date{}, fmt.Errorf("to %q: %w", v, err)
		}
	}
	return from, to, nil
}

// parseFilter reads from/to/category query parameters into a storage filter.
func parseFilter(r *http.Request) (storage.Filter, error) {
	from, to, err := parseRange(r)
	if err != nil {
		return storage.Filter{}, err
	}

	var categories []string
	for _, c := range r.URL.Query()["category"] {
		if c = strings.TrimSpace(c); c != "" {
			categories = append(categories, c)
		}
	}

	return storage.Filter{From: from, To: to, Categories: categories}, nil
}

// parseGroupBy reads the group_by query parameter, defaulting to month.
func parseGroupBy(r *http.Request) (aggregate.GroupBy, error) {
	v := strings.TrimSpace(r.URL.Query().Get("group_by"))
	if v == "" {
		return aggregate.ByMonth, nil
	}
	switch g := aggregate.GroupBy(v); g {
	case aggregate.ByDay, aggregate.ByWeek, aggregate.ByMonth, aggregate.ByCategory:
		return g, nil
	}
	return "", fmt.Errorf("unknown group_by %q", v)
}

// recentRecordsProbe is a narrow filter used by the readiness check. A short
// window keeps the probe query cheap regardless of history size.
func recentRecordsProbe() storage.Filter {
	return storage.Filter{From: core.DateOf(time.Now().AddDate(0, 0, -1))}
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
