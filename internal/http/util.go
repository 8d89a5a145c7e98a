package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"owl-hotel/internal/domain"
)

const maxBodyBytes = 1 << 20

// OrganizationHeader scopes a request to one organization's hotels.
const OrganizationHeader = "X-Organization-ID"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return domain.Validationf("invalid JSON body: %v", err)
	}
	return nil
}

func organizationID(r *http.Request) string {
	if org := strings.TrimSpace(r.Header.Get(OrganizationHeader)); org != "" {
		return org
	}
	return strings.TrimSpace(r.URL.Query().Get("organization"))
}

// optionalDate parses YYYY-MM-DD; empty yields the zero time.
func optionalDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return domain.ParseDate(s)
}

func optionalDatePtr(s string) (*time.Time, error) {
	t, err := optionalDate(s)
	if err != nil || t.IsZero() {
		return nil, err
	}
	return &t, nil
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return domain.FormatDate(*t)
}
