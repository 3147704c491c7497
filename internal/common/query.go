package common

import (
	"net/http"
	"strconv"
	"strings"
)

// QueryInt reads an integer query parameter, returning def when it is absent or malformed.
func QueryInt(r *http.Request, key string, def int) int {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

// QueryBool reports whether a query parameter is set to a true value ("1", "true", ...).
func QueryBool(r *http.Request, key string) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get(key)))
	return err == nil && parsed
}

// LimitOffset reads limit/offset paging parameters. Out of range limits fall
// back to def; negative offsets become zero.
func LimitOffset(r *http.Request, def, max int) (limit, offset int) {
	limit = QueryInt(r, "limit", def)
	if limit <= 0 || limit > max {
		limit = def
	}
	offset = QueryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
