package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDataEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Data(rec, http.StatusCreated, []int{1, 2}, map[string]any{"limit": 2})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, []any{1.0, 2.0}, body["data"])
	require.Equal(t, 2.0, body["limit"])
}

func TestWriteAppError(t *testing.T) {
	rec := httptest.NewRecorder()
	cause := errors.New("boom")
	appErr := NewAppError("LOOKUP_FAILED", "unknown seller", http.StatusUnprocessableEntity, cause).
		WithDetails(map[string]any{"key": "s9"})
	WriteAppError(rec, appErr)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body struct {
		Error ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "LOOKUP_FAILED", body.Error.Code)
	require.Equal(t, "unknown seller", body.Error.Message)
	require.ErrorIs(t, appErr, cause)
	require.Equal(t, "boom", appErr.Error())
}

func TestHashJSONStable(t *testing.T) {
	type pair struct {
		A int
		B string
	}
	first, err := HashJSON(pair{A: 1, B: "x"})
	require.NoError(t, err)
	second, err := HashJSON(pair{A: 1, B: "x"})
	require.NoError(t, err)
	other, err := HashJSON(pair{A: 2, B: "x"})
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.NotEqual(t, first, other)
	require.Len(t, first, 64)
	require.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Sha256Hex(nil))
}

func TestLimitOffset(t *testing.T) {
	cases := []struct {
		query  string
		limit  int
		offset int
	}{
		{"", 20, 0},
		{"limit=5&offset=10", 5, 10},
		{"limit=0", 20, 0},
		{"limit=500", 20, 0},
		{"limit=abc&offset=-3", 20, 0},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "/runs?"+tc.query, nil)
		limit, offset := LimitOffset(r, 20, 100)
		require.Equal(t, tc.limit, limit, tc.query)
		require.Equal(t, tc.offset, offset, tc.query)
	}
}

func TestQueryBool(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?persist=true&dry=0&odd=maybe", nil)
	require.True(t, QueryBool(r, "persist"))
	require.False(t, QueryBool(r, "dry"))
	require.False(t, QueryBool(r, "odd"))
	require.False(t, QueryBool(r, "missing"))
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:4321"
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	require.Equal(t, "10.0.0.1", ClientIP(r, false))
	require.Equal(t, "203.0.113.7", ClientIP(r, true))

	r.Header.Del("X-Forwarded-For")
	r.Header.Set("X-Real-IP", "198.51.100.2")
	require.Equal(t, "198.51.100.2", ClientIP(r, true))
}
