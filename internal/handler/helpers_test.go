package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sakif/geniuspost/internal/auth"
	"github.com/sakif/geniuspost/internal/model"
	"github.com/sakif/geniuspost/internal/repository/sqldb"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// newTestDB opens an in-memory database with one user, "sub-1".
func newTestDB(t *testing.T) *sqldb.DB {
	t.Helper()
	db, err := sqldb.New("sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.FindOrCreate(context.Background(), &model.User{ID: "sub-1", Name: "Ada Lovelace", Email: "ada@example.com"})
	require.NoError(t, err)
	return db
}

// jsonRequest builds a POST with a JSON body, optionally as a logged-in user.
func jsonRequest(t *testing.T, path string, body any, userID string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req = req.WithContext(auth.WithUserID(req.Context(), userID))
	}
	return req
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out), "body: %s", rr.Body.String())
	return out
}
