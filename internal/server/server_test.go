package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "docs/index.html", []byte("<h1>hub</h1>"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "docs/league_42/state.json", []byte(`{"week":3}`), 0o644))

	srv := New(fsys, "docs", ":0", VersionInfo{
		Version:   "1.2.3",
		Commit:    "abc1234",
		BuildDate: "2025-09-01",
	}, zerolog.Nop())
	return srv, srv.Router()
}

func TestHealthz(t *testing.T) {
	_, router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestVersion(t *testing.T) {
	_, router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/version", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var info VersionInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	require.Equal(t, "1.2.3", info.Version)
	require.Equal(t, "abc1234", info.Commit)
}

func TestStaticDocs(t *testing.T) {
	_, router := newTestRouter(t)

	t.Run("serves published files", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/league_42/state.json", nil))
		require.Equal(t, http.StatusOK, w.Code)
		require.JSONEq(t, `{"week":3}`, w.Body.String())
	})

	t.Run("serves the index at the root", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), "hub")
	})

	t.Run("canonicalizes explicit index.html to the root", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/index.html", nil))
		require.Equal(t, http.StatusMovedPermanently, w.Code)
		require.Equal(t, "./", w.Header().Get("Location"))
	})

	t.Run("missing files 404", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope.json", nil))
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRedactQueryString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"no sensitive params", "week=3&league=42", "week=3&league=42"},
		{"token redacted", "token=supersecret", "token=%5BREDACTED%5D"},
		{"mixed case name", "Password=hunter2", "Password=%5BREDACTED%5D"},
		{"unparsable left alone", "a=%zz", "a=%zz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, redactQueryString(tt.in))
		})
	}
}
