package out_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	out "notebook/internal/modules/resolver/adapter/out"
	"notebook/internal/modules/resolver/domain"
)

func newSearchServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "query", r.URL.Query().Get("action"))
		assert.Equal(t, "search", r.URL.Query().Get("list"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		if r.URL.Query().Get("srsearch") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWikipediaBackendFirstHit(t *testing.T) {
	t.Parallel()
	srv := newSearchServer(t, http.StatusOK, `{"batchcomplete":"","query":{"search":[{"ns":0,"title":"Rust (programming language)","pageid":42},{"ns":0,"title":"Rust","pageid":7}]}}`)
	backend := out.NewWikipediaBackend(out.WikipediaConfig{Endpoint: srv.URL, ArticleBase: "https://example.org/"})

	link, err := backend.Lookup(context.Background(), "Rust")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/?curid=42", link)
}

func TestWikipediaBackendMisses(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		status  int
		body    string
		noMatch bool
	}{
		{"empty results", http.StatusOK, `{"query":{"search":[]}}`, true},
		{"missing query", http.StatusOK, `{}`, true},
		{"server error", http.StatusInternalServerError, `oops`, false},
		{"malformed json", http.StatusOK, `{"query":`, false},
		{"zero page id", http.StatusOK, `{"query":{"search":[{"title":"x","pageid":0}]}}`, true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv := newSearchServer(t, tc.status, tc.body)
			backend := out.NewWikipediaBackend(out.WikipediaConfig{Endpoint: srv.URL})
			link, err := backend.Lookup(context.Background(), "Nonexistent-Topic-Xyz123")
			require.Error(t, err)
			assert.Empty(t, link)
			assert.Equal(t, tc.noMatch, errors.Is(err, domain.ErrNoResult))
		})
	}
}

func TestWikipediaBackendDefaults(t *testing.T) {
	t.Parallel()
	backend := out.NewWikipediaBackend(out.WikipediaConfig{})
	assert.Equal(t, "wikipedia", backend.Name())
}

func TestStaticBackend(t *testing.T) {
	t.Parallel()
	backend := out.NewStaticBackend(map[string]string{" Go ": "https://example.org/?curid=1", "Blank": " "})
	link, err := backend.Lookup(context.Background(), "Go")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/?curid=1", link)

	_, err = backend.Lookup(context.Background(), "Blank")
	assert.ErrorIs(t, err, domain.ErrNoResult)
	_, err = backend.Lookup(context.Background(), "go")
	assert.ErrorIs(t, err, domain.ErrNoResult)
}
