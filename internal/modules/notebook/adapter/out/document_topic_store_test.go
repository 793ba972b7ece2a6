package out_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	out "notebook/internal/modules/notebook/adapter/out"
	"notebook/internal/modules/notebook/domain"
	notebookout "notebook/internal/modules/notebook/port/out"
	apperrors "notebook/internal/platform/errors"
	"notebook/internal/platform/clock"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var _ clock.Clock = fixedClock{}

type storeFactory struct {
	name    string
	file    string
	corrupt []byte
	open    func(path string, policy domain.UpsertPolicy) (notebookout.TopicStore, error)
}

func storeFactories() []storeFactory {
	return []storeFactory{
		{
			name:    "xml",
			file:    "db.xml",
			corrupt: []byte("<data><topic name="),
			open: func(path string, policy domain.UpsertPolicy) (notebookout.TopicStore, error) {
				return out.NewXMLTopicStore(path, policy, nil)
			},
		},
		{
			name:    "yaml",
			file:    "db.yaml",
			corrupt: []byte("topics: [unterminated"),
			open: func(path string, policy domain.UpsertPolicy) (notebookout.TopicStore, error) {
				return out.NewYAMLTopicStore(path, policy, nil)
			},
		},
		{
			name:    "sqlite",
			file:    "notebook.db",
			corrupt: []byte(strings.Repeat("not a database ", 256)),
			open: func(path string, policy domain.UpsertPolicy) (notebookout.TopicStore, error) {
				return out.NewSQLiteTopicStore(path, policy, fixedClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}, nil)
			},
		},
	}
}

func openStore(t *testing.T, f storeFactory, path string, policy domain.UpsertPolicy) notebookout.TopicStore {
	t.Helper()
	store, err := f.open(path, policy)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestTopicStoreInitializeCreatesEmptyStore(t *testing.T) {
	t.Parallel()
	for _, f := range storeFactories() {
		f := f
		t.Run(f.name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "nested", f.file)
			store := openStore(t, f, path, domain.PolicyOverwrite)

			require.NoError(t, store.Initialize(context.Background()))
			require.NoError(t, store.Initialize(context.Background()))
			_, err := os.Stat(path)
			require.NoError(t, err)

			topics, err := store.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, topics)
		})
	}
}

func TestTopicStoreUpsertLifecycle(t *testing.T) {
	t.Parallel()
	for _, f := range storeFactories() {
		f := f
		t.Run(f.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), f.file)
			store := openStore(t, f, path, domain.PolicyOverwrite)
			require.NoError(t, store.Initialize(ctx))

			res, err := store.Upsert(ctx, "Rust", "https://example.org/?curid=42")
			require.NoError(t, err)
			assert.Equal(t, domain.OutcomeCreated, res.Outcome)

			res, err = store.Upsert(ctx, "Rust", "https://example.org/?curid=42")
			require.NoError(t, err)
			assert.Equal(t, domain.OutcomeAlreadyPresent, res.Outcome)

			res, err = store.Upsert(ctx, "Rust", "https://example.org/?curid=43")
			require.NoError(t, err)
			assert.Equal(t, domain.OutcomeUpdated, res.Outcome)
			assert.Equal(t, "https://example.org/?curid=43", res.Link)

			_, err = store.Upsert(ctx, "rust", "https://example.org/?curid=44")
			require.NoError(t, err)

			topics, err := store.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []domain.Topic{
				{Name: "Rust", Link: "https://example.org/?curid=43"},
				{Name: "rust", Link: "https://example.org/?curid=44"},
			}, topics)

			got, err := store.Find(ctx, "Rust")
			require.NoError(t, err)
			assert.Equal(t, "https://example.org/?curid=43", got.Link)

			_, err = store.Find(ctx, "Go")
			assert.ErrorIs(t, err, apperrors.ErrNotFound)
		})
	}
}

func TestTopicStoreReloadsAfterRestart(t *testing.T) {
	t.Parallel()
	for _, f := range storeFactories() {
		f := f
		t.Run(f.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), f.file)

			first, err := f.open(path, domain.PolicyOverwrite)
			require.NoError(t, err)
			require.NoError(t, first.Initialize(ctx))
			_, err = first.Upsert(ctx, "Go", "https://example.org/?curid=1")
			require.NoError(t, err)
			_, err = first.Upsert(ctx, "Python", "https://example.org/?curid=2")
			require.NoError(t, err)
			require.NoError(t, first.Close())

			second := openStore(t, f, path, domain.PolicyOverwrite)
			require.NoError(t, second.Initialize(ctx))
			topics, err := second.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []domain.Topic{
				{Name: "Go", Link: "https://example.org/?curid=1"},
				{Name: "Python", Link: "https://example.org/?curid=2"},
			}, topics)
		})
	}
}

func TestTopicStoreSkipPolicyKeepsFirstLink(t *testing.T) {
	t.Parallel()
	for _, f := range storeFactories() {
		f := f
		t.Run(f.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			store := openStore(t, f, filepath.Join(t.TempDir(), f.file), domain.PolicySkip)
			require.NoError(t, store.Initialize(ctx))

			_, err := store.Upsert(ctx, "Go", "https://example.org/?curid=1")
			require.NoError(t, err)
			res, err := store.Upsert(ctx, "Go", "https://example.org/?curid=2")
			require.NoError(t, err)
			assert.Equal(t, domain.OutcomeAlreadyPresent, res.Outcome)
			assert.Equal(t, "https://example.org/?curid=1", res.Link)
		})
	}
}

func TestTopicStoreConcurrentUpsertsKeepOneRecord(t *testing.T) {
	t.Parallel()
	for _, f := range storeFactories() {
		f := f
		t.Run(f.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			store := openStore(t, f, filepath.Join(t.TempDir(), f.file), domain.PolicyOverwrite)
			require.NoError(t, store.Initialize(ctx))

			const workers = 16
			outcomes := make(chan domain.UpsertOutcome, workers)
			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					res, err := store.Upsert(ctx, "Rust", "https://example.org/?curid=42")
					if err == nil {
						outcomes <- res.Outcome
					}
				}()
			}
			wg.Wait()
			close(outcomes)

			created := 0
			total := 0
			for outcome := range outcomes {
				total++
				if outcome == domain.OutcomeCreated {
					created++
				}
			}
			assert.Equal(t, workers, total)
			assert.Equal(t, 1, created)

			topics, err := store.List(ctx)
			require.NoError(t, err)
			assert.Len(t, topics, 1)
		})
	}
}

func TestTopicStoreRecoversCorruptFileOnInitialize(t *testing.T) {
	t.Parallel()
	for _, f := range storeFactories() {
		f := f
		t.Run(f.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), f.file)
			require.NoError(t, os.WriteFile(path, f.corrupt, 0o644))

			store := openStore(t, f, path, domain.PolicyOverwrite)
			require.NoError(t, store.Initialize(ctx))

			backup, err := os.ReadFile(path + ".corrupt")
			require.NoError(t, err)
			assert.Equal(t, f.corrupt, backup)

			topics, err := store.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, topics)

			res, err := store.Upsert(ctx, "Go", "https://example.org/?curid=1")
			require.NoError(t, err)
			assert.Equal(t, domain.OutcomeCreated, res.Outcome)
		})
	}
}

func TestDocumentStoreReportsCorruptionDuringUpsertThenRecovers(t *testing.T) {
	t.Parallel()
	for _, f := range storeFactories()[:2] {
		f := f
		t.Run(f.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), f.file)
			store := openStore(t, f, path, domain.PolicyOverwrite)
			require.NoError(t, store.Initialize(ctx))
			_, err := store.Upsert(ctx, "Go", "https://example.org/?curid=1")
			require.NoError(t, err)

			require.NoError(t, os.WriteFile(path, f.corrupt, 0o644))
			_, err = store.Upsert(ctx, "Rust", "https://example.org/?curid=42")
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrStorage)

			res, err := store.Upsert(ctx, "Rust", "https://example.org/?curid=42")
			require.NoError(t, err)
			assert.Equal(t, domain.OutcomeCreated, res.Outcome)
			_, err = os.Stat(path + ".corrupt")
			assert.NoError(t, err)
		})
	}
}

func TestTopicStoreRejectsInvalidUpsert(t *testing.T) {
	t.Parallel()
	for _, f := range storeFactories() {
		f := f
		t.Run(f.name, func(t *testing.T) {
			t.Parallel()
			store := openStore(t, f, filepath.Join(t.TempDir(), f.file), domain.PolicyOverwrite)
			_, err := store.Upsert(context.Background(), "  ", "https://example.org/?curid=1")
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			_, err = store.Upsert(context.Background(), "Go", " ")
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestXMLStoreReadsExistingDocument(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db.xml")
	doc := `<?xml version="1.0"?>
<data>
  <topic name="Go"><wikipedia> https://example.org/?curid=1 </wikipedia></topic>
  <topic name="Empty"><wikipedia></wikipedia></topic>
  <topic name="Go"><wikipedia>https://example.org/?curid=9</wikipedia></topic>
</data>`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	store, err := out.NewXMLTopicStore(path, domain.PolicyOverwrite, nil)
	require.NoError(t, err)
	require.NoError(t, store.Initialize(ctx))

	topics, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Topic{
		{Name: "Go", Link: "https://example.org/?curid=9"},
		{Name: "Empty"},
	}, topics)

	res, err := store.Upsert(ctx, "Empty", "https://example.org/?curid=5")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUpdated, res.Outcome)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `<topic name="Empty">`)
	assert.Contains(t, string(raw), `<wikipedia>https://example.org/?curid=5</wikipedia>`)
	assert.Equal(t, 1, strings.Count(string(raw), `name="Go"`))
}

func TestStoreConstructorsValidateArguments(t *testing.T) {
	t.Parallel()
	_, err := out.NewXMLTopicStore("", domain.PolicyOverwrite, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = out.NewYAMLTopicStore(filepath.Join(t.TempDir(), "db.yaml"), domain.UpsertPolicy("merge"), nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = out.NewSQLiteTopicStore("", domain.PolicyOverwrite, nil, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestTopicStoreRejectsNamesThatCannotRoundTrip(t *testing.T) {
	t.Parallel()
	for _, f := range storeFactories() {
		f := f
		t.Run(f.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			store := openStore(t, f, filepath.Join(t.TempDir(), f.file), domain.PolicyOverwrite)
			require.NoError(t, store.Initialize(ctx))

			for _, name := range []string{"Go\x01lang", "Caf\xe9"} {
				_, err := store.Upsert(ctx, name, "https://example.org/?curid=1")
				assert.ErrorIs(t, err, apperrors.ErrInvalidInput, "name %q", name)
			}
			topics, err := store.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, topics)
		})
	}
}

func TestTopicStoreRoundTripsSpecialCharactersAcrossRestart(t *testing.T) {
	t.Parallel()
	names := []string{`R&D`, `<Go>`, `say "hi"`, `it's`, `  padded`, `Café`, `東京`, `🦀 crab`, `a: b`, `- dash`, `#hash`}
	for _, f := range storeFactories() {
		f := f
		t.Run(f.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), f.file)

			first, err := f.open(path, domain.PolicyOverwrite)
			require.NoError(t, err)
			require.NoError(t, first.Initialize(ctx))
			want := make([]domain.Topic, 0, len(names))
			for i, name := range names {
				link := fmt.Sprintf("https://example.org/?curid=%d&lang=en", i+1)
				res, err := first.Upsert(ctx, name, link)
				require.NoError(t, err, "name %q", name)
				require.Equal(t, domain.OutcomeCreated, res.Outcome)
				want = append(want, domain.Topic{Name: name, Link: link})
			}
			require.NoError(t, first.Close())

			second := openStore(t, f, path, domain.PolicyOverwrite)
			require.NoError(t, second.Initialize(ctx))
			got, err := second.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			for _, topic := range want {
				found, err := second.Find(ctx, topic.Name)
				require.NoError(t, err, "name %q", topic.Name)
				assert.Equal(t, topic, found)
				res, err := second.Upsert(ctx, topic.Name, topic.Link)
				require.NoError(t, err)
				assert.Equal(t, domain.OutcomeAlreadyPresent, res.Outcome, "name %q", topic.Name)
			}
			_, err = os.Stat(path + ".corrupt")
			assert.True(t, os.IsNotExist(err))
		})
	}
}

func TestTopicStoreConcurrentDistinctUpsertsAllSurvive(t *testing.T) {
	t.Parallel()
	for _, f := range storeFactories() {
		f := f
		t.Run(f.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), f.file)
			store := openStore(t, f, path, domain.PolicyOverwrite)
			require.NoError(t, store.Initialize(ctx))

			const workers = 24
			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					res, err := store.Upsert(ctx, fmt.Sprintf("topic-%02d", i), fmt.Sprintf("https://example.org/?curid=%d", i))
					assert.NoError(t, err)
					assert.Equal(t, domain.OutcomeCreated, res.Outcome)
				}(i)
			}
			wg.Wait()

			topics, err := store.List(ctx)
			require.NoError(t, err)
			assert.Len(t, topics, workers)
			seen := map[string]bool{}
			for _, topic := range topics {
				seen[topic.Name] = true
			}
			for i := 0; i < workers; i++ {
				assert.True(t, seen[fmt.Sprintf("topic-%02d", i)], "topic-%02d lost", i)
			}
		})
	}
}

func TestTopicStoreStoresTrimmedLink(t *testing.T) {
	t.Parallel()
	for _, f := range storeFactories() {
		f := f
		t.Run(f.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			store := openStore(t, f, filepath.Join(t.TempDir(), f.file), domain.PolicyOverwrite)
			require.NoError(t, store.Initialize(ctx))

			res, err := store.Upsert(ctx, "Go", " https://example.org/?curid=1 ")
			require.NoError(t, err)
			assert.Equal(t, domain.UpsertResult{Outcome: domain.OutcomeCreated, Link: "https://example.org/?curid=1"}, res)

			res, err = store.Upsert(ctx, "Go", " https://example.org/?curid=1 ")
			require.NoError(t, err)
			assert.Equal(t, domain.OutcomeAlreadyPresent, res.Outcome)

			got, err := store.Find(ctx, "Go")
			require.NoError(t, err)
			assert.Equal(t, "https://example.org/?curid=1", got.Link)
		})
	}
}

func TestXMLEncodeRefusesLossyText(t *testing.T) {
	t.Parallel()
	_, err := out.EncodeXMLDocument(domain.Collection{Topics: []domain.Topic{{Name: "Go\x01lang", Link: "https://example.org/?curid=1"}}})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = out.EncodeXMLDocument(domain.Collection{Topics: []domain.Topic{{Name: "Go", Link: "https://example.org/\xff"}}})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	raw, err := out.EncodeXMLDocument(domain.NewCollection(domain.Topic{Name: `R&D "<x>"`, Link: "https://example.org/?a=1&b=2"}))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `name="R&amp;D &#34;&lt;x&gt;&#34;"`)
	assert.Contains(t, string(raw), `https://example.org/?a=1&amp;b=2`)
}
