package server

import (
	"context"
	"testing"

	"github.com/knowhub/knowhub-go/internal/answer"
	"github.com/knowhub/knowhub-go/internal/docindex"
	"github.com/knowhub/knowhub-go/internal/store"
)

// ---------------------------------------------------------------------------
// Shared fakes for handler tests
// ---------------------------------------------------------------------------

// fakeAnswerer implements answerer with a canned response.
type fakeAnswerer struct {
	// resp is returned from every Answer call.
	resp answer.ChatResponse
	// intent is the reported classification.
	intent answer.Intent
	// lastQuery and lastTopK record the most recent call.
	lastQuery string
	lastTopK  int
}

func (f *fakeAnswerer) Answer(_ context.Context, query string, topK int) (answer.ChatResponse, answer.Intent) {
	f.lastQuery = query
	f.lastTopK = topK
	return f.resp, f.intent
}

// fakeIngester implements ingester, recording ingested paths.
type fakeIngester struct {
	// chunks is the chunk count reported per call.
	chunks int
	// err fails every call when set.
	err error
	// paths records every ingested path in order.
	paths []string
	// owners records the owner passed with each call.
	owners []string
}

func (f *fakeIngester) IngestFile(_ context.Context, path, owner string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.paths = append(f.paths, path)
	f.owners = append(f.owners, owner)
	return f.chunks, nil
}

// fakeCleaner implements vectorCleaner, recording deleted sources.
type fakeCleaner struct {
	// err fails every call when set.
	err error
	// sources records every DeleteBySource argument.
	sources []string
}

func (f *fakeCleaner) DeleteBySource(_ context.Context, source string) error {
	if f.err != nil {
		return f.err
	}
	f.sources = append(f.sources, source)
	return nil
}

// fakeHistory implements store.HistoryStore in memory.
type fakeHistory struct {
	// entries accumulates appended records, oldest first.
	entries []store.Entry
	// appendErr fails Append when set.
	appendErr error
	// recentErr fails Recent when set.
	recentErr error
}

func (f *fakeHistory) Append(_ context.Context, query, intent, answer string) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.entries = append(f.entries, store.Entry{Query: query, Intent: intent, Answer: answer})
	return nil
}

func (f *fakeHistory) Recent(_ context.Context, n int) ([]store.Entry, error) {
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	out := make([]store.Entry, 0, n)
	for i := len(f.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, f.entries[i])
	}
	return out, nil
}

func (f *fakeHistory) Close() error { return nil }

// newTestServer builds a fully wired Server over temp-dir storage and the
// given fakes. Nil fakes are replaced with working defaults.
func newTestServer(t *testing.T, deps Deps) *Server {
	t.Helper()

	if deps.Router == nil {
		deps.Router = &fakeAnswerer{resp: answer.ChatResponse{Answer: "ok", Citations: []answer.Citation{}}}
	}
	if deps.Docs == nil {
		docs, err := docindex.New(t.TempDir())
		if err != nil {
			t.Fatalf("docindex.New: %v", err)
		}
		deps.Docs = docs
	}
	if deps.Ingester == nil {
		deps.Ingester = &fakeIngester{chunks: 1}
	}

	s, err := New(deps, &Config{})
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	t.Cleanup(s.stopRL)
	return s
}
