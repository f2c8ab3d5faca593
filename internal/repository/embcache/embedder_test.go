package embcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Jassar-muh/pharmaninja-backend/internal/db"
	"github.com/Jassar-muh/pharmaninja-backend/internal/domain"
)

type mockStore struct {
	data    map[string][]byte
	lastTTL time.Duration
	getErr  error
	setErr  error
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string][]byte{}}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return data, nil
}

func (m *mockStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.lastTTL = ttl
	return nil
}

type mockEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: 7}, nil
}

func TestEmbed_MissThenHit(t *testing.T) {
	inner := &mockEmbedder{vec: []float32{0.1, -2.5, 3}}
	store := newMockStore()
	cached := New(inner, store, nil, zap.NewNop())

	first, err := cached.Embed(context.Background(), "what is pharmacokinetics")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected inner call on miss, got %d", inner.calls)
	}
	if first.TotalTokens != 7 {
		t.Errorf("miss must report real token usage, got %d", first.TotalTokens)
	}

	second, err := cached.Embed(context.Background(), "what is pharmacokinetics")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("hit must not call inner embedder, got %d calls", inner.calls)
	}
	if second.TotalTokens != 0 {
		t.Errorf("hit consumes no tokens, got %d", second.TotalTokens)
	}

	if len(second.Embedding) != len(inner.vec) {
		t.Fatalf("vector length mismatch: %d vs %d", len(second.Embedding), len(inner.vec))
	}
	for i, f := range inner.vec {
		if second.Embedding[i] != f {
			t.Errorf("vector[%d] = %v, want %v", i, second.Embedding[i], f)
		}
	}
}

func TestEmbed_CacheEntriesExpire(t *testing.T) {
	inner := &mockEmbedder{vec: []float32{1}}
	store := newMockStore()
	cached := New(inner, store, nil, zap.NewNop())

	if _, err := cached.Embed(context.Background(), "question"); err != nil {
		t.Fatal(err)
	}
	if store.lastTTL != DefaultTTL {
		t.Errorf("entry ttl = %v, want %v", store.lastTTL, DefaultTTL)
	}

	cached.WithTTL(time.Hour)
	if _, err := cached.Embed(context.Background(), "another question"); err != nil {
		t.Fatal(err)
	}
	if store.lastTTL != time.Hour {
		t.Errorf("entry ttl = %v, want %v", store.lastTTL, time.Hour)
	}
}

func TestEmbed_DistinctTextsDistinctKeys(t *testing.T) {
	inner := &mockEmbedder{vec: []float32{1}}
	store := newMockStore()
	cached := New(inner, store, nil, zap.NewNop())

	if _, err := cached.Embed(context.Background(), "first"); err != nil {
		t.Fatal(err)
	}
	if _, err := cached.Embed(context.Background(), "second"); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("different texts must each miss, got %d calls", inner.calls)
	}
	if len(store.data) != 2 {
		t.Errorf("expected 2 cache entries, got %d", len(store.data))
	}
}

func TestEmbed_StoreGetErrorFallsThrough(t *testing.T) {
	inner := &mockEmbedder{vec: []float32{1}}
	store := newMockStore()
	store.getErr = errors.New("connection reset")
	cached := New(inner, store, nil, zap.NewNop())

	res, err := cached.Embed(context.Background(), "question")
	if err != nil {
		t.Fatalf("store failure must not fail the embed: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected fallthrough to inner embedder, got %d calls", inner.calls)
	}
	if len(res.Embedding) != 1 {
		t.Errorf("unexpected embedding %v", res.Embedding)
	}
}

func TestEmbed_StoreSetErrorIgnored(t *testing.T) {
	inner := &mockEmbedder{vec: []float32{1}}
	store := newMockStore()
	store.setErr = errors.New("read-only replica")
	cached := New(inner, store, nil, zap.NewNop())

	if _, err := cached.Embed(context.Background(), "question"); err != nil {
		t.Fatalf("cache write failure must not fail the embed: %v", err)
	}
}

func TestEmbed_CorruptCacheEntryTreatedAsMiss(t *testing.T) {
	inner := &mockEmbedder{vec: []float32{1, 2}}
	store := newMockStore()
	cached := New(inner, store, nil, zap.NewNop())

	key := cached.cacheKey("question")
	store.data[key] = []byte{0x01, 0x02, 0x03} // not a multiple of 4

	res, err := cached.Embed(context.Background(), "question")
	if err != nil {
		t.Fatalf("corrupt entry must be treated as a miss: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected inner call, got %d", inner.calls)
	}
	if len(res.Embedding) != 2 {
		t.Errorf("unexpected embedding %v", res.Embedding)
	}
}

func TestEmbed_InnerErrorPropagates(t *testing.T) {
	innerErr := errors.New("provider down")
	inner := &mockEmbedder{err: innerErr}
	cached := New(inner, newMockStore(), nil, zap.NewNop())

	if _, err := cached.Embed(context.Background(), "question"); !errors.Is(err, innerErr) {
		t.Fatalf("expected wrapped inner error, got %v", err)
	}
}

func TestVectorRoundTrip(t *testing.T) {
	vec := []float32{0, 1.5, -3.25, 1e-7}
	got, err := bytesToVector(vectorToCacheBytes(vec))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(vec) {
		t.Fatalf("length mismatch: %d vs %d", len(got), len(vec))
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Errorf("vec[%d] = %v, want %v", i, got[i], vec[i])
		}
	}
}
