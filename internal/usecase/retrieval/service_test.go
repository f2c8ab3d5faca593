package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Jassar-muh/pharmaninja-backend/internal/domain"
	"github.com/Jassar-muh/pharmaninja-backend/internal/domain/search/filter"
)

// --- Mocks ---

type mockRepo struct {
	matches []domain.Match
	err     error

	gotVector  []float32
	gotTopK    int
	gotFilters filter.Expression
}

func (m *mockRepo) Query(
	_ context.Context, vector []float32, topK int, filters filter.Expression,
) ([]domain.Match, error) {
	m.gotVector = vector
	m.gotTopK = topK
	m.gotFilters = filters
	return m.matches, m.err
}

type mockEmbedder struct {
	vec []float32
	err error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

func match(id, text string) domain.Match {
	return domain.Match{
		ID:    id,
		Score: 0.9,
		Meta:  domain.Metadata{Text: text, Source: "pharm101.pdf", Lang: domain.LangEN},
	}
}

// --- Tests ---

func TestRetrieve_Success(t *testing.T) {
	repo := &mockRepo{matches: []domain.Match{
		match("a", "first chunk"),
		match("b", "second chunk"),
	}}
	svc := New(repo, &mockEmbedder{vec: []float32{0.1, 0.2}})

	rctx, sources, err := svc.Retrieve(context.Background(), "what is a prodrug?", "3rd", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "[#1] first chunk\n[#2] second chunk"
	if rctx.Text != want {
		t.Errorf("context = %q, want %q", rctx.Text, want)
	}
	if len(sources) != 2 || sources[0].ID != "a" || sources[1].ID != "b" {
		t.Errorf("unexpected sources %+v", sources)
	}
	if repo.gotTopK != DefaultTopK {
		t.Errorf("expected topK %d, got %d", DefaultTopK, repo.gotTopK)
	}
	if len(repo.gotFilters.Must()) != 1 || repo.gotFilters.Must()[0].Key() != filter.KeyStage {
		t.Errorf("expected stage-only filter, got %+v", repo.gotFilters.Must())
	}
}

func TestRetrieve_EmptyQuestion(t *testing.T) {
	svc := New(&mockRepo{}, &mockEmbedder{vec: []float32{1}})

	_, _, err := svc.Retrieve(context.Background(), "   \t ", "", "")
	if !errors.Is(err, domain.ErrEmptyQuestion) {
		t.Fatalf("expected ErrEmptyQuestion, got %v", err)
	}
}

func TestRetrieve_NoMatchesYieldsSentinel(t *testing.T) {
	svc := New(&mockRepo{}, &mockEmbedder{vec: []float32{1}})

	rctx, sources, err := svc.Retrieve(context.Background(), "unknown topic", "", "")
	if err != nil {
		t.Fatalf("no matches must not error, got %v", err)
	}
	if rctx.Text != domain.NoContextSentinel {
		t.Errorf("expected sentinel context, got %q", rctx.Text)
	}
	if !rctx.Empty() {
		t.Error("sentinel context must report empty")
	}
	if sources != nil {
		t.Errorf("expected nil sources, got %+v", sources)
	}
}

func TestRetrieve_BlankTextMatchesDropped(t *testing.T) {
	repo := &mockRepo{matches: []domain.Match{
		match("a", "   "),
		match("b", "usable chunk"),
	}}
	svc := New(repo, &mockEmbedder{vec: []float32{1}})

	rctx, sources, err := svc.Retrieve(context.Background(), "q", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rctx.Text != "[#1] usable chunk" {
		t.Errorf("blank match must be dropped and ranks reassigned, got %q", rctx.Text)
	}
	if len(sources) != 1 || sources[0].ID != "b" {
		t.Errorf("unexpected sources %+v", sources)
	}
}

func TestRetrieve_AllBlankYieldsSentinel(t *testing.T) {
	repo := &mockRepo{matches: []domain.Match{match("a", ""), match("b", "\n")}}
	svc := New(repo, &mockEmbedder{vec: []float32{1}})

	rctx, _, err := svc.Retrieve(context.Background(), "q", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rctx.Text != domain.NoContextSentinel {
		t.Errorf("expected sentinel, got %q", rctx.Text)
	}
}

func TestRetrieve_EmbedErrorPropagates(t *testing.T) {
	boom := errors.New("provider down")
	svc := New(&mockRepo{}, &mockEmbedder{err: boom})

	_, _, err := svc.Retrieve(context.Background(), "q", "", "")
	if !errors.Is(err, boom) {
		t.Fatalf("expected embed error, got %v", err)
	}
}

func TestRetrieve_QueryErrorPropagates(t *testing.T) {
	svc := New(&mockRepo{err: domain.ErrIndexUnavailable}, &mockEmbedder{vec: []float32{1}})

	_, _, err := svc.Retrieve(context.Background(), "q", "", "")
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable, got %v", err)
	}
}

func TestRetrieve_InvalidFilterRejected(t *testing.T) {
	// FromQuery only ever builds known keys, so an invalid filter can't come
	// from stage/subject; this guards the error path stays wired through.
	svc := New(&mockRepo{}, &mockEmbedder{vec: []float32{1}})

	_, _, err := svc.Retrieve(context.Background(), "q", "3rd", "pharmacology")
	if err != nil {
		t.Fatalf("valid attributes must build, got %v", err)
	}
}

func TestAssemble_WholeRecordsPreferred(t *testing.T) {
	// Budget fits the first record plus separator but not the second.
	repo := &mockRepo{matches: []domain.Match{
		match("a", strings.Repeat("a", 20)),
		match("b", strings.Repeat("b", 100)),
	}}
	svc := New(repo, &mockEmbedder{vec: []float32{1}}).WithLimits(5, 40)

	rctx, _, err := svc.Retrieve(context.Background(), "q", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(rctx.Text, "[#1] ") {
		t.Errorf("expected first record kept, got %q", rctx.Text)
	}
	if strings.Contains(rctx.Text, "[#2]") {
		t.Errorf("oversized second record must be dropped, got %q", rctx.Text)
	}
	if !strings.HasSuffix(rctx.Text, ellipsis) {
		t.Errorf("expected ellipsis marker, got %q", rctx.Text)
	}
}

func TestAssemble_OversizedFirstRecordCut(t *testing.T) {
	repo := &mockRepo{matches: []domain.Match{
		match("a", strings.Repeat("x", 500)),
	}}
	svc := New(repo, &mockEmbedder{vec: []float32{1}}).WithLimits(5, 50)

	rctx, _, err := svc.Retrieve(context.Background(), "q", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	runes := []rune(rctx.Text)
	if len(runes) != 50 {
		t.Errorf("expected exactly the budget incl. marker, got %d runes (%q)", len(runes), rctx.Text)
	}
	if !strings.HasSuffix(rctx.Text, ellipsis) {
		t.Errorf("expected ellipsis suffix, got %q", rctx.Text)
	}
}

func TestAssemble_BudgetIsHardCap(t *testing.T) {
	// First record fills the budget exactly; dropping the second must not
	// push the marker past the cap.
	repo := &mockRepo{matches: []domain.Match{
		match("a", strings.Repeat("a", 25)), // "[#1] " + 25 = 30 runes
		match("b", strings.Repeat("b", 100)),
	}}
	svc := New(repo, &mockEmbedder{vec: []float32{1}}).WithLimits(5, 30)

	rctx, _, err := svc.Retrieve(context.Background(), "q", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := len([]rune(rctx.Text)); got > 30 {
		t.Errorf("context exceeds budget: %d runes (%q)", got, rctx.Text)
	}
	if !strings.HasSuffix(rctx.Text, ellipsis) {
		t.Errorf("expected ellipsis marker, got %q", rctx.Text)
	}
}

func TestAssemble_BudgetCountsRunes(t *testing.T) {
	// Arabic text: budget must be measured in runes, not bytes.
	arabic := strings.Repeat("ص", 30)
	repo := &mockRepo{matches: []domain.Match{match("a", arabic)}}
	svc := New(repo, &mockEmbedder{vec: []float32{1}}).WithLimits(5, 100)

	rctx, _, err := svc.Retrieve(context.Background(), "q", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// "[#1] " + 30 runes = 35 runes, well under a 100-rune budget even
	// though the byte length is larger.
	if strings.HasSuffix(rctx.Text, ellipsis) {
		t.Errorf("text within rune budget must not be truncated: %q", rctx.Text)
	}
}
