package advice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/automaton-epub/internal/application"
	domain "github.com/bryanwahyu/automaton-epub/internal/domain/advice"
	"github.com/bryanwahyu/automaton-epub/internal/domain/ai"
	"github.com/bryanwahyu/automaton-epub/internal/domain/checks"
)

type fakeClient struct {
	pkg   string
	diags []checks.Diagnostic
}

func (f *fakeClient) Advise(_ context.Context, pkg string, diags []checks.Diagnostic) (string, error) {
	f.pkg, f.diags = pkg, diags
	return `{"advice":"fix the href"}`, nil
}

func (f *fakeClient) ModelName() string { return "test-model" }

type fakeChecks struct{ c *checks.Check }

func (f fakeChecks) Get(context.Context, string, checks.CheckID) (*checks.Check, error) { return f.c, nil }

type memAdvice struct{ saved []*domain.Advice }

func (m *memAdvice) Save(_ context.Context, a *domain.Advice) error {
	m.saved = append(m.saved, a)
	return nil
}

func (m *memAdvice) Paginate(context.Context, string, int, int) ([]*domain.Advice, error) {
	return m.saved, nil
}

func (m *memAdvice) LatestByCheck(context.Context, string, string) (*domain.Advice, error) {
	if len(m.saved) == 0 {
		return nil, nil
	}
	return m.saved[len(m.saved)-1], nil
}

func TestAdviseAndStore(t *testing.T) {
	diags := []checks.Diagnostic{{Code: "ERROR(RSC-005)", Severity: checks.SeverityError, Path: "OEBPS/a.xhtml", Message: "bad"}}
	client := &fakeClient{}
	repo := &memAdvice{}
	now := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	svc := NewService(client, repo, fakeChecks{c: &checks.Check{Package: "book.epub", Diagnostics: diags}}, application.FixedClock(now))

	a, err := svc.AdviseAndStore(context.Background(), "acme", "c1")
	require.NoError(t, err)
	assert.Equal(t, "book.epub", client.pkg)
	assert.Equal(t, diags, client.diags)
	assert.Equal(t, "test-model", a.Model)
	assert.Equal(t, "c1", a.CheckID)
	assert.Equal(t, now, a.CreatedAt)
	require.Len(t, repo.saved, 1)

	latest, err := svc.Latest(context.Background(), "acme", "c1")
	require.NoError(t, err)
	assert.Equal(t, a, latest)
}

func TestAdviseAndStore_NoDiagnostics(t *testing.T) {
	svc := NewService(&fakeClient{}, &memAdvice{}, fakeChecks{c: &checks.Check{}}, application.SystemClock{})
	_, err := svc.AdviseAndStore(context.Background(), "acme", "c1")
	assert.ErrorIs(t, err, ai.ErrNothingToAdvise)
}
