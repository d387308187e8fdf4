package advice

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bryanwahyu/automaton-epub/internal/application"
	domain "github.com/bryanwahyu/automaton-epub/internal/domain/advice"
	"github.com/bryanwahyu/automaton-epub/internal/domain/ai"
	"github.com/bryanwahyu/automaton-epub/internal/domain/checks"
)

// CheckReader is the part of the checks service advice needs.
type CheckReader interface {
	Get(ctx context.Context, tenant string, id checks.CheckID) (*checks.Check, error)
}

type Service struct {
	client ai.Client
	repo   domain.Repository
	checks CheckReader
	clock  application.Clock
}

func NewService(client ai.Client, repo domain.Repository, checks CheckReader, clock application.Clock) *Service {
	return &Service{client: client, repo: repo, checks: checks, clock: clock}
}

// AdviseAndStore asks the model about a stored check and keeps the answer.
func (s *Service) AdviseAndStore(ctx context.Context, tenant, checkID string) (*domain.Advice, error) {
	c, err := s.checks.Get(ctx, tenant, checks.CheckID(checkID))
	if err != nil {
		return nil, err
	}
	if len(c.Diagnostics) == 0 {
		return nil, ai.ErrNothingToAdvise
	}
	out, err := s.client.Advise(ctx, c.Package, c.Diagnostics)
	if err != nil {
		return nil, err
	}
	a := &domain.Advice{
		ID:        domain.AdviceID(uuid.New().String()),
		TenantID:  tenant,
		CheckID:   checkID,
		Model:     s.client.ModelName(),
		Result:    out,
		CreatedAt: s.clock.Now(),
	}
	if s.repo != nil {
		if err := s.repo.Save(ctx, a); err != nil {
			return nil, fmt.Errorf("save advice: %w", err)
		}
	}
	return a, nil
}

// List returns stored advice, newest first.
func (s *Service) List(ctx context.Context, tenant string, page, size int) ([]*domain.Advice, error) {
	return s.repo.Paginate(ctx, tenant, page, size)
}

// Latest returns the newest advice for a check, or nil.
func (s *Service) Latest(ctx context.Context, tenant, checkID string) (*domain.Advice, error) {
	return s.repo.LatestByCheck(ctx, tenant, checkID)
}
