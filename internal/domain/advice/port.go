package advice

import "context"

// Repository port for persisting and querying advice
type Repository interface {
	Save(ctx context.Context, a *Advice) error
	Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*Advice, error)
	LatestByCheck(ctx context.Context, tenant string, checkID string) (*Advice, error)
}
