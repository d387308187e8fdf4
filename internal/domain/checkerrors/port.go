package checkerrors

import (
	"context"
)

// Repository defines persistence for check errors
type Repository interface {
	Save(ctx context.Context, e *CheckError) error
	ListByCheck(ctx context.Context, tenant string, checkID string, limit int) ([]*CheckError, error)
}
