package schedule

import "context"

type Repo interface {
	Create(ctx context.Context, d *Definition) error
	GetByID(ctx context.Context, id int64) (*Definition, error)
	List(ctx context.Context) ([]*Definition, error)
	Delete(ctx context.Context, id int64) error
}
