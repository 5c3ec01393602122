package member

import "context"

type QueryRepository interface {
	GetByID(ctx context.Context, clubID, memberID string) (*Member, error)
}
