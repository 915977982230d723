package user

import (
	"context"
)

// UserRepository is the read side of the staff directory.
// Lookups return ErrUserNotFound when nothing matches.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (User, error)
	GetByUserCode(ctx context.Context, code string) (User, error)
	GetByIDOrCode(ctx context.Context, ref string) (User, error)
}
