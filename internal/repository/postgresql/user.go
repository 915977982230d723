package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type userRepositoryImpl struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) user.UserRepository {
	return &userRepositoryImpl{db: db}
}

func (r *userRepositoryImpl) getOne(ctx context.Context, where string, arg string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, email, full_name, user_code, role, created_at, updated_at
		FROM users
		WHERE ` + where + `
		ORDER BY (id::text = $1) DESC
		LIMIT 1
	`

	var u user.User
	err := q.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.FullName, &u.UserCode, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

// GetByID implements user.UserRepository.
func (r *userRepositoryImpl) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.getOne(ctx, "id::text = $1", id)
}

// GetByUserCode implements user.UserRepository.
func (r *userRepositoryImpl) GetByUserCode(ctx context.Context, code string) (user.User, error) {
	return r.getOne(ctx, "user_code = $1", code)
}

// GetByIDOrCode implements user.UserRepository. An id match wins over a code match.
func (r *userRepositoryImpl) GetByIDOrCode(ctx context.Context, ref string) (user.User, error) {
	return r.getOne(ctx, "(id::text = $1 OR user_code = $1)", ref)
}
