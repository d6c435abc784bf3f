package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"vehicle_parking/internal/domain"
	"vehicle_parking/internal/repository"
)

type pgUserRepository struct {
	q queryer
}

func (r *pgUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `INSERT INTO users (username, password_hash, role, created_at, updated_at)
	           VALUES ($1, $2, $3, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, created_at, updated_at`
	err := r.q.QueryRowContext(ctx, query, user.Username, user.PasswordHash, user.Role).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: username '%s' is taken", repository.ErrDuplicateEntry, user.Username)
		}
		return nil, fmt.Errorf("UserRepository.Create: %w", err)
	}
	user.CreatedAt = user.CreatedAt.In(time.UTC)
	user.UpdatedAt = user.UpdatedAt.In(time.UTC)
	return user, nil
}

func (r *pgUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, `SELECT id, username, password_hash, role, created_at, updated_at FROM users WHERE username = $1`, username)
}

func (r *pgUserRepository) FindByID(ctx context.Context, id int) (*domain.User, error) {
	return r.findOne(ctx, `SELECT id, username, password_hash, role, created_at, updated_at FROM users WHERE id = $1`, id)
}

func (r *pgUserRepository) FindFirstByRole(ctx context.Context, role string) (*domain.User, error) {
	return r.findOne(ctx, `SELECT id, username, password_hash, role, created_at, updated_at FROM users WHERE role = $1 ORDER BY id LIMIT 1`, role)
}

func (r *pgUserRepository) findOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	user := &domain.User{}
	err := r.q.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("UserRepository.findOne: %w", err)
	}
	user.CreatedAt = user.CreatedAt.In(time.UTC)
	user.UpdatedAt = user.UpdatedAt.In(time.UTC)
	return user, nil
}
