package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/delivery-platform/internal/domain"
)

// UserRepository defines persistence access for identities, their roles and addresses.
type UserRepository interface {
	// Create inserts the user, its addresses and roles atomically. Email uniqueness is
	// enforced by the database and reported as ErrEmailTaken.
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// UpdateProfile writes the full name and, when addresses is non-nil, replaces the address list.
	UpdateProfile(ctx context.Context, id int64, fullName string, addresses []domain.Address) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
	GrantRole(ctx context.Context, id int64, role domain.Role) error
}

type userRepository struct {
	pool DB
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool DB) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	roles := user.Roles
	if len(roles) == 0 {
		roles = []domain.Role{domain.DefaultRole}
	}

	err := runInTx(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
        INSERT INTO users (email, password_hash, full_name)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`
		if err := tx.QueryRow(ctx, query, user.Email, user.PasswordHash, user.FullName).
			Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return err
		}
		for _, role := range roles {
			if err := insertRole(ctx, tx, user.ID, role); err != nil {
				return err
			}
		}
		return insertAddresses(ctx, tx, user.ID, user.Addresses)
	})
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return ErrEmailTaken
		}
		return err
	}
	user.Roles = roles
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `
        SELECT id, email, password_hash, full_name, created_at, updated_at
        FROM users WHERE id=$1`
	return r.getOne(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT id, email, password_hash, full_name, created_at, updated_at
        FROM users WHERE email=$1`
	return r.getOne(ctx, query, email)
}

func (r *userRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, notFound(err)
	}

	var err error
	if user.Roles, err = loadRoles(ctx, r.pool, user.ID); err != nil {
		return nil, err
	}
	if user.Addresses, err = loadAddresses(ctx, r.pool, user.ID); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id int64, fullName string, addresses []domain.Address) error {
	return runInTx(ctx, r.pool, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `UPDATE users SET full_name=$1, updated_at=NOW() WHERE id=$2`, fullName, id)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrNotFound
		}
		if addresses == nil {
			return nil
		}
		if _, err := tx.Exec(ctx, `DELETE FROM addresses WHERE user_id=$1`, id); err != nil {
			return err
		}
		return insertAddresses(ctx, tx, id, addresses)
	})
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT id, email, full_name, created_at, updated_at
        FROM users ORDER BY id LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.Email, &user.FullName, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range users {
		if users[i].Roles, err = loadRoles(ctx, r.pool, users[i].ID); err != nil {
			return nil, err
		}
	}
	return users, nil
}

func (r *userRepository) GrantRole(ctx context.Context, id int64, role domain.Role) error {
	if err := insertRole(ctx, r.pool, id, role); err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func insertRole(ctx context.Context, q querier, userID int64, role domain.Role) error {
	const query = `
        INSERT INTO user_roles (user_id, role_id)
        SELECT $1, id FROM roles WHERE name=$2
        ON CONFLICT DO NOTHING`
	cmd, err := q.Exec(ctx, query, userID, string(role))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		// Either already granted or the role row is missing; only the latter is an error.
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM roles WHERE name=$1)`, string(role)).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("role %s is not seeded", role)
		}
	}
	return nil
}

func insertAddresses(ctx context.Context, q querier, userID int64, addresses []domain.Address) error {
	const query = `
        INSERT INTO addresses (user_id, street, city, zip, state, country)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id`
	for i := range addresses {
		a := &addresses[i]
		if err := q.QueryRow(ctx, query, userID, a.Street, a.City, a.Zip, a.State, a.Country).Scan(&a.ID); err != nil {
			return err
		}
	}
	return nil
}

func loadRoles(ctx context.Context, q querier, userID int64) ([]domain.Role, error) {
	const query = `
        SELECT r.name FROM user_roles ur
        JOIN roles r ON r.id = ur.role_id
        WHERE ur.user_id=$1 ORDER BY r.name`
	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if role, ok := domain.ParseRole(name); ok {
			roles = append(roles, role)
		}
	}
	return roles, rows.Err()
}

func loadAddresses(ctx context.Context, q querier, userID int64) ([]domain.Address, error) {
	const query = `
        SELECT id, street, city, zip, state, country
        FROM addresses WHERE user_id=$1 ORDER BY id`
	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addresses []domain.Address
	for rows.Next() {
		var a domain.Address
		if err := rows.Scan(&a.ID, &a.Street, &a.City, &a.Zip, &a.State, &a.Country); err != nil {
			return nil, err
		}
		addresses = append(addresses, a)
	}
	return addresses, rows.Err()
}
