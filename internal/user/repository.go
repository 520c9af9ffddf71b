// MsHoa Learning | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mshoa-learning/backend/internal/core"
)

const userColumns = `
	id, email, password_hash, full_name, membership_tier,
	membership_expires_at, is_active, email_verified,
	verification_token_hash, reset_token_hash, reset_token_expires_at,
	last_login_at, profile_image_url, token_version, created_at, updated_at`

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByVerificationToken(ctx context.Context, tokenHash string) (*User, error)
	GetByResetToken(ctx context.Context, tokenHash string) (*User, error)
	UpdateProfile(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	IncrementTokenVersion(ctx context.Context, id string) error
	SetVerified(ctx context.Context, id string) error
	SetVerificationToken(ctx context.Context, id string, tokenHash *string) error
	SetResetToken(
		ctx context.Context,
		id string,
		tokenHash string,
		expiresAt time.Time,
	) error
	ClearResetToken(ctx context.Context, id string) error
	TouchLastLogin(ctx context.Context, id string) error
	ExtendMembership(
		ctx context.Context,
		id, tier string,
		expiresAt *time.Time,
	) error
	Deactivate(ctx context.Context, id string) error
	IsActive(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (
			id, email, password_hash, full_name, membership_tier,
			verification_token_hash
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at, token_version`

	err := r.db.GetContext(ctx, user, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.MembershipTier,
		user.VerificationTokenHash,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var u User
	err := r.db.GetContext(ctx, &u, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &u, nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var u User
	err := r.db.GetContext(ctx, &u, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &u, nil
}

func (r *repository) GetByVerificationToken(
	ctx context.Context,
	tokenHash string,
) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE verification_token_hash = $1`

	var u User
	err := r.db.GetContext(ctx, &u, query, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf(
			"get user by verification token: %w",
			core.ErrNotFound,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by verification token: %w", err)
	}

	return &u, nil
}

func (r *repository) GetByResetToken(
	ctx context.Context,
	tokenHash string,
) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE reset_token_hash = $1`

	var u User
	err := r.db.GetContext(ctx, &u, query, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by reset token: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by reset token: %w", err)
	}

	return &u, nil
}

func (r *repository) UpdateProfile(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET full_name = $2, profile_image_url = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &user.UpdatedAt, query,
		user.ID,
		user.FullName,
		user.ProfileImageURL,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update profile: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	return nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	return r.execExpectingRow(ctx, "update password", query, id, passwordHash)
}

func (r *repository) IncrementTokenVersion(
	ctx context.Context,
	id string,
) error {
	query := `
		UPDATE users
		SET token_version = token_version + 1, updated_at = NOW()
		WHERE id = $1`

	return r.execExpectingRow(ctx, "increment token version", query, id)
}

func (r *repository) SetVerified(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET email_verified = true, verification_token_hash = NULL,
		    updated_at = NOW()
		WHERE id = $1 AND email_verified = false`

	return r.execExpectingRow(ctx, "set verified", query, id)
}

func (r *repository) SetVerificationToken(
	ctx context.Context,
	id string,
	tokenHash *string,
) error {
	query := `
		UPDATE users
		SET verification_token_hash = $2, updated_at = NOW()
		WHERE id = $1`

	return r.execExpectingRow(ctx, "set verification token", query, id, tokenHash)
}

func (r *repository) SetResetToken(
	ctx context.Context,
	id string,
	tokenHash string,
	expiresAt time.Time,
) error {
	query := `
		UPDATE users
		SET reset_token_hash = $2, reset_token_expires_at = $3,
		    updated_at = NOW()
		WHERE id = $1`

	return r.execExpectingRow(
		ctx,
		"set reset token",
		query,
		id,
		tokenHash,
		expiresAt,
	)
}

func (r *repository) ClearResetToken(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET reset_token_hash = NULL, reset_token_expires_at = NULL,
		    updated_at = NOW()
		WHERE id = $1`

	return r.execExpectingRow(ctx, "clear reset token", query, id)
}

func (r *repository) TouchLastLogin(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET last_login_at = NOW()
		WHERE id = $1`

	return r.execExpectingRow(ctx, "touch last login", query, id)
}

func (r *repository) ExtendMembership(
	ctx context.Context,
	id, tier string,
	expiresAt *time.Time,
) error {
	query := `
		UPDATE users
		SET membership_tier = $2, membership_expires_at = $3,
		    updated_at = NOW()
		WHERE id = $1`

	return r.execExpectingRow(
		ctx,
		"extend membership",
		query,
		id,
		tier,
		expiresAt,
	)
}

func (r *repository) Deactivate(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET is_active = false, updated_at = NOW()
		WHERE id = $1 AND is_active = true`

	return r.execExpectingRow(ctx, "deactivate user", query, id)
}

func (r *repository) IsActive(ctx context.Context, id string) (bool, error) {
	query := `SELECT is_active FROM users WHERE id = $1`

	var active bool
	err := r.db.GetContext(ctx, &active, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check user active: %w", err)
	}

	return active, nil
}

func (r *repository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, "TRUE")

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(email ILIKE $%d OR full_name ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Tier != "" {
		conditions = append(
			conditions,
			fmt.Sprintf("membership_tier = $%d", argIdx),
		)
		args = append(args, params.Tier)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM users WHERE %s",
		whereClause,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT `+userColumns+`
		FROM users
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func (r *repository) execExpectingRow(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
