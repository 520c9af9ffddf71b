// MsHoa Learning | 2026
// service.go

package entitlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mshoa-learning/backend/internal/core"
	"github.com/mshoa-learning/backend/internal/course"
	"github.com/mshoa-learning/backend/internal/user"
)

// UserGetter loads the account used in access decisions.
type UserGetter interface {
	GetUser(ctx context.Context, id string) (*user.User, error)
}

// Service is the store-backed resolver: it loads the user and the
// entitlement record, then delegates the decision to Resolve.
type Service struct {
	repo  Repository
	users UserGetter
}

func NewService(repo Repository, users UserGetter) *Service {
	return &Service{repo: repo, users: users}
}

// WithTx returns a copy of the service whose writes run on the given
// transaction. Settlement uses it to grant atomically with the ledger
// update. A nil tx keeps the current store binding.
func (s *Service) WithTx(tx core.DBTX) *Service {
	if tx == nil {
		return s
	}
	return &Service{repo: NewRepository(tx), users: s.users}
}

var _ course.AccessResolver = (*Service)(nil)

// ResolveAccess satisfies the catalog's access hook.
func (s *Service) ResolveAccess(
	ctx context.Context,
	userID string,
	c *course.Course,
) (course.UserAccess, error) {
	access, err := s.Check(ctx, userID, c)
	if err != nil {
		return course.UserAccess{}, err
	}

	return course.UserAccess{
		HasAccess:  access.Granted,
		AccessType: access.AccessType,
		Progress:   access.Progress,
	}, nil
}

// Check resolves course access for userID (empty = anonymous).
func (s *Service) Check(
	ctx context.Context,
	userID string,
	c *course.Course,
) (Access, error) {
	now := time.Now()

	var u *user.User
	if userID != "" {
		loaded, err := s.users.GetUser(ctx, userID)
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			return Access{}, fmt.Errorf("load user: %w", err)
		}
		u = loaded
	}

	var rec *UserCourse
	if u != nil {
		found, err := s.repo.GetActive(ctx, u.ID, c.ID)
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			return Access{}, fmt.Errorf("load entitlement: %w", err)
		}
		rec = found
	}

	return Resolve(u, c, rec, now), nil
}

// Grant creates or restores the single active entitlement for the
// pair. Already-granted pairs return the existing record, so repeated
// grants (webhook retries, concurrent purchases) converge on one row.
func (s *Service) Grant(
	ctx context.Context,
	userID, courseID, accessType string,
	paymentID *string,
	expiresAt *time.Time,
) (*UserCourse, error) {
	existing, err := s.repo.GetActive(ctx, userID, courseID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	// A previously revoked enrollment keeps its progress on repurchase.
	restored, err := s.repo.Reactivate(
		ctx, userID, courseID, accessType, paymentID, expiresAt,
	)
	if err == nil {
		return restored, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	rec := &UserCourse{
		ID:          uuid.New().String(),
		UserID:      userID,
		CourseID:    courseID,
		PaymentID:   paymentID,
		AccessType:  accessType,
		PurchasedAt: time.Now(),
		ExpiresAt:   expiresAt,
		IsActive:    true,
	}

	if err := s.repo.Insert(ctx, rec); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			// Lost the race against a concurrent grant.
			return s.repo.GetActive(ctx, userID, courseID)
		}
		return nil, err
	}

	return rec, nil
}

func (s *Service) Revoke(ctx context.Context, userID, courseID string) error {
	return s.repo.Deactivate(ctx, userID, courseID)
}

func (s *Service) RevokeByPayment(
	ctx context.Context,
	paymentID string,
) error {
	return s.repo.DeactivateByPaymentID(ctx, paymentID)
}

// UpdateProgress clamps to 0..100 and stamps the completion date the
// first time 100 is reached.
func (s *Service) UpdateProgress(
	ctx context.Context,
	userID, courseID string,
	progress float64,
	lastVideoID *string,
) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	var completionDate *time.Time
	if progress >= 100 {
		now := time.Now()
		completionDate = &now
	}

	return s.repo.UpdateProgress(
		ctx, userID, courseID, progress, lastVideoID, completionDate,
	)
}
