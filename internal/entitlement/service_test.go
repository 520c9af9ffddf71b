// MsHoa Learning | 2026
// service_test.go

package entitlement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mshoa-learning/backend/internal/core"
)

type memRepo struct {
	records []*UserCourse

	lastProgress struct {
		value          float64
		lastVideoID    *string
		completionDate *time.Time
	}
}

func (m *memRepo) Insert(_ context.Context, rec *UserCourse) error {
	for _, r := range m.records {
		if r.UserID == rec.UserID && r.CourseID == rec.CourseID && r.IsActive {
			return core.ErrDuplicateKey
		}
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *memRepo) GetActive(_ context.Context, userID, courseID string) (*UserCourse, error) {
	for _, r := range m.records {
		if r.UserID == userID && r.CourseID == courseID && r.IsActive {
			return r, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memRepo) Reactivate(
	_ context.Context,
	userID, courseID, accessType string,
	paymentID *string,
	expiresAt *time.Time,
) (*UserCourse, error) {
	for _, r := range m.records {
		if r.UserID == userID && r.CourseID == courseID && !r.IsActive {
			r.IsActive = true
			r.AccessType = accessType
			r.PaymentID = paymentID
			r.ExpiresAt = expiresAt
			return r, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memRepo) Deactivate(_ context.Context, userID, courseID string) error {
	for _, r := range m.records {
		if r.UserID == userID && r.CourseID == courseID && r.IsActive {
			r.IsActive = false
			return nil
		}
	}
	return core.ErrNotFound
}

func (m *memRepo) DeactivateByPaymentID(_ context.Context, paymentID string) error {
	for _, r := range m.records {
		if r.PaymentID != nil && *r.PaymentID == paymentID && r.IsActive {
			r.IsActive = false
			return nil
		}
	}
	return core.ErrNotFound
}

func (m *memRepo) UpdateProgress(
	_ context.Context,
	_, _ string,
	progress float64,
	lastVideoID *string,
	completionDate *time.Time,
) error {
	m.lastProgress.value = progress
	m.lastProgress.lastVideoID = lastVideoID
	m.lastProgress.completionDate = completionDate
	return nil
}

// raceRepo simulates losing an insert race: the initial active lookup
// misses, reactivation finds nothing, and the insert hits the partial
// unique index.
type raceRepo struct {
	memRepo
	getCalls int
}

func (r *raceRepo) GetActive(ctx context.Context, userID, courseID string) (*UserCourse, error) {
	r.getCalls++
	if r.getCalls == 1 {
		return nil, core.ErrNotFound
	}
	return r.memRepo.GetActive(ctx, userID, courseID)
}

func (r *raceRepo) Reactivate(
	_ context.Context,
	_, _, _ string,
	_ *string,
	_ *time.Time,
) (*UserCourse, error) {
	return nil, core.ErrNotFound
}

func (r *raceRepo) Insert(_ context.Context, _ *UserCourse) error {
	return core.ErrDuplicateKey
}

func TestGrantIsIdempotent(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo, nil)
	paymentID := "pay-1"

	first, err := svc.Grant(
		context.Background(), "u1", "c1",
		AccessTypePurchased, &paymentID, nil,
	)
	require.NoError(t, err)
	assert.True(t, first.IsActive)

	second, err := svc.Grant(
		context.Background(), "u1", "c1",
		AccessTypePurchased, &paymentID, nil,
	)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "repeated grant converges on one row")
	assert.Len(t, repo.records, 1)
}

func TestGrantReactivatesKeepingProgress(t *testing.T) {
	repo := &memRepo{records: []*UserCourse{{
		ID:                 "rec-1",
		UserID:             "u1",
		CourseID:           "c1",
		AccessType:         AccessTypePurchased,
		ProgressPercentage: 62,
		IsActive:           false,
	}}}
	svc := NewService(repo, nil)
	paymentID := "pay-2"

	granted, err := svc.Grant(
		context.Background(), "u1", "c1",
		AccessTypePurchased, &paymentID, nil,
	)
	require.NoError(t, err)

	assert.Equal(t, "rec-1", granted.ID)
	assert.True(t, granted.IsActive)
	assert.Equal(t, float64(62), granted.ProgressPercentage,
		"repurchase restores watch progress")
	require.NotNil(t, granted.PaymentID)
	assert.Equal(t, "pay-2", *granted.PaymentID)
}

func TestGrantLosingInsertRaceReadsWinner(t *testing.T) {
	winner := &UserCourse{
		ID:         "rec-w",
		UserID:     "u1",
		CourseID:   "c1",
		AccessType: AccessTypePurchased,
		IsActive:   true,
	}

	// The winning insert lands between our GetActive miss and our own
	// Insert, which the unique index rejects.
	repo := &raceRepo{memRepo: memRepo{records: []*UserCourse{winner}}}
	svc := NewService(repo, nil)

	granted, err := svc.Grant(
		context.Background(), "u1", "c1",
		AccessTypePurchased, nil, nil,
	)
	require.NoError(t, err)
	assert.Equal(t, "rec-w", granted.ID)
}

func TestRevokeByPayment(t *testing.T) {
	paymentID := "pay-3"
	repo := &memRepo{records: []*UserCourse{{
		ID:        "rec-1",
		UserID:    "u1",
		CourseID:  "c1",
		PaymentID: &paymentID,
		IsActive:  true,
	}}}
	svc := NewService(repo, nil)

	require.NoError(t, svc.RevokeByPayment(context.Background(), paymentID))
	assert.False(t, repo.records[0].IsActive)
}

func TestUpdateProgressClampsAndStampsCompletion(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo, nil)

	require.NoError(t, svc.UpdateProgress(context.Background(), "u1", "c1", -5, nil))
	assert.Equal(t, float64(0), repo.lastProgress.value)
	assert.Nil(t, repo.lastProgress.completionDate)

	require.NoError(t, svc.UpdateProgress(context.Background(), "u1", "c1", 150, nil))
	assert.Equal(t, float64(100), repo.lastProgress.value)
	assert.NotNil(t, repo.lastProgress.completionDate,
		"completion stamped when progress reaches 100")

	require.NoError(t, svc.UpdateProgress(context.Background(), "u1", "c1", 50, nil))
	assert.Equal(t, float64(50), repo.lastProgress.value)
	assert.Nil(t, repo.lastProgress.completionDate)
}
