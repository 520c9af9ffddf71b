// MsHoa Learning | 2026
// service_test.go

package course

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mshoa-learning/backend/internal/core"
)

type stubRepo struct {
	courses []Course
}

func (s *stubRepo) Create(_ context.Context, _ *Course) error { return nil }

func (s *stubRepo) GetByID(_ context.Context, id string) (*Course, error) {
	for i := range s.courses {
		if s.courses[i].ID == id {
			return &s.courses[i], nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *stubRepo) GetActiveByID(ctx context.Context, id string) (*Course, error) {
	c, err := s.GetByID(ctx, id)
	if err != nil || !c.IsActive {
		return nil, core.ErrNotFound
	}
	return c, nil
}

func (s *stubRepo) Update(_ context.Context, _ *Course) error    { return nil }
func (s *stubRepo) Deactivate(_ context.Context, _ string) error { return nil }

func (s *stubRepo) List(_ context.Context, _ ListCoursesParams, activeOnly bool) ([]Course, int, error) {
	if !activeOnly {
		return s.courses, len(s.courses), nil
	}
	var active []Course
	for _, c := range s.courses {
		if c.IsActive {
			active = append(active, c)
		}
	}
	return active, len(active), nil
}

func (s *stubRepo) ListEnrolled(_ context.Context, _ string) ([]EnrolledCourse, error) {
	return nil, nil
}

func (s *stubRepo) AdjustVideoCount(_ context.Context, _ string, _ int) error {
	return nil
}

// stubResolver grants the caller access to the course IDs it holds.
type stubResolver struct {
	granted map[string]UserAccess
}

func (s *stubResolver) ResolveAccess(_ context.Context, _ string, c *Course) (UserAccess, error) {
	if access, ok := s.granted[c.ID]; ok {
		return access, nil
	}
	return UserAccess{}, nil
}

type stubVideos struct {
	lastIncludeGated bool
}

func (s *stubVideos) ListForCourse(_ context.Context, _ string, includeGated bool) ([]VideoSummary, error) {
	s.lastIncludeGated = includeGated
	return []VideoSummary{{ID: "v1", IsPreview: true}}, nil
}

func catalogFixture() (*Service, *stubVideos) {
	repo := &stubRepo{courses: []Course{
		{ID: "c-free", Title: "Pinyin cơ bản", RequiredTier: TierFree, IsActive: true},
		{ID: "c-vip", Title: "HSK 4", RequiredTier: TierVIP, IsActive: true},
		{ID: "c-off", Title: "Đã gỡ", RequiredTier: TierFree, IsActive: false},
	}}
	resolver := &stubResolver{granted: map[string]UserAccess{
		"c-vip": {HasAccess: true, AccessType: "purchased", Progress: 30},
	}}
	videos := &stubVideos{}
	return NewService(repo, resolver, videos), videos
}

func TestListCatalogAnonymous(t *testing.T) {
	svc, _ := catalogFixture()

	resp, err := svc.ListCatalog(context.Background(), ListCoursesParams{}, "")
	require.NoError(t, err)

	require.Len(t, resp.Courses, 2, "inactive courses are hidden")
	for _, c := range resp.Courses {
		assert.Nil(t, c.UserAccess, "anonymous callers get no access summary")
	}
}

func TestListCatalogAuthenticated(t *testing.T) {
	svc, _ := catalogFixture()

	resp, err := svc.ListCatalog(context.Background(), ListCoursesParams{}, "u1")
	require.NoError(t, err)
	require.Len(t, resp.Courses, 2)

	byID := make(map[string]CourseResponse, len(resp.Courses))
	for _, c := range resp.Courses {
		byID[c.ID] = c
	}

	require.NotNil(t, byID["c-vip"].UserAccess)
	assert.True(t, byID["c-vip"].UserAccess.HasAccess)
	assert.Equal(t, float64(30), byID["c-vip"].UserAccess.Progress)

	require.NotNil(t, byID["c-free"].UserAccess)
	assert.False(t, byID["c-free"].UserAccess.HasAccess)
}

func TestGetCourseVideoGating(t *testing.T) {
	t.Run("free course includes gated videos for everyone", func(t *testing.T) {
		svc, videos := catalogFixture()

		_, err := svc.GetCourse(context.Background(), "c-free", "")
		require.NoError(t, err)
		assert.True(t, videos.lastIncludeGated)
	})

	t.Run("vip course previews only for anonymous", func(t *testing.T) {
		svc, videos := catalogFixture()

		_, err := svc.GetCourse(context.Background(), "c-vip", "")
		require.NoError(t, err)
		assert.False(t, videos.lastIncludeGated)
	})

	t.Run("vip course full list for access holder", func(t *testing.T) {
		svc, videos := catalogFixture()

		resp, err := svc.GetCourse(context.Background(), "c-vip", "u1")
		require.NoError(t, err)
		assert.True(t, videos.lastIncludeGated)
		require.NotNil(t, resp.UserAccess)
		assert.True(t, resp.UserAccess.HasAccess)
	})

	t.Run("deactivated course is not found", func(t *testing.T) {
		svc, _ := catalogFixture()

		_, err := svc.GetCourse(context.Background(), "c-off", "")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}
