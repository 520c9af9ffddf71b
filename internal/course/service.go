// MsHoa Learning | 2026
// service.go

package course

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// AccessResolver answers whether a user may read a course. Implemented
// by the entitlement package; declared here so the catalog does not
// depend on it directly.
type AccessResolver interface {
	ResolveAccess(
		ctx context.Context,
		userID string,
		course *Course,
	) (UserAccess, error)
}

// VideoLister supplies the video list for course detail responses.
type VideoLister interface {
	ListForCourse(
		ctx context.Context,
		courseID string,
		includeGated bool,
	) ([]VideoSummary, error)
}

type Service struct {
	repo     Repository
	resolver AccessResolver
	videos   VideoLister
}

func NewService(
	repo Repository,
	resolver AccessResolver,
	videos VideoLister,
) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		videos:   videos,
	}
}

// ListCatalog returns the public course catalog. userID is empty for
// anonymous callers; authenticated callers get a per-course access
// summary layered onto each entry.
func (s *Service) ListCatalog(
	ctx context.Context,
	params ListCoursesParams,
	userID string,
) (*CourseListResponse, error) {
	params.Normalize()

	courses, total, err := s.repo.List(ctx, params, true)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}

	responses := make([]CourseResponse, 0, len(courses))
	for i := range courses {
		resp := ToCourseResponse(&courses[i])

		if userID != "" {
			access, err := s.resolver.ResolveAccess(ctx, userID, &courses[i])
			if err != nil {
				return nil, fmt.Errorf("resolve access: %w", err)
			}
			resp.UserAccess = &access
		}

		responses = append(responses, resp)
	}

	return &CourseListResponse{
		Courses:    responses,
		TotalCount: total,
		Page:       params.Page,
		PerPage:    params.PerPage,
	}, nil
}

// ListCatalogAdmin lists all courses including deactivated ones, with
// no per-user access resolution.
func (s *Service) ListCatalogAdmin(
	ctx context.Context,
	params ListCoursesParams,
) (*CourseListResponse, error) {
	params.Normalize()

	courses, total, err := s.repo.List(ctx, params, false)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}

	responses := make([]CourseResponse, 0, len(courses))
	for i := range courses {
		responses = append(responses, ToCourseResponse(&courses[i]))
	}

	return &CourseListResponse{
		Courses:    responses,
		TotalCount: total,
		Page:       params.Page,
		PerPage:    params.PerPage,
	}, nil
}

// GetCourse returns the course detail. The video list is filtered to
// previews unless the course is free tier or the caller holds access.
func (s *Service) GetCourse(
	ctx context.Context,
	id, userID string,
) (*CourseDetailResponse, error) {
	c, err := s.repo.GetActiveByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := CourseDetailResponse{
		CourseResponse: ToCourseResponse(c),
		Description:    c.Description,
	}

	includeGated := c.IsFreeTier()

	if userID != "" {
		access, err := s.resolver.ResolveAccess(ctx, userID, c)
		if err != nil {
			return nil, fmt.Errorf("resolve access: %w", err)
		}
		resp.UserAccess = &access
		includeGated = includeGated || access.HasAccess
	}

	videos, err := s.videos.ListForCourse(ctx, c.ID, includeGated)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	resp.Videos = videos

	return &resp, nil
}

func (s *Service) MyCourses(
	ctx context.Context,
	userID string,
) ([]EnrolledCourseResponse, error) {
	enrolled, err := s.repo.ListEnrolled(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]EnrolledCourseResponse, 0, len(enrolled))
	for i := range enrolled {
		e := &enrolled[i]
		responses = append(responses, EnrolledCourseResponse{
			CourseResponse: ToCourseResponse(&e.Course),
			AccessType:     e.AccessType,
			Progress:       e.Progress,
			PurchasedAt:    e.PurchasedAt,
			ExpiresAt:      e.AccessExpires,
			CompletionDate: e.CompletionDate,
		})
	}

	return responses, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*Course, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetActiveByID(
	ctx context.Context,
	id string,
) (*Course, error) {
	return s.repo.GetActiveByID(ctx, id)
}

func (s *Service) Create(
	ctx context.Context,
	req CreateCourseRequest,
) (*Course, error) {
	var thumbnail *string
	if req.ThumbnailURL != "" {
		thumbnail = &req.ThumbnailURL
	}

	c := &Course{
		ID:                      uuid.New().String(),
		Title:                   req.Title,
		Description:             req.Description,
		ShortDescription:        req.ShortDescription,
		Level:                   req.Level,
		RequiredTier:            req.RequiredTier,
		PriceVND:                req.PriceVND,
		VIPPriceVND:             req.VIPPriceVND,
		CanPurchaseIndividually: req.CanPurchaseIndividually,
		ThumbnailURL:            thumbnail,
		IsFeatured:              req.IsFeatured,
		IsActive:                true,
		OrderIndex:              req.OrderIndex,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) Update(
	ctx context.Context,
	id string,
	req UpdateCourseRequest,
) (*Course, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		c.Title = *req.Title
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.ShortDescription != nil {
		c.ShortDescription = *req.ShortDescription
	}
	if req.Level != nil {
		c.Level = *req.Level
	}
	if req.RequiredTier != nil {
		c.RequiredTier = *req.RequiredTier
	}
	if req.PriceVND != nil {
		c.PriceVND = *req.PriceVND
	}
	if req.VIPPriceVND != nil {
		c.VIPPriceVND = req.VIPPriceVND
	}
	if req.CanPurchaseIndividually != nil {
		c.CanPurchaseIndividually = *req.CanPurchaseIndividually
	}
	if req.ThumbnailURL != nil {
		c.ThumbnailURL = req.ThumbnailURL
	}
	if req.IsFeatured != nil {
		c.IsFeatured = *req.IsFeatured
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	if req.OrderIndex != nil {
		c.OrderIndex = *req.OrderIndex
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) Deactivate(ctx context.Context, id string) error {
	return s.repo.Deactivate(ctx, id)
}
