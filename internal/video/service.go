// MsHoa Learning | 2026
// service.go

package video

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mshoa-learning/backend/internal/config"
	"github.com/mshoa-learning/backend/internal/course"
	"github.com/mshoa-learning/backend/internal/entitlement"
	"github.com/mshoa-learning/backend/internal/storage"
)

var (
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrNoAccess         = errors.New("no access to this video")
)

var videoExtensions = map[string]string{
	"video/mp4":       ".mp4",
	"video/webm":      ".webm",
	"video/quicktime": ".mov",
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type Service struct {
	repo        Repository
	courses     course.Repository
	entitlement *entitlement.Service
	blobs       storage.BlobStore
	signedTTL   time.Duration
	logger      *slog.Logger
}

func NewService(
	repo Repository,
	courses course.Repository,
	ent *entitlement.Service,
	blobs storage.BlobStore,
	paymentCfg config.PaymentConfig,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:        repo,
		courses:     courses,
		entitlement: ent,
		blobs:       blobs,
		signedTTL:   paymentCfg.SignedURLExpire,
		logger:      logger,
	}
}

var _ course.VideoLister = (*Service)(nil)

// ListForCourse feeds the catalog's course detail video list.
func (s *Service) ListForCourse(
	ctx context.Context,
	courseID string,
	includeGated bool,
) ([]course.VideoSummary, error) {
	videos, err := s.repo.ListByCourse(ctx, courseID, !includeGated)
	if err != nil {
		return nil, err
	}

	summaries := make([]course.VideoSummary, 0, len(videos))
	for i := range videos {
		v := &videos[i]
		summaries = append(summaries, course.VideoSummary{
			ID:              v.ID,
			Title:           v.Title,
			Description:     v.Description,
			ThumbnailURL:    v.ThumbnailURL,
			DurationSeconds: v.DurationSeconds,
			OrderIndex:      v.OrderIndex,
			IsPreview:       v.IsPreview,
		})
	}

	return summaries, nil
}

// Stream resolves the playable URL for a video. Free and preview
// content gets the stable public URL; gated content gets a short-lived
// presigned one.
func (s *Service) Stream(
	ctx context.Context,
	videoID, userID string,
) (*StreamResponse, error) {
	v, err := s.repo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}

	c, err := s.courses.GetActiveByID(ctx, v.CourseID)
	if err != nil {
		return nil, err
	}

	access, err := s.entitlement.Check(ctx, userID, c)
	if err != nil {
		return nil, fmt.Errorf("check access: %w", err)
	}

	if !entitlement.ResolveVideo(access, v.IsPreview) {
		return nil, ErrNoAccess
	}

	if c.IsFreeTier() || v.IsPreview {
		return &StreamResponse{
			VideoID:   v.ID,
			StreamURL: v.VideoURL,
		}, nil
	}

	signed, err := s.blobs.SignedURL(ctx, v.BlobKey, s.signedTTL)
	if err != nil {
		return nil, fmt.Errorf("sign url: %w", err)
	}

	expiresAt := time.Now().Add(s.signedTTL)
	return &StreamResponse{
		VideoID:   v.ID,
		StreamURL: signed,
		ExpiresAt: &expiresAt,
	}, nil
}

// Upload stores the media and creates the video row. The thumbnail is
// optional; a failed thumbnail upload fails the whole request before
// any row is written.
func (s *Service) Upload(
	ctx context.Context,
	courseID string,
	req UploadVideoRequest,
	media io.Reader,
	mediaType string,
	thumbnail io.Reader,
	thumbnailType string,
) (*VideoResponse, error) {
	c, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	ext, ok := videoExtensions[normalizeMediaType(mediaType)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMedia, mediaType)
	}

	videoID := uuid.New().String()
	blobKey := path.Join("courses", c.ID, videoID+ext)

	videoURL, err := s.blobs.Save(ctx, blobKey, media, mediaType)
	if err != nil {
		return nil, fmt.Errorf("store video: %w", err)
	}

	var thumbnailURL *string
	if thumbnail != nil {
		thumbExt, ok := imageExtensions[normalizeMediaType(thumbnailType)]
		if !ok {
			s.cleanupBlob(blobKey)
			return nil, fmt.Errorf(
				"%w: %s", ErrUnsupportedMedia, thumbnailType,
			)
		}

		thumbKey := path.Join("courses", c.ID, videoID+"_thumb"+thumbExt)
		url, err := s.blobs.Save(ctx, thumbKey, thumbnail, thumbnailType)
		if err != nil {
			s.cleanupBlob(blobKey)
			return nil, fmt.Errorf("store thumbnail: %w", err)
		}
		thumbnailURL = &url
	}

	v := &Video{
		ID:              videoID,
		CourseID:        c.ID,
		Title:           req.Title,
		Description:     req.Description,
		BlobKey:         blobKey,
		VideoURL:        videoURL,
		ThumbnailURL:    thumbnailURL,
		DurationSeconds: req.DurationSeconds,
		OrderIndex:      req.OrderIndex,
		IsPreview:       req.IsPreview,
		IsActive:        true,
	}

	if err := s.repo.Create(ctx, v); err != nil {
		s.cleanupBlob(blobKey)
		return nil, err
	}

	if err := s.courses.AdjustVideoCount(ctx, c.ID, 1); err != nil {
		s.logger.Error("adjust video count failed",
			"course_id", c.ID, "error", err)
	}

	resp := toVideoResponse(v)
	return &resp, nil
}

func (s *Service) Update(
	ctx context.Context,
	videoID string,
	req UpdateVideoRequest,
) (*VideoResponse, error) {
	v, err := s.repo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		v.Title = *req.Title
	}
	if req.Description != nil {
		v.Description = *req.Description
	}
	if req.ThumbnailURL != nil {
		v.ThumbnailURL = req.ThumbnailURL
	}
	if req.DurationSeconds != nil {
		v.DurationSeconds = *req.DurationSeconds
	}
	if req.OrderIndex != nil {
		v.OrderIndex = *req.OrderIndex
	}
	if req.IsPreview != nil {
		v.IsPreview = *req.IsPreview
	}

	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}

	resp := toVideoResponse(v)
	return &resp, nil
}

// Delete removes the blob best-effort, then the row. A missing blob
// must not strand the database record.
func (s *Service) Delete(ctx context.Context, videoID string) error {
	v, err := s.repo.GetByID(ctx, videoID)
	if err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, v.BlobKey); err != nil {
		s.logger.Warn("delete blob failed",
			"video_id", v.ID, "blob_key", v.BlobKey, "error", err)
	}

	if err := s.repo.Delete(ctx, v.ID); err != nil {
		return err
	}

	if err := s.courses.AdjustVideoCount(ctx, v.CourseID, -1); err != nil {
		s.logger.Error("adjust video count failed",
			"course_id", v.CourseID, "error", err)
	}

	return nil
}

func (s *Service) Reorder(
	ctx context.Context,
	courseID string,
	videoIDs []string,
) error {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return err
	}

	return s.repo.Reorder(ctx, courseID, videoIDs)
}

func (s *Service) ListAdmin(
	ctx context.Context,
	courseID string,
) ([]VideoResponse, error) {
	videos, err := s.repo.ListByCourse(ctx, courseID, false)
	if err != nil {
		return nil, err
	}

	responses := make([]VideoResponse, 0, len(videos))
	for i := range videos {
		responses = append(responses, toVideoResponse(&videos[i]))
	}

	return responses, nil
}

func (s *Service) cleanupBlob(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.blobs.Delete(ctx, key); err != nil {
		s.logger.Warn("cleanup blob failed", "blob_key", key, "error", err)
	}
}

func normalizeMediaType(mediaType string) string {
	mediaType = strings.TrimSpace(strings.ToLower(mediaType))
	if idx := strings.Index(mediaType, ";"); idx >= 0 {
		mediaType = strings.TrimSpace(mediaType[:idx])
	}
	return mediaType
}
