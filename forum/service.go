package forum

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/havenforum/haven/cache"
)

// Screener receives newly created content for asynchronous classification.
// Submission must not block the caller.
type Screener interface {
	Submit(postID, content string)
}

type Service struct {
	postRepo  PostRepository
	screener  Screener
	feedCache *cache.Cache[*FeedPage]
}

func NewService(postRepo PostRepository, screener Screener, feedCache *cache.Cache[*FeedPage]) *Service {
	return &Service{
		postRepo:  postRepo,
		screener:  screener,
		feedCache: feedCache,
	}
}

type CreatePostRequest struct {
	AuthorID  string
	Content   string
	Anonymous bool
	Tags      []string
}

var ErrEmptyContent = fmt.Errorf("content must not be empty")

func (svc *Service) CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error) {
	if req.Content == "" {
		return nil, ErrEmptyContent
	}

	timeNow := time.Now()

	post := &Post{
		ID:           uuid.NewString(),
		AuthorID:     req.AuthorID,
		Content:      req.Content,
		Anonymous:    req.Anonymous,
		UrgencyLevel: UrgencyLow,
		Status:       PostStatusActive,
		Tags:         NormalizeTags(req.Tags),
		CreatedAt:    timeNow,
		UpdatedAt:    timeNow,
	}

	err := svc.postRepo.Insert(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("failed to insert post: %w", err)
	}

	if svc.screener != nil {
		svc.screener.Submit(post.ID, post.Content)
	}

	return post, nil
}

func (svc *Service) GetPost(ctx context.Context, postID string) (*Post, error) {
	post, err := svc.postRepo.Find(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}

	if post.Status == PostStatusDeleted {
		return nil, PostNotFoundError{ID: postID}
	}

	return post, nil
}

type UpdatePostRequest struct {
	Content   *string
	Anonymous *bool
	Tags      []string
}

func (svc *Service) UpdatePost(ctx context.Context, userID, postID string, req UpdatePostRequest) (*Post, error) {
	post, err := svc.GetPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	if post.AuthorID != userID {
		return nil, NotPostAuthorError{PostID: postID, UserID: userID}
	}

	if req.Content != nil && *req.Content == "" {
		return nil, ErrEmptyContent
	}

	patch := PostPatch{
		Content:   req.Content,
		Anonymous: req.Anonymous,
	}

	if !patch.IsEmpty() {
		err = svc.postRepo.Update(ctx, postID, patch)
		if err != nil {
			return nil, fmt.Errorf("failed to update post: %w", err)
		}
	}

	if len(req.Tags) > 0 {
		err = svc.postRepo.AddTags(ctx, postID, NormalizeTags(req.Tags))
		if err != nil {
			return nil, fmt.Errorf("failed to add tags: %w", err)
		}
	}

	post, err = svc.postRepo.Find(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload post: %w", err)
	}

	return post, nil
}

func (svc *Service) DeletePost(ctx context.Context, userID, postID string) error {
	post, err := svc.GetPost(ctx, postID)
	if err != nil {
		return fmt.Errorf("failed to get post: %w", err)
	}

	if post.AuthorID != userID {
		return NotPostAuthorError{PostID: postID, UserID: userID}
	}

	status := PostStatusDeleted

	err = svc.postRepo.Update(ctx, postID, PostPatch{Status: &status})
	if err != nil {
		return fmt.Errorf("failed to mark post deleted: %w", err)
	}

	return nil
}

func (svc *Service) Feed(ctx context.Context, params FeedParams) (*FeedPage, error) {
	params = params.Normalize()

	cacheKey := params.cacheKey()

	if svc.feedCache != nil {
		if page, ok := svc.feedCache.Get(cacheKey); ok {
			return page, nil
		}
	}

	posts, total, err := svc.postRepo.Feed(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to query feed: %w", err)
	}

	page := &FeedPage{
		Posts: posts,
		Pagination: Pagination{
			Page:       params.Page,
			Limit:      params.Limit,
			Total:      total,
			TotalPages: int(math.Ceil(float64(total) / float64(params.Limit))),
		},
	}

	if svc.feedCache != nil {
		svc.feedCache.Set(cacheKey, page)
	}

	return page, nil
}

// ApplyScreening records classifier output on a post. Called from the
// screening pipeline, not from request handlers.
func (svc *Service) ApplyScreening(ctx context.Context, postID string, score float64, level UrgencyLevel, tags []string, flagged bool) error {
	if !level.IsValid() {
		return fmt.Errorf("invalid urgency level: %q", level)
	}

	patch := PostPatch{
		SentimentScore: &score,
		UrgencyLevel:   &level,
	}

	if flagged {
		status := PostStatusModerated
		patch.Status = &status
	}

	err := svc.postRepo.Update(ctx, postID, patch)
	if err != nil {
		return fmt.Errorf("failed to apply screening patch: %w", err)
	}

	tags = NormalizeTags(tags)
	if len(tags) > 0 {
		err = svc.postRepo.AddTags(ctx, postID, tags)
		if err != nil {
			return fmt.Errorf("failed to add suggested tags: %w", err)
		}
	}

	return nil
}

// MarkExpertResponded flags a post as having an expert response.
func (svc *Service) MarkExpertResponded(ctx context.Context, postID string) error {
	responded := true

	err := svc.postRepo.Update(ctx, postID, PostPatch{ExpertResponded: &responded})
	if err != nil {
		return fmt.Errorf("failed to mark expert responded: %w", err)
	}

	return nil
}
