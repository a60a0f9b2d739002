package service

import (
	"context"
	"strings"

	"scrolla/internal/cache"
	"scrolla/internal/featureflags"
	"scrolla/internal/models"
	"scrolla/internal/observability"
	"scrolla/internal/repository"
	"scrolla/internal/validation"
)

const (
	maxPostLen     = 1000
	maxPostImages  = 10
	maxPostHashtag = 20
)

type PostService struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	userRepo    repository.UserRepository
	cache       *cache.Cache
	flags       *featureflags.Manager
}

type CreatePostInput struct {
	UserID   uint
	Content  string
	Images   []string
	Mood     string
	Hashtags []string
	KidSafe  bool
}

// UpdatePostInput carries a partial edit; nil fields are left unchanged.
type UpdatePostInput struct {
	UserID   uint
	PostID   uint
	Content  *string
	Images   *[]string
	Mood     *string
	Hashtags *[]string
	KidSafe  *bool
}

type ListPostsInput struct {
	Mood     string
	KidSafe  bool
	Limit    int
	Page     int
	ViewerID uint
}

// PostPage is a page of posts.
type PostPage = models.Page[*models.Post]

// ToggleResult is the outcome of a like toggle.
type ToggleResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

// NewPostService wires the post rules. feed and flags may be nil, which
// disables caching and every flag.
func NewPostService(
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	userRepo repository.UserRepository,
	feed *cache.Cache,
	flags *featureflags.Manager,
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		userRepo:    userRepo,
		cache:       feed,
		flags:       flags,
	}
}

// ListPosts is the mood / kid-safe feed.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) (PostPage, error) {
	filter, err := moodFilter(in.Mood)
	if err != nil {
		return PostPage{}, err
	}

	kidSafe := in.KidSafe
	if in.ViewerID != 0 {
		viewer, err := s.userRepo.GetByID(ctx, in.ViewerID)
		switch {
		case models.ErrorCode(err) == models.CodeNotFound:
			// The token outlived its account; read the feed anonymously.
			in.ViewerID = 0
		case err != nil:
			return PostPage{}, err
		default:
			kidSafe = kidSafe || viewer.KidsMode
		}
	}

	p := NewPagination(in.Limit, in.Page)
	f := repository.PostFilter{
		Mood:        filter,
		KidSafeOnly: kidSafe,
		Limit:       p.Limit,
		Offset:      p.Offset(),
	}
	if in.ViewerID != 0 && s.flags.Enabled(featureflags.ServerSideSuppression, in.ViewerID) {
		f.SuppressFor = in.ViewerID
	}

	var page PostPage
	load := func() error {
		posts, total, err := s.postRepo.List(ctx, f)
		if err != nil {
			return err
		}
		page = models.NewPage(posts, total, p.Page, p.Limit)
		return nil
	}

	// Only anonymous pages are shared between requests.
	if in.ViewerID == 0 && s.flags.Enabled(featureflags.FeedCache, 0) {
		key := s.cache.FeedKey(ctx, string(filter), kidSafe, p.Page, p.Limit)
		err = s.cache.Aside(ctx, key, &page, cache.FeedTTL, load)
	} else {
		err = load()
	}
	if err != nil {
		return PostPage{}, err
	}

	if err := s.decorate(ctx, in.ViewerID, page.Items...); err != nil {
		return PostPage{}, err
	}
	return page, nil
}

// ListUserPosts lists one author's posts, newest first.
func (s *PostService) ListUserPosts(ctx context.Context, authorID uint, limit, pageNum int, viewerID uint) (PostPage, error) {
	if _, err := s.userRepo.GetByID(ctx, authorID); err != nil {
		return PostPage{}, err
	}
	p := NewPagination(limit, pageNum)
	posts, total, err := s.postRepo.List(ctx, repository.PostFilter{
		AuthorID: authorID,
		Limit:    p.Limit,
		Offset:   p.Offset(),
	})
	if err != nil {
		return PostPage{}, err
	}
	if err := s.decorate(ctx, viewerID, posts...); err != nil {
		return PostPage{}, err
	}
	return models.NewPage(posts, total, p.Page, p.Limit), nil
}

// ListSaved lists the posts in the user's saved set.
func (s *PostService) ListSaved(ctx context.Context, userID uint, limit, pageNum int) (PostPage, error) {
	p := NewPagination(limit, pageNum)
	posts, total, err := s.postRepo.ListSaved(ctx, userID, p.Limit, p.Offset())
	if err != nil {
		return PostPage{}, err
	}
	if err := s.decorate(ctx, userID, posts...); err != nil {
		return PostPage{}, err
	}
	return models.NewPage(posts, total, p.Page, p.Limit), nil
}

// GetPost returns the post with its comments and the viewer's relation to it.
func (s *PostService) GetPost(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByPost(ctx, id)
	if err != nil {
		return nil, err
	}
	post.Comments = make([]models.Comment, 0, len(comments))
	for _, c := range comments {
		post.Comments = append(post.Comments, *c)
	}
	if err := s.decorate(ctx, viewerID, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	post := &models.Post{
		UserID:   in.UserID,
		Content:  in.Content,
		Images:   in.Images,
		Mood:     models.Mood(in.Mood),
		Hashtags: in.Hashtags,
		KidSafe:  in.KidSafe,
	}
	if err := normalizePost(post); err != nil {
		return nil, err
	}

	author, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	post.User = *author
	s.cache.InvalidateFeed(ctx)
	return post, nil
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if err := AssertOwner(in.UserID, post.UserID); err != nil {
		return nil, err
	}

	if in.Content != nil {
		post.Content = *in.Content
	}
	if in.Images != nil {
		post.Images = *in.Images
	}
	if in.Mood != nil {
		post.Mood = models.Mood(*in.Mood)
	}
	if in.Hashtags != nil {
		post.Hashtags = *in.Hashtags
	}
	if in.KidSafe != nil {
		post.KidSafe = *in.KidSafe
	}
	if err := normalizePost(post); err != nil {
		return nil, err
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	s.cache.InvalidateFeed(ctx)
	return post, nil
}

// DeletePost removes the post and returns it as it was.
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := AssertOwner(userID, post.UserID); err != nil {
		return nil, err
	}
	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return nil, err
	}
	s.cache.InvalidateFeed(ctx)
	return post, nil
}

func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (ToggleResult, error) {
	liked, count, err := s.postRepo.ToggleLike(ctx, userID, postID)
	if err != nil {
		return ToggleResult{}, err
	}
	observability.Interactions.WithLabelValues("like", observability.ToggleState(liked)).Inc()
	s.cache.InvalidateFeed(ctx)
	return ToggleResult{Liked: liked, LikeCount: count}, nil
}

// ToggleSave, ToggleHide and Report flip the post in one of the user's sets.
func (s *PostService) ToggleSave(ctx context.Context, userID, postID uint) (bool, error) {
	return s.toggleSet(ctx, models.SetSaved, userID, postID)
}

func (s *PostService) ToggleHide(ctx context.Context, userID, postID uint) (bool, error) {
	return s.toggleSet(ctx, models.SetHidden, userID, postID)
}

func (s *PostService) Report(ctx context.Context, userID, postID uint) (bool, error) {
	return s.toggleSet(ctx, models.SetReported, userID, postID)
}

func (s *PostService) toggleSet(ctx context.Context, set models.PostSet, userID, postID uint) (bool, error) {
	on, err := s.postRepo.ToggleMembership(ctx, set, userID, postID)
	if err != nil {
		return false, err
	}
	observability.Interactions.WithLabelValues(string(set), observability.ToggleState(on)).Inc()
	return on, nil
}

// decorate fills Liked and Saved for the viewer.
func (s *PostService) decorate(ctx context.Context, viewerID uint, posts ...*models.Post) error {
	if viewerID == 0 || len(posts) == 0 {
		return nil
	}
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	liked, saved, err := s.postRepo.Relations(ctx, viewerID, ids)
	if err != nil {
		return err
	}
	for _, p := range posts {
		p.Liked = liked[p.ID]
		p.Saved = saved[p.ID]
	}
	return nil
}

// moodFilter maps the listing query onto a stored mood; "" and "all" match any.
func moodFilter(raw string) (models.Mood, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" || raw == models.MoodAll {
		return "", nil
	}
	m := models.Mood(raw)
	if !m.Valid() {
		return "", models.NewFieldValidationError(models.FieldError{Field: "mood", Message: "Invalid mood filter"})
	}
	return m, nil
}

// normalizePost trims and validates the author-editable fields in place.
func normalizePost(p *models.Post) error {
	var fields []models.FieldError

	p.Content = strings.TrimSpace(p.Content)
	if err := validation.ValidateLength("content", p.Content, 1, maxPostLen); err != nil {
		fields = append(fields, models.FieldError{Field: "content", Message: err.Error()})
	}

	if !p.Mood.Valid() {
		fields = append(fields, models.FieldError{Field: "mood", Message: "mood must be one of calm, motivated, low, entertain, energetic, discuss"})
	}

	if p.Images == nil {
		p.Images = []string{}
	}
	if len(p.Images) > maxPostImages {
		fields = append(fields, models.FieldError{Field: "images", Message: "a post can have at most 10 images"})
	}
	for _, img := range p.Images {
		if err := validation.ValidateURI(img); err != nil {
			fields = append(fields, models.FieldError{Field: "images", Message: err.Error()})
			break
		}
	}

	p.Hashtags = validation.NormalizeHashtags(p.Hashtags)
	if len(p.Hashtags) > maxPostHashtag {
		fields = append(fields, models.FieldError{Field: "hashtags", Message: "a post can have at most 20 hashtags"})
	}

	if len(fields) > 0 {
		return models.NewFieldValidationError(fields...)
	}
	return nil
}
