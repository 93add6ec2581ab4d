package content

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
)

// GROQ queries against the content schema. Slugs are flattened to strings and
// publish dates coalesce to the document creation time.
const (
	recentPostsQuery = `*[_type == "post" && defined(slug.current)] | order(coalesce(publishedAt, _createdAt) desc){
  _id, title, "slug": slug.current, "publishedDate": coalesce(publishedAt, _createdAt)
}`

	postBySlugQuery = `*[_type == "post" && slug.current == $slug][0]{
  title,
  "name": author->name,
  "authorSlug": author->slug.current,
  "categories": categories[]->title,
  "publishedDate": coalesce(publishedAt, _createdAt),
  body
}`

	caseStudiesQuery = `*[_type == "caseStudy" && defined(slug.current) && defined(publishedAt) && publishedAt <= now()] | order(publishedAt desc){
  _id, title, "slug": slug.current, clientName, "publishedDate": coalesce(publishedAt, _createdAt)
}`

	caseStudyBySlugQuery = `*[_type == "caseStudy" && slug.current == $slug][0]{
  title,
  clientName,
  role,
  disciplines,
  "name": author->name,
  "authorSlug": author->slug.current,
  "publishedDate": coalesce(publishedAt, _createdAt),
  intro,
  sections
}`

	authorBySlugQuery = `*[_type == "author" && slug.current == $slug][0]{
  _id,
  name,
  "slug": slug.current,
  bio,
  "posts": *[_type == "post" && references(^._id)] | order(coalesce(publishedAt, _createdAt) desc){
    _id, title, "slug": slug.current, "publishedDate": coalesce(publishedAt, _createdAt)
  }
}`

	searchPostsQuery = `*[_type == "post" && defined(slug.current) && (
  title match $m ||
  pt::text(body) match $m ||
  author->name match $m ||
  array::join(coalesce(categories[]->title, []), " ") match $m
)] | order(coalesce(publishedAt, _createdAt) desc) [0...20]{
  _id, _type, title, "slug": slug.current, "publishedDate": coalesce(publishedAt, _createdAt)
}`

	searchCaseStudiesQuery = `*[_type == "caseStudy" && defined(slug.current) && (
  title match $m ||
  clientName match $m ||
  role match $m ||
  array::join(coalesce(disciplines, []), " ") match $m ||
  pt::text(intro) match $m ||
  author->name match $m
)] | order(coalesce(publishedAt, _createdAt) desc) [0...20]{
  _id, _type, title, "slug": slug.current, clientName, "publishedDate": coalesce(publishedAt, _createdAt)
}`
)

// Service composes content queries with the read-path cache.
type Service struct {
	querier Querier
	cache   *Cache
}

// NewService builds Service instance.
func NewService(querier Querier, cache *Cache) *Service {
	return &Service{querier: querier, cache: cache}
}

// RecentPosts lists published posts, newest first.
func (s *Service) RecentPosts(ctx context.Context) ([]PostSummary, error) {
	var posts []PostSummary
	err := s.cache.FetchJSON(ctx, "content:posts:recent", &posts, func(ctx context.Context) (interface{}, error) {
		var loaded []PostSummary
		if err := s.querier.Query(ctx, recentPostsQuery, nil, &loaded); err != nil {
			return nil, err
		}
		return loaded, nil
	})
	return posts, err
}

// PostBySlug fetches a single post.
func (s *Service) PostBySlug(ctx context.Context, slug string) (*Post, error) {
	var post Post
	err := s.cache.FetchJSON(ctx, "content:post:"+slug, &post, func(ctx context.Context) (interface{}, error) {
		var loaded Post
		if err := s.querier.Query(ctx, postBySlugQuery, map[string]string{"slug": slug}, &loaded); err != nil {
			return nil, err
		}
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	if post.Title == "" {
		return nil, ErrNotFound
	}
	return &post, nil
}

// CaseStudies lists published case studies, newest first.
func (s *Service) CaseStudies(ctx context.Context) ([]CaseStudySummary, error) {
	var studies []CaseStudySummary
	err := s.cache.FetchJSON(ctx, "content:casestudies", &studies, func(ctx context.Context) (interface{}, error) {
		var loaded []CaseStudySummary
		if err := s.querier.Query(ctx, caseStudiesQuery, nil, &loaded); err != nil {
			return nil, err
		}
		return loaded, nil
	})
	return studies, err
}

// CaseStudyBySlug fetches a single case study.
func (s *Service) CaseStudyBySlug(ctx context.Context, slug string) (*CaseStudy, error) {
	var study CaseStudy
	err := s.cache.FetchJSON(ctx, "content:casestudy:"+slug, &study, func(ctx context.Context) (interface{}, error) {
		var loaded CaseStudy
		if err := s.querier.Query(ctx, caseStudyBySlugQuery, map[string]string{"slug": slug}, &loaded); err != nil {
			return nil, err
		}
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	if study.Title == "" {
		return nil, ErrNotFound
	}
	return &study, nil
}

// AuthorBySlug fetches an author and their posts.
func (s *Service) AuthorBySlug(ctx context.Context, slug string) (*Author, error) {
	var author Author
	err := s.cache.FetchJSON(ctx, "content:author:"+slug, &author, func(ctx context.Context) (interface{}, error) {
		var loaded Author
		if err := s.querier.Query(ctx, authorBySlugQuery, map[string]string{"slug": slug}, &loaded); err != nil {
			return nil, err
		}
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	if author.ID == "" {
		return nil, ErrNotFound
	}
	return &author, nil
}

// Search matches posts and case studies against the term as a substring,
// fanning both queries out concurrently. An empty term returns empty results
// rather than scanning the dataset.
func (s *Service) Search(ctx context.Context, term string) (*SearchResult, error) {
	result := &SearchResult{Posts: []SearchHit{}, CaseStudies: []SearchHit{}}
	term = strings.TrimSpace(term)
	if term == "" {
		return result, nil
	}
	params := map[string]string{"m": "*" + term + "*"}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.searchQuery(gctx, searchPostsQuery, params, &result.Posts)
	})
	g.Go(func() error {
		return s.searchQuery(gctx, searchCaseStudiesQuery, params, &result.CaseStudies)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) searchQuery(ctx context.Context, query string, params map[string]string, dest *[]SearchHit) error {
	err := s.querier.Query(ctx, query, params, dest)
	if err != nil && err != ErrNotFound {
		return err
	}
	return nil
}

// Warm refreshes the list caches from the content store, bypassing any cached
// entries so the periodic job keeps them fresh ahead of expiry.
func (s *Service) Warm(ctx context.Context) error {
	var posts []PostSummary
	if err := s.querier.Query(ctx, recentPostsQuery, nil, &posts); err != nil && err != ErrNotFound {
		return err
	}
	if err := s.cache.StoreJSON(ctx, "content:posts:recent", posts); err != nil {
		return err
	}
	var studies []CaseStudySummary
	if err := s.querier.Query(ctx, caseStudiesQuery, nil, &studies); err != nil && err != ErrNotFound {
		return err
	}
	return s.cache.StoreJSON(ctx, "content:casestudies", studies)
}
