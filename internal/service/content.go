package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/vanshika/marketplace/internal/domain"
	"github.com/vanshika/marketplace/internal/store"
)

// PageInput is the editable content of a page. An empty slug is derived from the title.
type PageInput struct {
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Published bool   `json:"published"`
}

func (in PageInput) normalize() (PageInput, error) {
	in.Title = sanitizeString(in.Title)
	if in.Title == "" {
		return in, invalid("title", "is required")
	}
	if in.Slug == "" {
		in.Slug = in.Title
	}
	in.Slug = slugify(in.Slug)
	if in.Slug == "" {
		return in, invalid("slug", "must contain letters or digits")
	}
	in.Body = strings.TrimSpace(in.Body)
	return in, nil
}

// CreatePage adds a content page with a unique slug.
func (s *Service) CreatePage(ctx context.Context, in PageInput) (domain.Page, error) {
	in, err := in.normalize()
	if err != nil {
		return domain.Page{}, err
	}
	if err := s.ensureSlugAvailable(ctx, in.Slug, ""); err != nil {
		return domain.Page{}, err
	}
	now := s.now()
	return s.store.Pages().Create(ctx, domain.Page{
		ID:        s.idFn("page"),
		Slug:      in.Slug,
		Title:     in.Title,
		Body:      in.Body,
		Published: in.Published,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// UpdatePage replaces the content of a page.
func (s *Service) UpdatePage(ctx context.Context, pageID string, in PageInput) (domain.Page, error) {
	in, err := in.normalize()
	if err != nil {
		return domain.Page{}, err
	}
	page, err := s.store.Pages().Get(ctx, pageID)
	if err != nil {
		return domain.Page{}, fmt.Errorf("load page: %w", err)
	}
	if err := s.ensureSlugAvailable(ctx, in.Slug, page.ID); err != nil {
		return domain.Page{}, err
	}
	page.Slug = in.Slug
	page.Title = in.Title
	page.Body = in.Body
	page.Published = in.Published
	page.UpdatedAt = s.now()
	return s.store.Pages().Update(ctx, page)
}

// PageBySlug finds a page by slug. Unpublished pages are only returned when includeDrafts is set.
func (s *Service) PageBySlug(ctx context.Context, slug string, includeDrafts bool) (domain.Page, error) {
	slug = slugify(slug)
	pages, err := s.store.Pages().List(ctx)
	if err != nil {
		return domain.Page{}, fmt.Errorf("list pages: %w", err)
	}
	for _, p := range pages {
		if p.Slug == slug && (p.Published || includeDrafts) {
			return p, nil
		}
	}
	return domain.Page{}, fmt.Errorf("page %s: %w", slug, store.ErrNotFound)
}

func (s *Service) ensureSlugAvailable(ctx context.Context, slug, selfID string) error {
	pages, err := s.store.Pages().List(ctx)
	if err != nil {
		return fmt.Errorf("list pages: %w", err)
	}
	for _, p := range pages {
		if p.ID != selfID && p.Slug == slug {
			return fmt.Errorf("page slug %s: %w", slug, store.ErrConflict)
		}
	}
	return nil
}
