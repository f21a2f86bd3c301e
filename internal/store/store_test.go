package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ebraholidays/voyager/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore("") // in-memory SQLite
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedAdmin(t *testing.T, s *Store) *model.Admin {
	t.Helper()
	admin := &model.Admin{
		Email:        "admin@example.com",
		PasswordHash: "$2a$10$notarealhashbutgoodenough",
		Name:         "Test Admin",
	}
	if err := s.CreateAdmin(context.Background(), admin); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	return admin
}

func seedBlog(t *testing.T, s *Store, adminID int64, title, category, status string, date time.Time) *model.Blog {
	t.Helper()
	blog := &model.Blog{
		Title:       title,
		Category:    category,
		Description: "description of " + title,
		Date:        date,
		Status:      status,
		CreatedBy:   adminID,
	}
	if err := s.CreateBlog(context.Background(), blog); err != nil {
		t.Fatalf("CreateBlog: %v", err)
	}
	return blog
}

// ---------------------------------------------------------------------------
// Admin
// ---------------------------------------------------------------------------

func TestHasAnyAdmin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	has, err := s.HasAnyAdmin(ctx)
	if err != nil {
		t.Fatalf("HasAnyAdmin: %v", err)
	}
	if has {
		t.Error("expected no admin in a fresh store")
	}

	seedAdmin(t, s)

	has, err = s.HasAnyAdmin(ctx)
	if err != nil {
		t.Fatalf("HasAnyAdmin: %v", err)
	}
	if !has {
		t.Error("expected admin to exist after create")
	}
}

func TestAdminEmailUnique(t *testing.T) {
	s := newTestStore(t)
	seedAdmin(t, s)

	dup := &model.Admin{Email: "admin@example.com", PasswordHash: "x", Name: "Dup"}
	if err := s.CreateAdmin(context.Background(), dup); err == nil {
		t.Fatal("expected unique constraint violation for duplicate email")
	}
}

func TestUpdateAdminPasswordBumpsTokenVersion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	admin := seedAdmin(t, s)

	if admin.TokenVersion != 1 {
		t.Fatalf("TokenVersion after create: got %d, want 1", admin.TokenVersion)
	}

	if err := s.UpdateAdminPassword(ctx, admin.ID, "newhash"); err != nil {
		t.Fatalf("UpdateAdminPassword: %v", err)
	}

	stored, err := s.GetAdmin(ctx, admin.ID)
	if err != nil {
		t.Fatalf("GetAdmin: %v", err)
	}
	if stored.PasswordHash != "newhash" {
		t.Errorf("PasswordHash: got %q", stored.PasswordHash)
	}
	if stored.TokenVersion != 2 {
		t.Errorf("TokenVersion: got %d, want 2", stored.TokenVersion)
	}

	if err := s.BumpAdminTokenVersion(ctx, admin.ID); err != nil {
		t.Fatalf("BumpAdminTokenVersion: %v", err)
	}
	stored, _ = s.GetAdmin(ctx, admin.ID)
	if stored.TokenVersion != 3 {
		t.Errorf("TokenVersion after bump: got %d, want 3", stored.TokenVersion)
	}
}

func TestGetAdminNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetAdmin(context.Background(), 12345); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetAdminByEmail(context.Background(), "ghost@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Blogs
// ---------------------------------------------------------------------------

func TestBlogCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	admin := seedAdmin(t, s)

	blog := seedBlog(t, s, admin.ID, "Kerala Backwaters", "Beach", model.BlogStatusDraft, time.Now().UTC())
	if blog.ID == 0 {
		t.Fatal("expected blog ID to be populated")
	}

	got, err := s.GetBlog(ctx, blog.ID)
	if err != nil {
		t.Fatalf("GetBlog: %v", err)
	}
	if got.Title != "Kerala Backwaters" {
		t.Errorf("Title: got %q", got.Title)
	}

	got.Status = model.BlogStatusPublished
	got.Image = "/uploads/blogs/blog-test.png"
	if err := s.UpdateBlog(ctx, got); err != nil {
		t.Fatalf("UpdateBlog: %v", err)
	}

	updated, err := s.GetBlog(ctx, blog.ID)
	if err != nil {
		t.Fatalf("GetBlog after update: %v", err)
	}
	if updated.Status != model.BlogStatusPublished {
		t.Errorf("Status: got %q", updated.Status)
	}
	if updated.Image != "/uploads/blogs/blog-test.png" {
		t.Errorf("Image: got %q", updated.Image)
	}

	if err := s.DeleteBlog(ctx, blog.ID); err != nil {
		t.Fatalf("DeleteBlog: %v", err)
	}
	if _, err := s.GetBlog(ctx, blog.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteBlog(ctx, blog.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for second delete, got %v", err)
	}
}

func TestGetPublishedBlogHidesDrafts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	admin := seedAdmin(t, s)

	draft := seedBlog(t, s, admin.ID, "Draft Post", "News", model.BlogStatusDraft, time.Now().UTC())
	published := seedBlog(t, s, admin.ID, "Published Post", "News", model.BlogStatusPublished, time.Now().UTC())

	if _, err := s.GetPublishedBlog(ctx, draft.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for draft via public getter, got %v", err)
	}
	if _, err := s.GetPublishedBlog(ctx, published.ID); err != nil {
		t.Fatalf("GetPublishedBlog: %v", err)
	}
	if _, err := s.GetBlog(ctx, draft.ID); err != nil {
		t.Fatalf("GetBlog should return drafts: %v", err)
	}
}

func TestListBlogsPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	admin := seedAdmin(t, s)

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		seedBlog(t, s, admin.ID, fmt.Sprintf("Post %02d", i), "Travel",
			model.BlogStatusPublished, base.Add(time.Duration(i)*time.Hour))
	}
	// Drafts must not count toward the public listing.
	seedBlog(t, s, admin.ID, "Hidden Draft", "Travel", model.BlogStatusDraft, base)

	page1, total, err := s.ListBlogs(ctx, BlogQuery{Page: 1, Limit: 5, PublishedOnly: true})
	if err != nil {
		t.Fatalf("ListBlogs page 1: %v", err)
	}
	if total != 12 {
		t.Errorf("total: got %d, want 12", total)
	}
	if len(page1) != 5 {
		t.Fatalf("page 1 size: got %d, want 5", len(page1))
	}

	page2, _, err := s.ListBlogs(ctx, BlogQuery{Page: 2, Limit: 5, PublishedOnly: true})
	if err != nil {
		t.Fatalf("ListBlogs page 2: %v", err)
	}
	if len(page2) != 5 {
		t.Fatalf("page 2 size: got %d, want 5", len(page2))
	}

	// Pages are disjoint.
	seen := map[int64]bool{}
	for _, b := range page1 {
		seen[b.ID] = true
	}
	for _, b := range page2 {
		if seen[b.ID] {
			t.Errorf("blog %d appears on both pages", b.ID)
		}
	}

	// Newest publish date first.
	for i := 1; i < len(page1); i++ {
		if page1[i].Date.After(page1[i-1].Date) {
			t.Errorf("page 1 not sorted by date descending at index %d", i)
		}
	}

	page3, _, err := s.ListBlogs(ctx, BlogQuery{Page: 3, Limit: 5, PublishedOnly: true})
	if err != nil {
		t.Fatalf("ListBlogs page 3: %v", err)
	}
	if len(page3) != 2 {
		t.Errorf("page 3 size: got %d, want 2", len(page3))
	}
}

func TestListBlogsSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	admin := seedAdmin(t, s)
	now := time.Now().UTC()

	seedBlog(t, s, admin.ID, "Kerala Backwaters", "Nature", model.BlogStatusPublished, now)
	seedBlog(t, s, admin.ID, "Goa Getaway", "Beach", model.BlogStatusPublished, now)
	seedBlog(t, s, admin.ID, "City Breaks", "Urban", model.BlogStatusPublished, now)

	// Case-insensitive title match.
	blogs, total, err := s.ListBlogs(ctx, BlogQuery{Page: 1, Limit: 10, Search: "kerala", PublishedOnly: true})
	if err != nil {
		t.Fatalf("ListBlogs: %v", err)
	}
	if total != 1 || len(blogs) != 1 || blogs[0].Title != "Kerala Backwaters" {
		t.Errorf("search kerala: got %d results", len(blogs))
	}

	// Case-insensitive category match.
	blogs, _, err = s.ListBlogs(ctx, BlogQuery{Page: 1, Limit: 10, Search: "BEACH", PublishedOnly: true})
	if err != nil {
		t.Fatalf("ListBlogs: %v", err)
	}
	if len(blogs) != 1 || blogs[0].Title != "Goa Getaway" {
		t.Errorf("search BEACH: got %d results", len(blogs))
	}

	// No match.
	_, total, err = s.ListBlogs(ctx, BlogQuery{Page: 1, Limit: 10, Search: "mountain", PublishedOnly: true})
	if err != nil {
		t.Fatalf("ListBlogs: %v", err)
	}
	if total != 0 {
		t.Errorf("search mountain: got total %d, want 0", total)
	}
}

func TestBlogStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	admin := seedAdmin(t, s)
	now := time.Now().UTC()

	seedBlog(t, s, admin.ID, "One", "A", model.BlogStatusPublished, now)
	seedBlog(t, s, admin.ID, "Two", "A", model.BlogStatusPublished, now)
	seedBlog(t, s, admin.ID, "Three", "B", model.BlogStatusDraft, now)

	stats, err := s.BlogStats(ctx, "")
	if err != nil {
		t.Fatalf("BlogStats: %v", err)
	}
	if stats.Total != 3 || stats.Published != 2 || stats.Drafts != 1 {
		t.Errorf("stats: got %+v", stats)
	}

	// Stats respect the search filter.
	stats, err = s.BlogStats(ctx, "three")
	if err != nil {
		t.Fatalf("BlogStats with search: %v", err)
	}
	if stats.Total != 1 || stats.Published != 0 || stats.Drafts != 1 {
		t.Errorf("filtered stats: got %+v", stats)
	}
}

// ---------------------------------------------------------------------------
// Enquiries
// ---------------------------------------------------------------------------

func seedEnquiry(t *testing.T, s *Store, name, place, status string) *model.Enquiry {
	t.Helper()
	enq := &model.Enquiry{
		Name:   name,
		Email:  name + "@example.com",
		Phone:  "9999999999",
		Place:  place,
		Status: status,
	}
	if err := s.CreateEnquiry(context.Background(), enq); err != nil {
		t.Fatalf("CreateEnquiry: %v", err)
	}
	return enq
}

func TestEnquiryStatusFilterAndSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedEnquiry(t, s, "alice", "Kochi", model.EnquiryStatusNew)
	seedEnquiry(t, s, "bob", "Munnar", model.EnquiryStatusContacted)
	seedEnquiry(t, s, "carol", "Kochi", model.EnquiryStatusCompleted)

	// Status filter, exact match.
	enqs, total, err := s.ListEnquiries(ctx, EnquiryQuery{Page: 1, Limit: 10, Status: model.EnquiryStatusContacted})
	if err != nil {
		t.Fatalf("ListEnquiries: %v", err)
	}
	if total != 1 || enqs[0].Name != "bob" {
		t.Errorf("status filter: got %d results", total)
	}

	// "all" disables the filter.
	_, total, err = s.ListEnquiries(ctx, EnquiryQuery{Page: 1, Limit: 10, Status: "all"})
	if err != nil {
		t.Fatalf("ListEnquiries: %v", err)
	}
	if total != 3 {
		t.Errorf("status all: got total %d, want 3", total)
	}

	// Search across name/email/place, case-insensitive.
	_, total, err = s.ListEnquiries(ctx, EnquiryQuery{Page: 1, Limit: 10, Search: "KOCHI"})
	if err != nil {
		t.Fatalf("ListEnquiries: %v", err)
	}
	if total != 2 {
		t.Errorf("search KOCHI: got total %d, want 2", total)
	}
}

func TestEnquiryStatusUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	enq := seedEnquiry(t, s, "alice", "Kochi", model.EnquiryStatusNew)

	updated, err := s.UpdateEnquiryStatus(ctx, enq.ID, model.EnquiryStatusContacted)
	if err != nil {
		t.Fatalf("UpdateEnquiryStatus: %v", err)
	}
	if updated.Status != model.EnquiryStatusContacted {
		t.Errorf("Status: got %q", updated.Status)
	}

	if _, err := s.UpdateEnquiryStatus(ctx, 99999, model.EnquiryStatusContacted); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestEnquiryDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	enq := seedEnquiry(t, s, "alice", "Kochi", model.EnquiryStatusNew)

	if err := s.DeleteEnquiry(ctx, enq.ID); err != nil {
		t.Fatalf("DeleteEnquiry: %v", err)
	}
	if _, err := s.GetEnquiry(ctx, enq.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteEnquiry(ctx, enq.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for second delete, got %v", err)
	}
}

func TestEnquiryStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedEnquiry(t, s, "a", "X", model.EnquiryStatusNew)
	seedEnquiry(t, s, "b", "X", model.EnquiryStatusNew)
	seedEnquiry(t, s, "c", "X", model.EnquiryStatusContacted)
	seedEnquiry(t, s, "d", "X", model.EnquiryStatusCompleted)

	stats, err := s.EnquiryStats(ctx)
	if err != nil {
		t.Fatalf("EnquiryStats: %v", err)
	}
	if stats.Total != 4 || stats.New != 2 || stats.Contacted != 1 || stats.Completed != 1 {
		t.Errorf("stats: got %+v", stats)
	}
}
