package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/ebraholidays/voyager/internal/model"
)

// Store is the persistence layer for the site, backed by SQLite. It holds
// the administrator account, blog posts, and customer enquiries.
type Store struct {
	db *sqlx.DB
}

// NewStore creates a new store. Pass empty string for in-memory.
func NewStore(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == "" {
		dsn = ":memory:?_journal_mode=WAL"
	} else {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dsn = filepath.Join(dataDir, "voyager.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	// Enable foreign keys (off by default in SQLite).
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ---------------------------------------------------------------------------
// Admin
// ---------------------------------------------------------------------------

// CreateAdmin inserts the administrator account. The ID, CreatedAt, and
// UpdatedAt fields on admin are populated after a successful insert.
func (s *Store) CreateAdmin(ctx context.Context, admin *model.Admin) error {
	now := time.Now().UTC()
	admin.CreatedAt = now
	admin.UpdatedAt = now
	if admin.TokenVersion == 0 {
		admin.TokenVersion = 1
	}

	const q = `INSERT INTO admins
		(email, password_hash, name, token_version, created_at, updated_at)
		VALUES
		(:email, :password_hash, :name, :token_version, :created_at, :updated_at)`

	result, err := s.db.NamedExecContext(ctx, q, admin)
	if err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get admin id: %w", err)
	}
	admin.ID = id
	return nil
}

// GetAdmin returns an admin account by ID.
func (s *Store) GetAdmin(ctx context.Context, id int64) (*model.Admin, error) {
	var admin model.Admin
	if err := s.db.GetContext(ctx, &admin, "SELECT * FROM admins WHERE id = ?", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return &admin, nil
}

// GetAdminByEmail returns an admin account by email address.
func (s *Store) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var admin model.Admin
	if err := s.db.GetContext(ctx, &admin, "SELECT * FROM admins WHERE email = ?", email); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get admin by email: %w", err)
	}
	return &admin, nil
}

// ListAdmins returns all admin accounts. The store is expected to hold
// exactly one, but the query does not assume it.
func (s *Store) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	var admins []model.Admin
	if err := s.db.SelectContext(ctx, &admins, "SELECT * FROM admins ORDER BY email"); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

// HasAnyAdmin reports whether the administrator account exists. The setup
// endpoint refuses to run when it does.
func (s *Store) HasAnyAdmin(ctx context.Context) (bool, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM admins"); err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	return count > 0, nil
}

// UpdateAdminLastLogin sets the last_login_at timestamp for an admin.
func (s *Store) UpdateAdminLastLogin(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		"UPDATE admins SET last_login_at = ?, updated_at = ? WHERE id = ?", now, now, id)
	if err != nil {
		return fmt.Errorf("update admin last login: %w", err)
	}
	return requireRowsAffected(result, "update admin last login")
}

// UpdateAdminPassword replaces the password hash and bumps the token version,
// invalidating every token issued before the change.
func (s *Store) UpdateAdminPassword(ctx context.Context, id int64, passwordHash string) error {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE admins SET password_hash = ?, token_version = token_version + 1, updated_at = ?
		 WHERE id = ?`, passwordHash, now, id)
	if err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}
	return requireRowsAffected(result, "update admin password")
}

// BumpAdminTokenVersion invalidates all outstanding tokens for an admin
// without touching the password. Used by logout.
func (s *Store) BumpAdminTokenVersion(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		"UPDATE admins SET token_version = token_version + 1, updated_at = ? WHERE id = ?", now, id)
	if err != nil {
		return fmt.Errorf("bump admin token version: %w", err)
	}
	return requireRowsAffected(result, "bump admin token version")
}

// ---------------------------------------------------------------------------
// Blogs
// ---------------------------------------------------------------------------

// BlogQuery selects a page of blog posts. Search is matched case-insensitively
// as a substring of title or category. PublishedOnly restricts results to
// published posts for the public endpoints.
type BlogQuery struct {
	Page          int
	Limit         int
	Search        string
	PublishedOnly bool
}

// CreateBlog inserts a new blog post. The ID, CreatedAt, and UpdatedAt fields
// on blog are populated after a successful insert.
func (s *Store) CreateBlog(ctx context.Context, blog *model.Blog) error {
	now := time.Now().UTC()
	blog.CreatedAt = now
	blog.UpdatedAt = now

	const q = `INSERT INTO blogs
		(title, category, description, date, status, image, created_by, created_at, updated_at)
		VALUES
		(:title, :category, :description, :date, :status, :image, :created_by, :created_at, :updated_at)`

	result, err := s.db.NamedExecContext(ctx, q, blog)
	if err != nil {
		return fmt.Errorf("insert blog: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get blog id: %w", err)
	}
	blog.ID = id
	return nil
}

// GetBlog returns a blog post by ID regardless of status.
func (s *Store) GetBlog(ctx context.Context, id int64) (*model.Blog, error) {
	var blog model.Blog
	if err := s.db.GetContext(ctx, &blog, "SELECT * FROM blogs WHERE id = ?", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get blog: %w", err)
	}
	return &blog, nil
}

// GetPublishedBlog returns a blog post by ID only if it is published.
// Draft posts are indistinguishable from missing ones to the public API.
func (s *Store) GetPublishedBlog(ctx context.Context, id int64) (*model.Blog, error) {
	var blog model.Blog
	err := s.db.GetContext(ctx, &blog,
		"SELECT * FROM blogs WHERE id = ? AND status = ?", id, model.BlogStatusPublished)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get published blog: %w", err)
	}
	return &blog, nil
}

// ListBlogs returns one page of blog posts matching q, newest publish date
// first, along with the total number of matching posts.
func (s *Store) ListBlogs(ctx context.Context, q BlogQuery) ([]model.Blog, int64, error) {
	where, args := blogFilter(q.Search, q.PublishedOnly)

	var total int64
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM blogs"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count blogs: %w", err)
	}

	listQ := "SELECT * FROM blogs" + where + " ORDER BY date DESC, id DESC LIMIT ? OFFSET ?"
	listArgs := append(args, q.Limit, (q.Page-1)*q.Limit)

	blogs := []model.Blog{}
	if err := s.db.SelectContext(ctx, &blogs, listQ, listArgs...); err != nil {
		return nil, 0, fmt.Errorf("list blogs: %w", err)
	}
	return blogs, total, nil
}

// BlogStats returns total/published/draft counts over posts matching search.
func (s *Store) BlogStats(ctx context.Context, search string) (*model.BlogStats, error) {
	where, args := blogFilter(search, false)

	const counts = `SELECT
		COUNT(*) AS total,
		COALESCE(SUM(CASE WHEN status = 'Published' THEN 1 ELSE 0 END), 0) AS published,
		COALESCE(SUM(CASE WHEN status = 'Draft' THEN 1 ELSE 0 END), 0) AS drafts
		FROM blogs`

	var stats model.BlogStats
	if err := s.db.GetContext(ctx, &stats, counts+where, args...); err != nil {
		return nil, fmt.Errorf("blog stats: %w", err)
	}
	return &stats, nil
}

// UpdateBlog persists all mutable fields of blog. The UpdatedAt field is
// refreshed automatically. Concurrent updates are last-writer-wins.
func (s *Store) UpdateBlog(ctx context.Context, blog *model.Blog) error {
	blog.UpdatedAt = time.Now().UTC()

	const q = `UPDATE blogs SET
		title = :title, category = :category, description = :description,
		date = :date, status = :status, image = :image, updated_at = :updated_at
		WHERE id = :id`

	result, err := s.db.NamedExecContext(ctx, q, blog)
	if err != nil {
		return fmt.Errorf("update blog: %w", err)
	}
	return requireRowsAffected(result, "update blog")
}

// DeleteBlog removes a blog post by ID.
func (s *Store) DeleteBlog(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM blogs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete blog: %w", err)
	}
	return requireRowsAffected(result, "delete blog")
}

// blogFilter builds the shared WHERE clause for blog list and count queries.
func blogFilter(search string, publishedOnly bool) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if publishedOnly {
		conds = append(conds, "status = ?")
		args = append(args, model.BlogStatusPublished)
	}
	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		conds = append(conds, "(LOWER(title) LIKE ? OR LOWER(category) LIKE ?)")
		args = append(args, pattern, pattern)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ---------------------------------------------------------------------------
// Enquiries
// ---------------------------------------------------------------------------

// EnquiryQuery selects a page of enquiries. Status filters by exact match;
// empty or "all" means no status filter. Search is matched case-insensitively
// as a substring of name, email, or place.
type EnquiryQuery struct {
	Page   int
	Limit  int
	Status string
	Search string
}

// CreateEnquiry inserts a new enquiry. The ID, CreatedAt, and UpdatedAt
// fields on enq are populated after a successful insert.
func (s *Store) CreateEnquiry(ctx context.Context, enq *model.Enquiry) error {
	now := time.Now().UTC()
	enq.CreatedAt = now
	enq.UpdatedAt = now

	const q = `INSERT INTO enquiries
		(name, email, phone, place, status, created_at, updated_at)
		VALUES
		(:name, :email, :phone, :place, :status, :created_at, :updated_at)`

	result, err := s.db.NamedExecContext(ctx, q, enq)
	if err != nil {
		return fmt.Errorf("insert enquiry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get enquiry id: %w", err)
	}
	enq.ID = id
	return nil
}

// GetEnquiry returns an enquiry by ID.
func (s *Store) GetEnquiry(ctx context.Context, id int64) (*model.Enquiry, error) {
	var enq model.Enquiry
	if err := s.db.GetContext(ctx, &enq, "SELECT * FROM enquiries WHERE id = ?", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get enquiry: %w", err)
	}
	return &enq, nil
}

// ListEnquiries returns one page of enquiries matching q, newest first,
// along with the total number of matching enquiries.
func (s *Store) ListEnquiries(ctx context.Context, q EnquiryQuery) ([]model.Enquiry, int64, error) {
	var conds []string
	var args []interface{}

	if q.Status != "" && q.Status != "all" {
		conds = append(conds, "status = ?")
		args = append(args, q.Status)
	}
	if q.Search != "" {
		pattern := "%" + strings.ToLower(q.Search) + "%"
		conds = append(conds, "(LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(place) LIKE ?)")
		args = append(args, pattern, pattern, pattern)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM enquiries"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count enquiries: %w", err)
	}

	listQ := "SELECT * FROM enquiries" + where + " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	listArgs := append(args, q.Limit, (q.Page-1)*q.Limit)

	enquiries := []model.Enquiry{}
	if err := s.db.SelectContext(ctx, &enquiries, listQ, listArgs...); err != nil {
		return nil, 0, fmt.Errorf("list enquiries: %w", err)
	}
	return enquiries, total, nil
}

// UpdateEnquiryStatus sets the status of an enquiry and returns the updated
// record.
func (s *Store) UpdateEnquiryStatus(ctx context.Context, id int64, status string) (*model.Enquiry, error) {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		"UPDATE enquiries SET status = ?, updated_at = ? WHERE id = ?", status, now, id)
	if err != nil {
		return nil, fmt.Errorf("update enquiry status: %w", err)
	}
	if err := requireRowsAffected(result, "update enquiry status"); err != nil {
		return nil, err
	}
	return s.GetEnquiry(ctx, id)
}

// DeleteEnquiry removes an enquiry by ID.
func (s *Store) DeleteEnquiry(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM enquiries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete enquiry: %w", err)
	}
	return requireRowsAffected(result, "delete enquiry")
}

// EnquiryStats returns the total enquiry count and a count per status.
func (s *Store) EnquiryStats(ctx context.Context) (*model.EnquiryStats, error) {
	const q = `SELECT
		COUNT(*) AS total,
		COALESCE(SUM(CASE WHEN status = 'new' THEN 1 ELSE 0 END), 0) AS "new",
		COALESCE(SUM(CASE WHEN status = 'contacted' THEN 1 ELSE 0 END), 0) AS contacted,
		COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0) AS completed
		FROM enquiries`

	var stats model.EnquiryStats
	if err := s.db.GetContext(ctx, &stats, q); err != nil {
		return nil, fmt.Errorf("enquiry stats: %w", err)
	}
	return &stats, nil
}

// requireRowsAffected translates a zero-row write into ErrNotFound.
func requireRowsAffected(result sql.Result, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
