package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go sqlite driver

	"github.com/denlabs/denengine/internal/domain/model"
	"github.com/denlabs/denengine/internal/domain/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	id         TEXT PRIMARY KEY,
	username   TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS posts (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES profiles(id),
	caption    TEXT NOT NULL DEFAULT '',
	media_url  TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posts_user ON posts(user_id);
CREATE INDEX IF NOT EXISTS idx_posts_created ON posts(created_at);

CREATE TABLE IF NOT EXISTS interactions (
	id             TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL,
	target_user_id TEXT NOT NULL DEFAULT '',
	post_id        TEXT NOT NULL DEFAULT '',
	type           TEXT NOT NULL,
	direction      TEXT NOT NULL,
	created_at     TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_interactions_user_created ON interactions(user_id, created_at);

CREATE TABLE IF NOT EXISTS recommended_posts (
	user_id TEXT NOT NULL,
	post_id TEXT NOT NULL,
	score   REAL NOT NULL,
	reason  TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (user_id, post_id)
);
`

// SQLiteStore implements Store on a SQLite database.
type SQLiteStore struct {
	db *sqlx.DB

	// userLocks serializes delete-then-insert per user so two refreshes of
	// the same user cannot interleave and leave a torn set.
	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

// NewSQLiteStore opens (creating if needed) the database at path and applies
// the schema. Use ":memory:" for an ephemeral store in tests.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	cfg := defaults()
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := sqlx.Open(cfg.driver, path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// An in-memory database exists per connection; the pool must not open a
	// second one.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.busyTimeout),
		"PRAGMA journal_mode = " + cfg.journalMode,
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", p, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteStore{
		db:        db,
		userLocks: make(map[string]*sync.Mutex),
	}, nil
}

// lockFor returns the mutex guarding one user's recommendation set.
func (s *SQLiteStore) lockFor(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.userLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.userLocks[userID] = l
	}
	return l
}

func (s *SQLiteStore) RecentInteractions(ctx context.Context, userID string, window time.Duration) ([]model.Interaction, error) {
	cutoff := time.Now().UTC().Add(-window)
	var out []model.Interaction
	err := s.db.SelectContext(ctx, &out,
		`SELECT id, user_id, target_user_id, post_id, type, direction, created_at
		 FROM interactions
		 WHERE user_id = ? AND created_at >= ?`,
		userID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("select interactions: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) PostIDsByAuthor(ctx context.Context, authorID, excludeAuthorID string) ([]string, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids,
		`SELECT id FROM posts WHERE user_id = ? AND user_id != ?`,
		authorID, excludeAuthorID)
	if err != nil {
		return nil, fmt.Errorf("select posts by author: %w", err)
	}
	return ids, nil
}

func (s *SQLiteStore) ReplaceRecommendations(ctx context.Context, userID string, candidates []model.ScoredCandidate) error {
	l := s.lockFor(userID)
	l.Lock()
	defer l.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM recommended_posts WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete recommendations: %w", err)
	}
	if len(candidates) > 0 {
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO recommended_posts (user_id, post_id, score, reason)
			 VALUES (:user_id, :post_id, :score, :reason)`, candidates); err != nil {
			return fmt.Errorf("insert recommendations: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

func (s *SQLiteStore) TopRecommendations(ctx context.Context, userID string, limit int) ([]model.Recommendation, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	var out []model.Recommendation
	err := s.db.SelectContext(ctx, &out,
		`SELECT user_id, post_id, score, reason
		 FROM recommended_posts
		 WHERE user_id = ?
		 ORDER BY score DESC, post_id ASC
		 LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("select recommendations: %w", err)
	}
	return out, nil
}

// feedRow is the post/profile join shape.
type feedRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Caption   string    `db:"caption"`
	MediaURL  string    `db:"media_url"`
	CreatedAt time.Time `db:"created_at"`
	Username  string    `db:"username"`
}

func (r feedRow) item() types.FeedItem {
	return types.FeedItem{
		PostID:    r.ID,
		AuthorID:  r.UserID,
		Author:    r.Username,
		Caption:   r.Caption,
		MediaURL:  r.MediaURL,
		CreatedAt: r.CreatedAt,
	}
}

func (s *SQLiteStore) ResolveFeed(ctx context.Context, recs []model.Recommendation) ([]types.FeedItem, error) {
	if len(recs) == 0 {
		return []types.FeedItem{}, nil
	}

	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.PostID
	}
	query, args, err := sqlx.In(
		`SELECT p.id, p.user_id, p.caption, p.media_url, p.created_at, pr.username
		 FROM posts p
		 JOIN profiles pr ON pr.id = p.user_id
		 WHERE p.id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build resolve query: %w", err)
	}
	var rows []feedRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("resolve posts: %w", err)
	}

	byID := make(map[string]feedRow, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}

	// Keep the recommendation order; deleted posts simply drop out.
	out := make([]types.FeedItem, 0, len(recs))
	for _, rec := range recs {
		r, ok := byID[rec.PostID]
		if !ok {
			continue
		}
		item := r.item()
		item.Score = rec.Score
		item.Reason = rec.Reason
		out = append(out, item)
	}
	return out, nil
}

func (s *SQLiteStore) OldestPosts(ctx context.Context, limit int) ([]types.FeedItem, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	var rows []feedRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT p.id, p.user_id, p.caption, p.media_url, p.created_at, pr.username
		 FROM posts p
		 JOIN profiles pr ON pr.id = p.user_id
		 ORDER BY p.created_at ASC, p.id ASC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select oldest posts: %w", err)
	}
	out := make([]types.FeedItem, len(rows))
	for i, r := range rows {
		out[i] = r.item()
	}
	return out, nil
}

func (s *SQLiteStore) ProfileByID(ctx context.Context, userID string) (model.Profile, error) {
	var p model.Profile
	err := s.db.GetContext(ctx, &p,
		`SELECT id, username, created_at FROM profiles WHERE id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Profile{}, ErrNotFound
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("select profile: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) AllUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, `SELECT id FROM profiles`); err != nil {
		return nil, fmt.Errorf("select user ids: %w", err)
	}
	return ids, nil
}

// InsertProfile writes one profile row. Used by seeding and tests.
func (s *SQLiteStore) InsertProfile(ctx context.Context, p model.Profile) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO profiles (id, username, created_at) VALUES (:id, :username, :created_at)`, p)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// InsertPost writes one post row. Used by seeding and tests.
func (s *SQLiteStore) InsertPost(ctx context.Context, p model.Post) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO posts (id, user_id, caption, media_url, created_at)
		 VALUES (:id, :user_id, :caption, :media_url, :created_at)`, p)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// InsertInteraction writes one interaction row. Used by seeding and tests.
func (s *SQLiteStore) InsertInteraction(ctx context.Context, in model.Interaction) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO interactions (id, user_id, target_user_id, post_id, type, direction, created_at)
		 VALUES (:id, :user_id, :target_user_id, :post_id, :type, :direction, :created_at)`, in)
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
