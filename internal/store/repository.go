package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for store and rating persistence.
type Repository interface {
	Create(ctx context.Context, s *Store) error
	GetByID(ctx context.Context, id string) (*Store, error)
	List(ctx context.Context) ([]Store, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Store, error)
	Rate(ctx context.Context, storeID, userID string, value int) error
	GetRating(ctx context.Context, storeID, userID string) (*Rating, error)
	ListRatings(ctx context.Context, storeID string) ([]Rating, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewRepository creates a new SQLite-backed store repository.
func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new store. The ID is generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, s *Store) error {
	if s.ID == "" {
		s.ID = "str-" + uuid.NewString()[:8]
	}

	now := time.Now().UTC().Format(time.RFC3339)
	s.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	s.UpdatedAt = s.CreatedAt

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO stores (id, name, address, owner_id, avg_rating, rating_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 0, 0, ?, ?)`,
		s.ID, s.Name, s.Address, nullString(s.OwnerID), now, now,
	)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	return nil
}

// GetByID retrieves a store by its unique ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Store, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, address, owner_id, avg_rating, rating_count, created_at, updated_at
		 FROM stores WHERE id = ?`, id)
	return scanStore(row)
}

// List returns all stores ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]Store, error) {
	return r.listStores(ctx,
		`SELECT id, name, address, owner_id, avg_rating, rating_count, created_at, updated_at
		 FROM stores ORDER BY name ASC`)
}

// ListByOwner returns the stores owned by the given account.
func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]Store, error) {
	return r.listStores(ctx,
		`SELECT id, name, address, owner_id, avg_rating, rating_count, created_at, updated_at
		 FROM stores WHERE owner_id = ? ORDER BY name ASC`, ownerID)
}

// Rate records or replaces a user's rating of a store and updates the
// store's aggregate in the same transaction.
func (r *SQLiteRepository) Rate(ctx context.Context, storeID, userID string, value int) error {
	if !IsValidRating(value) {
		return fmt.Errorf("%w: %d", ErrInvalidRating, value)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning rating transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is no-op after commit

	// Confirm the store exists inside the transaction
	var exists int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM stores WHERE id = ?", storeID).Scan(&exists); err != nil {
		return fmt.Errorf("checking store: %w", err)
	}
	if exists == 0 {
		return ErrStoreNotFound
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ratings (user_id, store_id, value, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, store_id) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		userID, storeID, value, now, now,
	); err != nil {
		return fmt.Errorf("recording rating: %w", err)
	}

	// Recompute the aggregate from the ratings table; cheap at the
	// per-store scale this system operates at.
	if _, err := tx.ExecContext(ctx,
		`UPDATE stores SET
			avg_rating = (SELECT AVG(value) FROM ratings WHERE store_id = ?),
			rating_count = (SELECT COUNT(*) FROM ratings WHERE store_id = ?),
			updated_at = ?
		 WHERE id = ?`,
		storeID, storeID, now, storeID,
	); err != nil {
		return fmt.Errorf("updating rating aggregate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing rating: %w", err)
	}
	return nil
}

// GetRating retrieves one user's rating of one store.
func (r *SQLiteRepository) GetRating(ctx context.Context, storeID, userID string) (*Rating, error) {
	var rt Rating
	var createdAt, updatedAt string

	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, store_id, value, created_at, updated_at
		 FROM ratings WHERE store_id = ? AND user_id = ?`, storeID, userID,
	).Scan(&rt.UserID, &rt.StoreID, &rt.Value, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRatingNotFound
		}
		return nil, fmt.Errorf("getting rating: %w", err)
	}

	rt.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	rt.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled
	return &rt, nil
}

// ListRatings returns all ratings for a store, newest first.
func (r *SQLiteRepository) ListRatings(ctx context.Context, storeID string) ([]Rating, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, store_id, value, created_at, updated_at
		 FROM ratings WHERE store_id = ? ORDER BY updated_at DESC`, storeID)
	if err != nil {
		return nil, fmt.Errorf("listing ratings: %w", err)
	}
	defer rows.Close()

	ratings := []Rating{}
	for rows.Next() {
		var rt Rating
		var createdAt, updatedAt string
		if err := rows.Scan(&rt.UserID, &rt.StoreID, &rt.Value, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning rating: %w", err)
		}
		rt.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
		rt.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled
		ratings = append(ratings, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ratings: %w", err)
	}
	return ratings, nil
}

// listStores executes a query returning store rows.
func (r *SQLiteRepository) listStores(ctx context.Context, query string, args ...any) ([]Store, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing stores: %w", err)
	}
	defer rows.Close()

	stores := []Store{}
	for rows.Next() {
		s, err := scanStoreRows(rows)
		if err != nil {
			return nil, err
		}
		stores = append(stores, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stores: %w", err)
	}
	return stores, nil
}

// storeScanner is an interface for sql.Row and sql.Rows Scan methods.
type storeScanner interface {
	Scan(dest ...any) error
}

func scanStore(row *sql.Row) (*Store, error) {
	return scanStoreFrom(row)
}

func scanStoreRows(rows *sql.Rows) (*Store, error) {
	return scanStoreFrom(rows)
}

func scanStoreFrom(s storeScanner) (*Store, error) {
	var st Store
	var ownerID sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(&st.ID, &st.Name, &st.Address, &ownerID,
		&st.AvgRating, &st.RatingCount, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStoreNotFound
		}
		return nil, fmt.Errorf("scanning store: %w", err)
	}

	if ownerID.Valid {
		st.OwnerID = ownerID.String
	}
	st.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	st.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled
	return &st, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
