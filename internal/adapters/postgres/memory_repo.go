package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/wayfinder/internal/core/domain"
)

// MemoryRepo implements ports.MemoryStore on the user_memory table.
type MemoryRepo struct {
	db *DB
}

func NewMemoryRepo(db *DB) *MemoryRepo {
	return &MemoryRepo{db: db}
}

func (r *MemoryRepo) AddMemory(ctx context.Context, userID string, rec domain.MemoryRecord) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO user_memory (id, user_id, query, intent, category, transport, success, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, rec.ID, userID, rec.Query, string(rec.Intent), string(rec.Category), string(rec.Transport), rec.Success, rec.CreatedAt)
	return err
}

// GetContext loads the last ten queries plus the user's dominant transport
// mode and top categories, aggregated over their whole history.
func (r *MemoryRepo) GetContext(ctx context.Context, userID string) (*domain.MemoryContext, error) {
	mc := &domain.MemoryContext{UserID: userID}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, user_id, query, intent, COALESCE(category, ''), COALESCE(transport, ''), success, created_at
		FROM user_memory
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 10
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var rec domain.MemoryRecord
		var intent, category, transport string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Query, &intent, &category, &transport, &rec.Success, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Intent = domain.Intent(intent)
		rec.Category = domain.POICategory(category)
		rec.Transport = domain.TransportMode(transport)
		mc.RecentQueries = append(mc.RecentQueries, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var transport string
	err = r.db.Pool.QueryRow(ctx, `
		SELECT transport
		FROM user_memory
		WHERE user_id = $1 AND success AND transport <> ''
		GROUP BY transport
		ORDER BY COUNT(*) DESC, MAX(created_at) DESC
		LIMIT 1
	`, userID).Scan(&transport)
	switch {
	case err == nil:
		mc.PreferredTransport = domain.TransportMode(transport)
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, err
	}

	catRows, err := r.db.Pool.Query(ctx, `
		SELECT category
		FROM user_memory
		WHERE user_id = $1 AND category <> ''
		GROUP BY category
		ORDER BY COUNT(*) DESC
		LIMIT 3
	`, userID)
	if err != nil {
		return nil, err
	}
	defer catRows.Close()

	for catRows.Next() {
		var category string
		if err := catRows.Scan(&category); err != nil {
			return nil, err
		}
		mc.FrequentCategories = append(mc.FrequentCategories, domain.POICategory(category))
	}
	return mc, catRows.Err()
}
