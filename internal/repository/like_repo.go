package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/ecstasy/internal/db"
	svcErr "github.com/oggyb/ecstasy/internal/errors"
	"github.com/oggyb/ecstasy/internal/utils/pagination"
)

// LikeRepository provides data access for directed LikeEdge rows and the
// match flag derived from them. The like/match engine composes these
// primitives inside a single transaction; pass the tx handle to the
// constructor to scope a repository to it.
type LikeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new repository bound to the given DB (or tx) handle.
func NewLikeRepository(database *gorm.DB) *LikeRepository {
	return &LikeRepository{db: database}
}

// CreateEdge inserts LikeEdge(from → to).
//
// Behavior:
//   - Composite PK (from_id, to_id) plus ON CONFLICT DO NOTHING makes the
//     insert idempotent: a duplicate like affects zero rows.
//   - Returns created=false when the edge already existed.
func (r *LikeRepository) CreateEdge(ctx context.Context, fromID, toID uint64) (bool, error) {
	edge := db.LikeEdge{FromID: fromID, ToID: toID}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "from_id"}, {Name: "to_id"}},
			DoNothing: true,
		}).
		Create(&edge)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindEdge returns the directed edge from → to, or nil when absent.
func (r *LikeRepository) FindEdge(ctx context.Context, fromID, toID uint64) (*db.LikeEdge, error) {
	var edge db.LikeEdge
	err := r.db.WithContext(ctx).
		Where("from_id = ? AND to_id = ?", fromID, toID).
		First(&edge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

// FlagMatch marks both directions of the pair as matched in one statement.
func (r *LikeRepository) FlagMatch(ctx context.Context, a, b uint64) error {
	return r.db.WithContext(ctx).
		Model(&db.LikeEdge{}).
		Where("(from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?)", a, b, b, a).
		Update("is_match", true).Error
}

// IsMatched reports whether the unordered pair {a,b} is a confirmed match.
// The flag lives on both directed edges, so one direction is enough, but the
// symmetric check keeps the answer independent of argument order.
func (r *LikeRepository) IsMatched(ctx context.Context, a, b uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.LikeEdge{}).
		Where("((from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?)) AND is_match = ?", a, b, b, a, true).
		Count(&count).Error
	return count > 0, err
}

// ListOutgoing returns every edge the user has created, newest first.
// Feeds both the discovery exclusion set and the conversation assembler.
func (r *LikeRepository) ListOutgoing(ctx context.Context, fromID uint64) ([]db.LikeEdge, error) {
	var edges []db.LikeEdge
	err := r.db.WithContext(ctx).
		Where("from_id = ?", fromID).
		Order("created_at DESC, to_id DESC").
		Find(&edges).Error
	return edges, err
}

// GetLikers returns users who liked the recipient and are not matched yet.
//
// Behavior:
//   - Only edges where to_id = X and is_match = false are returned
//     (a mutual like flips the flag, which removes the row from this list).
//   - Ordered by created_at DESC, from_id DESC.
//   - Supports cursor-based pagination via paginationToken.
func (r *LikeRepository) GetLikers(
	ctx context.Context,
	recipientID uint64,
	paginationToken *string,
	limit int,
) ([]db.LikeEdge, *string, error) {
	var edges []db.LikeEdge

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, svcErr.Validation("invalid page token")
	}

	query := r.db.WithContext(ctx).
		Model(&db.LikeEdge{}).
		Where("to_id = ? AND is_match = ?", recipientID, false).
		Order("created_at DESC, from_id DESC").
		Limit(limit + 1)

	if cursor.UserID > 0 && cursor.CreatedUnix > 0 {
		ts := time.UnixMilli(cursor.CreatedUnix)
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND from_id < ?))",
			ts, ts, cursor.UserID,
		)
	}

	if err := query.Find(&edges).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(edges) > limit {
		last := edges[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			UserID:      last.FromID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		edges = edges[:limit]
	}

	return edges, nextToken, nil
}

// CountLikers returns how many users liked the recipient without a match yet.
// Used in conjunction with the Redis counter cache (DB is the fallback).
func (r *LikeRepository) CountLikers(ctx context.Context, recipientID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.LikeEdge{}).
		Where("to_id = ? AND is_match = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
