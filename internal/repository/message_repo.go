package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/ecstasy/internal/db"
)

// MessageRepository provides data access for the append-only message log.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new repository bound to the given DB (or tx) handle.
func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

// Insert appends a message. ReadFlag starts false; nothing ever updates a
// message besides the recipient's read flip.
func (r *MessageRepository) Insert(ctx context.Context, fromID, toID uint64, content string) (*db.Message, error) {
	msg := db.Message{FromID: fromID, ToID: toID, Content: content}
	if err := r.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListBetween returns the full conversation between a and b in stable
// chronological order (created_at, then id for same-timestamp inserts).
func (r *MessageRepository) ListBetween(ctx context.Context, a, b uint64) ([]db.Message, error) {
	var msgs []db.Message
	err := r.db.WithContext(ctx).
		Where("(from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?)", a, b, b, a).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	return msgs, err
}

// ListInvolving returns every message the user sent or received, oldest first.
// The conversation assembler folds these into per-counterpart summaries.
func (r *MessageRepository) ListInvolving(ctx context.Context, userID uint64) ([]db.Message, error) {
	var msgs []db.Message
	err := r.db.WithContext(ctx).
		Where("from_id = ? OR to_id = ?", userID, userID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	return msgs, err
}

// MarkRead flips read_flag on every unread message from → to and reports how
// many rows changed (the recipient's unread count for that counterpart).
func (r *MessageRepository) MarkRead(ctx context.Context, fromID, toID uint64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("from_id = ? AND to_id = ? AND read_flag = ?", fromID, toID, false).
		Update("read_flag", true)
	return res.RowsAffected, res.Error
}

// UnreadCount counts unread messages addressed to the user, across all
// counterparts. Backs the Redis unread counter on cache miss.
func (r *MessageRepository) UnreadCount(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("to_id = ? AND read_flag = ?", userID, false).
		Count(&count).Error
	return count, err
}
