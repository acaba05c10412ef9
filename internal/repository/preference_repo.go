package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/oggyb/ecstasy/internal/db"
)

// PreferenceRepository provides data access for music preference items.
type PreferenceRepository struct {
	db *gorm.DB
}

// NewPreferenceRepository creates a new repository bound to the given DB connection.
func NewPreferenceRepository(database *gorm.DB) *PreferenceRepository {
	return &PreferenceRepository{db: database}
}

// GetByOwner returns the owner's preference items grouped by kind, insertion
// order within each kind.
func (r *PreferenceRepository) GetByOwner(ctx context.Context, ownerID uint64) ([]db.PreferenceItem, error) {
	var items []db.PreferenceItem
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("kind ASC, id ASC").
		Find(&items).Error
	return items, err
}

// ReplaceAll swaps the owner's full preference set.
//
// Behavior:
//   - Delete-all-then-insert-all inside one transaction; a reader never
//     observes a partial set.
//   - Input labels are trimmed and deduplicated case-insensitively per kind,
//     so the (owner, kind, label) unique index cannot trip on user input.
func (r *PreferenceRepository) ReplaceAll(ctx context.Context, ownerID uint64, genres, artists []string) error {
	items := make([]db.PreferenceItem, 0, len(genres)+len(artists))
	for _, label := range dedupe(genres) {
		items = append(items, db.PreferenceItem{OwnerID: ownerID, Kind: db.PreferenceGenre, Label: label, Weight: 1})
	}
	for _, label := range dedupe(artists) {
		items = append(items, db.PreferenceItem{OwnerID: ownerID, Kind: db.PreferenceArtist, Label: label, Weight: 1})
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_id = ?", ownerID).Delete(&db.PreferenceItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}

func dedupe(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		key := strings.ToLower(label)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, label)
	}
	return out
}
