package db

import (
	"time"
)

// User table
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Name         string `gorm:"size:64;not null"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Gender       string `gorm:"size:16;not null"`
	LookingFor   string `gorm:"size:16;not null;default:everyone"`
	Birthdate    *time.Time
	Active       bool `gorm:"default:true"`
	LastLoginAt  time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`

	// Profile and preferences are owned exclusively by the user and go with it.
	Profile     *Profile         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Preferences []PreferenceItem `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
}

// Profile holds the presentational half of a user (zero or one per user).
type Profile struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserID    uint64    `gorm:"uniqueIndex;not null"`
	Bio       string    `gorm:"size:1024"`
	Location  string    `gorm:"size:128"`
	AvatarURL string    `gorm:"size:512"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Preference kinds. Labels are compared case-insensitively by the scorer;
// storage keeps the casing the user typed.
const (
	PreferenceGenre  = "genre"
	PreferenceArtist = "artist"
)

// PreferenceItem is a single declared music taste (genre or artist).
//
// Unique index (owner_id, kind, label) guarantees an owner never holds the
// same tag twice. Replacing a user's preferences is delete-all-then-insert-all
// inside one transaction (see PreferenceRepository.ReplaceAll).
type PreferenceItem struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	OwnerID   uint64    `gorm:"not null;uniqueIndex:idx_owner_kind_label,priority:1"`
	Kind      string    `gorm:"size:16;not null;uniqueIndex:idx_owner_kind_label,priority:2"`
	Label     string    `gorm:"size:128;not null;uniqueIndex:idx_owner_kind_label,priority:3"`
	Weight    float64   `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// LikeEdge is a directed "interested in" record.
//
// Composite PK: (FromID, ToID)
//   - Ensures a single edge per ordered pair (idempotent likes).
//
// A match is the unordered pair for which both directed edges exist; when the
// reciprocal edge is found both rows get IsMatch=true in the same transaction,
// so either direction answers "are these two matched".
//
// Indexes:
//   - idx_to_from_match(to_id, created_at, is_match)
//     Serves "who liked me" scans ordered by recency.
type LikeEdge struct {
	FromID    uint64    `gorm:"primaryKey"`
	ToID      uint64    `gorm:"primaryKey;index:idx_to_from_match,priority:1"`
	IsMatch   bool      `gorm:"not null;type:tinyint(1);index:idx_to_from_match,priority:3"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_to_from_match,priority:2,sort:desc"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Message is an append-only chat line between two matched users. The only
// mutation ever applied is the read flip performed by the recipient's fetch.
type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	FromID    uint64    `gorm:"not null;index:idx_pair_created,priority:1" json:"from_id"`
	ToID      uint64    `gorm:"not null;index:idx_pair_created,priority:2" json:"to_id"`
	Content   string    `gorm:"size:2048;not null" json:"content"`
	ReadFlag  bool      `gorm:"not null;default:false;type:tinyint(1)" json:"read"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_pair_created,priority:3" json:"created_at"`
}
