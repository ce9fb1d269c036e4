// Package domain defines the persistence models for generations and the user
// profile. These types are mapped with GORM and form the core data layer of
// the studio backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// MediaKind distinguishes the two asset families the provider can produce.
type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
)

// Valid reports whether k is a known media kind.
func (k MediaKind) Valid() bool { return k == KindImage || k == KindVideo }

// Tool is the requested operation variant. It is fixed at creation time and
// only constrains which media kind the item belongs to.
type Tool string

const (
	ToolTextToImage  Tool = "text_to_image"
	ToolImageEditing Tool = "image_editing"
	ToolFaceSwap     Tool = "face_swap"
	ToolTextToVideo  Tool = "text_to_video"
)

// KindFor returns the media kind a tool produces, or "" for unknown tools.
func (t Tool) KindFor() MediaKind {
	switch t {
	case ToolTextToImage, ToolImageEditing, ToolFaceSwap:
		return KindImage
	case ToolTextToVideo:
		return KindVideo
	default:
		return ""
	}
}

// Status is the lifecycle state of a generation.
//
// Allowed transitions: pending/processing → completed | failed. Completed and
// failed are terminal; the repository enforces this with conditional updates.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool { return s == StatusCompleted || s == StatusFailed }

// Generation represents one submitted creative request and its outcome.
//
// Fields:
//   - ID: stable UUID primary key; the sole correlation key between the
//     processing placeholder and its eventual resolution.
//   - UserID: identifier of the submitting user; indexed for retrieval.
//   - Kind / Tool: fixed at creation, never change.
//   - Status: the only mutable lifecycle field besides ResultURL/Error.
//   - Prompt: the original user text; immutable.
//   - Title: short display title derived from the prompt.
//   - ResultURL: locator of the produced asset; set only on completion.
//   - Error: absorbed failure reason; set only on failure.
//   - IsFavorite: user-toggleable, independent of lifecycle status.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM; CreatedAt orders
//     listings and keys the date grouping.
//   - DeletedAt: soft deletion marker.
type Generation struct {
	ID         string         `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID     string         `json:"user_id"     gorm:"type:varchar(64);not null;index:idx_user_generations"`
	Kind       MediaKind      `json:"kind"        gorm:"type:varchar(16);not null;check:kind IN ('image','video')"`
	Tool       Tool           `json:"tool"        gorm:"type:varchar(32);not null"`
	Status     Status         `json:"status"      gorm:"type:varchar(16);not null;index;check:status IN ('pending','processing','completed','failed')"`
	Prompt     string         `json:"prompt"      gorm:"type:text;not null"`
	Title      string         `json:"title"       gorm:"type:varchar(255)"`
	ResultURL  string         `json:"result_url,omitempty" gorm:"type:text"`
	Error      string         `json:"error,omitempty"      gorm:"type:text"`
	IsFavorite bool           `json:"is_favorite" gorm:"not null;default:false"`
	CreatedAt  time.Time      `json:"created_at"  gorm:"index:idx_user_generations,priority:2"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-"           gorm:"index"`
}

// TableName returns the database table name for Generation.
func (Generation) TableName() string { return "generations" }

// Profile holds the session user's display name and point balance. The
// balance is decremented by the configured kind cost on each successful
// generation, never on failure.
type Profile struct {
	ID        string    `json:"-"      gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name"   gorm:"type:varchar(64);not null"`
	Points    int64     `json:"points" gorm:"not null"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName returns the database table name for Profile.
func (Profile) TableName() string { return "profiles" }
