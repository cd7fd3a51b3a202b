package Models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base replaces gorm.Model: the dashboard references records by string ids.
type Base struct {
	ID        string         `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

func (b Base) GetID() string {
	return b.ID
}

// Identified is anything carrying a record id.
type Identified interface {
	GetID() string
}

// UniqueByID drops repeated ids. The last occurrence of an id wins but keeps
// the position of the first one. Items without an id are always kept.
func UniqueByID[T Identified](items []T) []T {
	index := make(map[string]int, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		id := item.GetID()
		if id == "" {
			out = append(out, item)
			continue
		}
		if pos, seen := index[id]; seen {
			out[pos] = item
			continue
		}
		index[id] = len(out)
		out = append(out, item)
	}
	return out
}

// StringPtr returns nil for empty strings, used for optional foreign keys.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref reads an optional foreign key.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
