package domain

import "time"

// TempFile tracks one blob in the temp store. Every saved file gets a row so
// the sweep and the promote transition agree on ownership; the filename is
// what customization payloads reference by URL value-copy.
type TempFile struct {
	ID           string     `json:"id" gorm:"primaryKey"`
	Filename     string     `json:"filename" gorm:"uniqueIndex;not null"`
	OriginalName string     `json:"original_name" gorm:"type:text;not null;default:''"`
	ContentType  string     `json:"content_type" gorm:"type:text;not null;default:''"`
	Size         int64      `json:"size" gorm:"not null;default:0"`
	OrderID      *int64     `json:"order_id,omitempty" gorm:"index"`
	PromotedAt   *time.Time `json:"promoted_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (TempFile) TableName() string { return "temp_files" }

func (f *TempFile) Promoted() bool { return f.PromotedAt != nil }
