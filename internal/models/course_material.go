package models

import "time"

// CourseMaterialAssignment is the externally owned assignment definition a
// student submits work against. It carries the brief and the original
// deadline; per-student workflow state lives on Assignment.
type CourseMaterialAssignment struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UnitID    uint       `gorm:"not null;index" json:"unit_id"`
	Title     string     `gorm:"size:255;not null" json:"title"`
	Content   string     `gorm:"type:text" json:"content"`
	Deadline  *time.Time `json:"deadline"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
