package dto

import (
	"time"

	"github.com/hridoy-islam/watenycollage-sub000/internal/models"
)

// MaterialCreateRequest registers a course material assignment definition.
type MaterialCreateRequest struct {
	UnitID   uint       `json:"unit_id" validate:"required,gt=0"`
	Title    string     `json:"title" validate:"required,min=3,max=255"`
	Content  string     `json:"content" validate:"omitempty"`
	Deadline *time.Time `json:"deadline"`
}

// MaterialUpdateRequest patches a definition; nil fields are left untouched.
type MaterialUpdateRequest struct {
	Title    *string    `json:"title" validate:"omitempty,min=3,max=255"`
	Content  *string    `json:"content"`
	Deadline *time.Time `json:"deadline"`
}

// MaterialResponse serializes a course material assignment definition.
type MaterialResponse struct {
	ID        uint       `json:"id"`
	UnitID    uint       `json:"unit_id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Deadline  *time.Time `json:"deadline"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewMaterialResponse converts a material model into a DTO.
func NewMaterialResponse(model models.CourseMaterialAssignment) MaterialResponse {
	return MaterialResponse{
		ID:        model.ID,
		UnitID:    model.UnitID,
		Title:     model.Title,
		Content:   model.Content,
		Deadline:  model.Deadline,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// NewMaterialResponseSlice converts material models into DTOs.
func NewMaterialResponseSlice(materials []models.CourseMaterialAssignment) []MaterialResponse {
	responses := make([]MaterialResponse, 0, len(materials))
	for _, material := range materials {
		responses = append(responses, NewMaterialResponse(material))
	}

	return responses
}

// UploadResponse is returned after a file has been stored.
type UploadResponse struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}
