package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/hridoy-islam/watenycollage-sub000/internal/models"
)

// MaterialRepository reads course material assignment definitions. The
// definitions are externally owned; Create/Update exist for admin upkeep only.
type MaterialRepository interface {
	List(ctx context.Context, unitID *uint) ([]models.CourseMaterialAssignment, error)
	GetByID(ctx context.Context, id uint) (models.CourseMaterialAssignment, error)
	Create(ctx context.Context, material *models.CourseMaterialAssignment) error
	Update(ctx context.Context, material *models.CourseMaterialAssignment) error
}

type materialRepository struct {
	db *gorm.DB
}

// NewMaterialRepository instantiates the repository.
func NewMaterialRepository(db *gorm.DB) MaterialRepository {
	return &materialRepository{db: db}
}

func (r *materialRepository) List(ctx context.Context, unitID *uint) ([]models.CourseMaterialAssignment, error) {
	query := r.db.WithContext(ctx).Model(&models.CourseMaterialAssignment{})
	if unitID != nil {
		query = query.Where("unit_id = ?", *unitID)
	}

	var materials []models.CourseMaterialAssignment
	if err := query.Order("created_at ASC").Find(&materials).Error; err != nil {
		return nil, err
	}

	return materials, nil
}

func (r *materialRepository) GetByID(ctx context.Context, id uint) (models.CourseMaterialAssignment, error) {
	var material models.CourseMaterialAssignment
	if err := r.db.WithContext(ctx).First(&material, id).Error; err != nil {
		return models.CourseMaterialAssignment{}, err
	}

	return material, nil
}

func (r *materialRepository) Create(ctx context.Context, material *models.CourseMaterialAssignment) error {
	return r.db.WithContext(ctx).Create(material).Error
}

func (r *materialRepository) Update(ctx context.Context, material *models.CourseMaterialAssignment) error {
	return r.db.WithContext(ctx).Save(material).Error
}
