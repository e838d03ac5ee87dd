package repository

import (
	"context"

	"seragon/internal/models"

	"gorm.io/gorm"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) ListCategories(ctx context.Context) ([]models.ServiceCategory, error) {
	var list []models.ServiceCategory
	err := r.db.WithContext(ctx).Order("id ASC").Find(&list).Error
	return list, err
}

// ListActiveServices returns purchasable services grouped by category, cheapest first.
func (r *CatalogRepository) ListActiveServices(ctx context.Context) ([]models.Service, error) {
	var list []models.Service
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("is_active = ?", true).
		Order("category_id ASC, price ASC, id ASC").
		Find(&list).Error
	return list, err
}

func (r *CatalogRepository) GetServiceByID(ctx context.Context, id uint) (*models.Service, error) {
	var s models.Service
	err := r.db.WithContext(ctx).Preload("Category").First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetServicesByIDs returns the services that exist among ids, keyed by id.
func (r *CatalogRepository) GetServicesByIDs(ctx context.Context, ids []uint) (map[uint]models.Service, error) {
	out := make(map[uint]models.Service, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var list []models.Service
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	for _, s := range list {
		out[s.ID] = s
	}
	return out, nil
}

func (r *CatalogRepository) Create(ctx context.Context, s *models.Service) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *CatalogRepository) CreateCategory(ctx context.Context, c *models.ServiceCategory) error {
	return r.db.WithContext(ctx).Create(c).Error
}
