package repository

import (
	"context"
	"errors"
	"strings"

	"freshleap/internal/domain/model"
	repo "freshleap/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// 公開中の商品一覧（検索・絞り込み・ソート）
func (r *ProductGormRepository) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Product{}).Where("is_active = ?", true)

	if s := strings.TrimSpace(q.Q); s != "" {
		query = query.Where("name ILIKE ?", "%"+s+"%")
	}
	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}
	if q.MinPrice != nil {
		query = query.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		query = query.Where("price <= ?", *q.MaxPrice)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return []model.Product{}, 0, err
	}

	switch q.Sort {
	case "price_asc":
		query = query.Order("price asc")
	case "price_desc":
		query = query.Order("price desc")
	default:
		query = query.Order("id desc")
	}

	var items []model.Product
	offset := (q.Page - 1) * q.Limit
	if err := query.Limit(q.Limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.Product{}, 0, err
	}

	return items, total, nil
}

// 農家自身の商品一覧（非公開も含む）
func (r *ProductGormRepository) ListByFarmerID(ctx context.Context, farmerID int64, page int, limit int) ([]model.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Product{}).Where("farmer_id = ?", farmerID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Product{}, 0, err
	}

	var items []model.Product
	offset := (page - 1) * limit
	if err := q.Order("id desc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.Product{}, 0, err
	}

	return items, total, nil
}

func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"name":        p.Name,
			"category":    p.Category,
			"description": p.Description,
			"price":       p.Price,
			"image_url":   p.ImageURL,
			"is_active":   p.IsActive,
			"updated_at":  p.UpdatedAt,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *ProductGormRepository) SoftDelete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
