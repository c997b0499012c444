package model

import (
	"time"

	"gorm.io/gorm"
)

// 商品カテゴリ（閉じた列挙）
type ProductCategory string

const (
	CategoryVegetables ProductCategory = "VEGETABLES"
	CategoryFruits     ProductCategory = "FRUITS"
	CategoryDairy      ProductCategory = "DAIRY"
	CategoryMeat       ProductCategory = "MEAT"
	CategoryGrains     ProductCategory = "GRAINS"
	CategoryOther      ProductCategory = "OTHER"
)

func ValidCategory(c ProductCategory) bool {
	switch c {
	case CategoryVegetables, CategoryFruits, CategoryDairy, CategoryMeat, CategoryGrains, CategoryOther:
		return true
	}
	return false
}

// 農家が出品する商品。priceは最小通貨単位（円/セント）。
type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	FarmerID    int64           `gorm:"not null;index" json:"farmer_id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Category    ProductCategory `gorm:"type:varchar(20);not null;index" json:"category"`
	Description string          `gorm:"type:text" json:"description"`
	Price       int64           `gorm:"not null" json:"price"`
	Stock       int64           `gorm:"not null" json:"stock"`
	ImageURL    string          `gorm:"type:varchar(512)" json:"image_url"`
	IsActive    bool            `gorm:"not null;default:false" json:"is_active"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}
