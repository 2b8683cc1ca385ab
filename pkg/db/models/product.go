package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is the shop-independent identity of a good, unique per category.
type Product struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name       string    `gorm:"column:name;not null;uniqueIndex:ux_products_name_category,priority:1"`
	CategoryID int64     `gorm:"column:category_id;not null;uniqueIndex:ux_products_name_category,priority:2"`
	Category   *Category `gorm:"foreignKey:CategoryID"`
}

func (p *Product) BeforeCreate(*gorm.DB) error { return assignID(&p.ID) }

// ProductInfo is a shop's offer for a product: model, stock and prices.
type ProductInfo struct {
	ID         uuid.UUID          `gorm:"type:uuid;primaryKey"`
	ProductID  uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index"`
	ShopID     uuid.UUID          `gorm:"column:shop_id;type:uuid;not null;uniqueIndex:ux_product_infos_shop_external,priority:1"`
	ExternalID int64              `gorm:"column:external_id;not null;uniqueIndex:ux_product_infos_shop_external,priority:2"`
	Model      string             `gorm:"column:model;not null;default:''"`
	Quantity   int                `gorm:"column:quantity;not null"`
	Price      decimal.Decimal    `gorm:"column:price;type:numeric(12,2);not null"`
	PriceRRC   decimal.Decimal    `gorm:"column:price_rrc;type:numeric(12,2);not null"`
	Product    *Product           `gorm:"foreignKey:ProductID"`
	Shop       *Shop              `gorm:"foreignKey:ShopID;constraint:OnDelete:CASCADE"`
	Parameters []ProductParameter `gorm:"foreignKey:ProductInfoID"`
}

func (p *ProductInfo) BeforeCreate(*gorm.DB) error { return assignID(&p.ID) }

// Parameter names are shared across all shops.
type Parameter struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"column:name;not null;uniqueIndex"`
}

func (p *Parameter) BeforeCreate(*gorm.DB) error { return assignID(&p.ID) }

type ProductParameter struct {
	ID            uuid.UUID    `gorm:"type:uuid;primaryKey"`
	ProductInfoID uuid.UUID    `gorm:"column:product_info_id;type:uuid;not null;uniqueIndex:ux_product_parameters_info_param,priority:1"`
	ParameterID   uuid.UUID    `gorm:"column:parameter_id;type:uuid;not null;uniqueIndex:ux_product_parameters_info_param,priority:2"`
	Value         string       `gorm:"column:value;not null"`
	ProductInfo   *ProductInfo `gorm:"foreignKey:ProductInfoID;constraint:OnDelete:CASCADE"`
	Parameter     *Parameter   `gorm:"foreignKey:ParameterID"`
}

func (p *ProductParameter) BeforeCreate(*gorm.DB) error { return assignID(&p.ID) }
