package orderrepo

import (
	"context"
	"fmt"

	"pharmacy/internal/core/domain/model/order"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderSequenceDTO holds the last issued order-number sequence value per category.
type OrderSequenceDTO struct {
	Category string `gorm:"primaryKey"`
	Value    int64  `gorm:"not null"`
}

func (OrderSequenceDTO) TableName() string {
	return "order_sequences"
}

// GormOrderNumberSequence issues sequence values with an atomic increment. Inside a
// transaction the updated row stays locked until commit, so concurrent checkouts of the
// same category queue behind each other.
type GormOrderNumberSequence struct {
	db *gorm.DB
}

func NewGormOrderNumberSequence(db *gorm.DB) *GormOrderNumberSequence {
	return &GormOrderNumberSequence{db: db}
}

func (s *GormOrderNumberSequence) Next(ctx context.Context, category order.Category) (int64, error) {
	if err := category.Validate(); err != nil {
		return 0, err
	}

	db := s.db.WithContext(ctx)

	seed := OrderSequenceDTO{Category: category.String()}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return 0, fmt.Errorf("seed order sequence %s: %w", category, err)
	}

	var value int64
	if err := db.Raw(
		"UPDATE order_sequences SET value = value + 1 WHERE category = ? RETURNING value",
		category.String(),
	).Scan(&value).Error; err != nil {
		return 0, fmt.Errorf("increment order sequence %s: %w", category, err)
	}

	return value, nil
}
