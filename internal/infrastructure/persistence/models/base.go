package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// EntityColumns are the id and timestamp columns shared by entity rows
type EntityColumns struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (c EntityColumns) entity() shared.BaseEntity {
	return shared.BaseEntity{ID: c.ID, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

func entityColumns(e shared.BaseEntity) EntityColumns {
	return EntityColumns{ID: e.ID, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt}
}

// AggregateColumns add the optimistic lock version used by aggregate rows
type AggregateColumns struct {
	EntityColumns
	Version int `gorm:"not null;default:1"`
}

func (c AggregateColumns) aggregate() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{BaseEntity: c.entity(), Version: c.Version}
}

func aggregateColumns(a shared.BaseAggregateRoot) AggregateColumns {
	return AggregateColumns{EntityColumns: entityColumns(a.BaseEntity), Version: a.Version}
}
