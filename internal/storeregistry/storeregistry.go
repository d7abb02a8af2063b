// Package storeregistry exposes the fleet of retail stores the pipeline
// operates over, backed by a gorm-mapped table.
package storeregistry

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/brightleaf/glsync/internal/gl/domain"
)

// Row is the gorm model for a store. Mirrors domain.Store with gorm tags;
// kept as a separate type so the domain package stays persistence-agnostic.
type Row struct {
	ID             string `gorm:"primaryKey;column:id"`
	Name           string `gorm:"column:name"`
	BranchCode     string `gorm:"column:branch_code"`
	Timezone       string `gorm:"column:timezone"`
	PosAPIKey      string `gorm:"column:pos_api_key"`
	IsActive       bool   `gorm:"column:is_active"`
	DashboardAlias string `gorm:"column:dashboard_alias"`
}

func (Row) TableName() string { return "stores" }

func (r Row) toDomain() domain.Store {
	return domain.Store{
		ID:             r.ID,
		Name:           r.Name,
		BranchCode:     r.BranchCode,
		Timezone:       r.Timezone,
		PosAPIKey:      r.PosAPIKey,
		IsActive:       r.IsActive,
		DashboardAlias: r.DashboardAlias,
	}
}

// knownBranchCodes resolves the Open Question over the Illinois/Michigan
// branch code ambiguity: ILD-WILLOW is authoritative for "Mint
// Willowbrook". Any row claiming that store name under a different code
// is flagged, never silently corrected.
var knownBranchCodes = map[string]string{
	"Mint Willowbrook": "ILD-WILLOW",
}

// Registry loads and serves the active store list.
type Registry struct {
	db     *gorm.DB
	logger *zap.Logger
}

func New(db *gorm.DB, logger *zap.Logger) *Registry {
	return &Registry{db: db, logger: logger}
}

// Stores returns every active store, warning about any branch-code
// mismatch against the known-authoritative table.
func (r *Registry) Stores(ctx context.Context) ([]domain.Store, error) {
	var rows []Row
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("storeregistry: load stores: %w", err)
	}

	stores := make([]domain.Store, 0, len(rows))
	for _, row := range rows {
		if expected, ok := knownBranchCodes[row.Name]; ok && expected != row.BranchCode {
			r.logger.Warn("branch code mismatch for known store name",
				zap.String("store", row.Name),
				zap.String("expected_branch_code", expected),
				zap.String("actual_branch_code", row.BranchCode),
			)
		}
		stores = append(stores, row.toDomain())
	}
	return stores, nil
}

// Store returns a single store by id.
func (r *Registry) Store(ctx context.Context, id string) (domain.Store, error) {
	var row Row
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return domain.Store{}, fmt.Errorf("storeregistry: load store %s: %w", id, err)
	}
	return row.toDomain(), nil
}
