package repository

import (
	"context"

	"gorm.io/gorm"

	"fleet-analytics/internal/model"
)

type SnapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func (r *SnapshotRepository) Save(ctx context.Context, snapshot model.ReportSnapshot) error {
	return r.db.WithContext(ctx).Create(&snapshot).Error
}

func (r *SnapshotRepository) ListRecent(ctx context.Context, username string, limit int) ([]model.ReportSnapshot, error) {
	var snapshots []model.ReportSnapshot
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		Order("created_at DESC").
		Limit(limit).
		Find(&snapshots).Error
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}
