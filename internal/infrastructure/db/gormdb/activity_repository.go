package gormdb

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/adbmx/crm/internal/core/domain"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Insert(ctx context.Context, activity *domain.Activity) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if err := r.db.WithContext(ctx).Create(activity).Error; err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// Recent returns the latest limit entries, newest first.
func (r *ActivityRepository) Recent(ctx context.Context, limit int) ([]domain.Activity, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var out []domain.Activity
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}
	return out, nil
}

// DashboardRepository computes the dashboard counters with aggregate queries.
type DashboardRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDashboardRepository(db *gorm.DB) *DashboardRepository {
	return &DashboardRepository{db: db, now: time.Now}
}

func (r *DashboardRepository) Stats(ctx context.Context) (*domain.DashboardStats, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	db := r.db.WithContext(ctx)

	var stats domain.DashboardStats
	if err := db.Model(&domain.Client{}).Count(&stats.TotalClients).Error; err != nil {
		return nil, fmt.Errorf("count clients: %w", err)
	}
	if err := db.Model(&domain.Task{}).
		Where("status IN ?", []domain.TaskStatus{domain.TaskPending, domain.TaskInProgress}).
		Count(&stats.PendingTasks).Error; err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	if err := db.Model(&domain.Opportunity{}).
		Where("stage NOT IN ?", []domain.OpportunityStage{domain.StageWon, domain.StageLost}).
		Count(&stats.OpenOpportunities).Error; err != nil {
		return nil, fmt.Errorf("count opportunities: %w", err)
	}

	sales, err := r.monthlySales(db)
	if err != nil {
		return nil, err
	}
	stats.MonthlySales = sales
	return &stats, nil
}

// monthlySales sums the value of opportunities won this calendar month (UTC).
// The close date is used when set, otherwise the last update.
func (r *DashboardRepository) monthlySales(db *gorm.DB) (float64, error) {
	var won []struct {
		Value     float64
		CloseDate *time.Time
		UpdatedAt time.Time
	}
	if err := db.Model(&domain.Opportunity{}).
		Select("value", "close_date", "updated_at").
		Where("stage = ?", domain.StageWon).
		Find(&won).Error; err != nil {
		return 0, fmt.Errorf("won opportunities: %w", err)
	}

	now := r.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	nextMonth := monthStart.AddDate(0, 1, 0)

	var total float64
	for _, o := range won {
		at := o.UpdatedAt
		if o.CloseDate != nil {
			at = *o.CloseDate
		}
		at = at.UTC()
		if !at.Before(monthStart) && at.Before(nextMonth) {
			total += o.Value
		}
	}
	return total, nil
}
