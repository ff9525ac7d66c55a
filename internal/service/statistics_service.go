package service

import (
	"context"
	"time"

	"reportflow/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StatisticsResponse struct {
	TotalReports      int64            `json:"total_reports"`
	ByStatus          map[string]int64 `json:"by_status"`
	ByDepartment      map[string]int64 `json:"by_department"`
	PendingReview     int64            `json:"pending_review"`
	CompletedCost     string           `json:"completed_cost"`
	AvgCompletionDays float64          `json:"avg_completion_days"`
}

type StatisticsService interface {
	GetOverview(ctx context.Context, department string) (*StatisticsResponse, error)
}

type statisticsService struct {
	db *gorm.DB
}

func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

type statusCount struct {
	Status string
	Count  int64
}

type departmentCount struct {
	Department string
	Count      int64
}

// GetOverview aggregates report counts and cost totals. A non-empty department
// narrows every figure to that department; managers get their own department,
// the GM and admins see everything.
func (s *statisticsService) GetOverview(ctx context.Context, department string) (*StatisticsResponse, error) {
	base := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&model.Report{})
		if department != "" {
			q = q.Where("department = ?", department)
		}
		return q
	}

	resp := &StatisticsResponse{
		ByStatus:      make(map[string]int64),
		ByDepartment:  make(map[string]int64),
		CompletedCost: decimal.Zero.String(),
	}

	if err := base().Count(&resp.TotalReports).Error; err != nil {
		return nil, err
	}

	var byStatus []statusCount
	if err := base().
		Select("status, count(*) as count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, row := range byStatus {
		resp.ByStatus[row.Status] = row.Count
	}
	resp.PendingReview = resp.ByStatus[string(model.StatusManagerReview)] +
		resp.ByStatus[string(model.StatusGMReview)]

	var byDept []departmentCount
	if err := base().
		Select("department, count(*) as count").
		Group("department").
		Scan(&byDept).Error; err != nil {
		return nil, err
	}
	for _, row := range byDept {
		resp.ByDepartment[row.Department] = row.Count
	}

	// Sum in Go with decimal to avoid driver-dependent numeric handling.
	var completed []model.Report
	if err := base().
		Where("status = ?", model.StatusCompleted).
		Select("cost", "created_at", "last_modified_at").
		Find(&completed).Error; err != nil {
		return nil, err
	}

	total := decimal.Zero
	var elapsed time.Duration
	for _, r := range completed {
		total = total.Add(r.Cost)
		elapsed += r.LastModifiedAt.Sub(r.CreatedAt)
	}
	resp.CompletedCost = total.String()
	if len(completed) > 0 {
		resp.AvgCompletionDays = elapsed.Hours() / 24 / float64(len(completed))
	}

	return resp, nil
}
