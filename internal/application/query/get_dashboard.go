// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neuroclass/neuroclass-hub/internal/domain/lesson"
	"github.com/neuroclass/neuroclass-hub/internal/domain/scoring"
	"github.com/neuroclass/neuroclass-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET TEACHER DASHBOARD QUERY
// The observing teacher's view of one student: the most recent finished
// block with its indices and recommendation, plus the full scored history.
// ══════════════════════════════════════════════════════════════════════════════

// GetDashboardQuery contains the parameters for the dashboard query.
type GetDashboardQuery struct {
	// StudentID is the student to inspect.
	StudentID string
}

// Validate validates the query.
func (q GetDashboardQuery) Validate() error {
	if q.StudentID == "" {
		return errors.New("get_dashboard: student_id is required")
	}
	return nil
}

// DashboardStudent is the student header of the dashboard.
type DashboardStudent struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}

// DashboardBlock is the last scored block summary.
type DashboardBlock struct {
	BlockID        string  `json:"block_id"`
	OverloadIndex  float64 `json:"overload_index"`
	ReadinessIndex float64 `json:"readiness_index"`
}

// DashboardHistoryEntry is one row of the scored-block history.
type DashboardHistoryEntry struct {
	BlockID        string    `json:"block_id"`
	StartedAt      time.Time `json:"started_at"`
	OverloadIndex  float64   `json:"overload_index"`
	ReadinessIndex float64   `json:"readiness_index"`
}

// Dashboard is the full dashboard DTO.
type Dashboard struct {
	Student        DashboardStudent        `json:"student"`
	LastBlock      *DashboardBlock         `json:"last_block"`
	Recommendation *scoring.Recommendation `json:"recommendation"`
	History        []DashboardHistoryEntry `json:"history"`
}

// DashboardCache is an optional read-through cache for dashboards.
// Implemented by the redis layer; a nil cache disables caching.
type DashboardCache interface {
	Get(ctx context.Context, studentID string) (*Dashboard, bool)
	Set(ctx context.Context, studentID string, d *Dashboard) error
	Invalidate(ctx context.Context, studentID string) error
}

// GetDashboardHandler handles the GetDashboardQuery.
type GetDashboardHandler struct {
	repo  lesson.Repository
	cache DashboardCache
}

// NewGetDashboardHandler creates a new GetDashboardHandler.
func NewGetDashboardHandler(repo lesson.Repository, cache DashboardCache) *GetDashboardHandler {
	return &GetDashboardHandler{repo: repo, cache: cache}
}

// Handle executes the dashboard query.
func (h *GetDashboardHandler) Handle(ctx context.Context, q GetDashboardQuery) (*Dashboard, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_dashboard: validation failed: %w", err)
	}

	if h.cache != nil {
		if d, ok := h.cache.Get(ctx, q.StudentID); ok {
			return d, nil
		}
	}

	studentID := lesson.StudentID(q.StudentID)
	student, err := h.repo.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	dashboard := &Dashboard{
		Student: DashboardStudent{
			ID:       student.ID.String(),
			FullName: student.FullName,
		},
		History: make([]DashboardHistoryEntry, 0),
	}

	// The last block may be unfinished or unscored; the dashboard then
	// simply shows no current indices.
	lastBlock, err := h.repo.GetLastBlock(ctx, studentID)
	if err != nil && !shared.IsNotFound(err) {
		return nil, err
	}
	if lastBlock != nil {
		idx, err := h.repo.GetBlockIndex(ctx, lastBlock.ID)
		if err != nil && !shared.IsNotFound(err) {
			return nil, err
		}
		if idx != nil {
			dashboard.LastBlock = &DashboardBlock{
				BlockID:        lastBlock.ID.String(),
				OverloadIndex:  idx.OverloadIndex,
				ReadinessIndex: idx.ReadinessIndex,
			}
			rec := scoring.MakeRecommendation(idx.OverloadIndex, idx.ReadinessIndex)
			dashboard.Recommendation = &rec
		}
	}

	history, err := h.repo.ListHistory(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("get_dashboard: failed to list history: %w", err)
	}
	for _, entry := range history {
		dashboard.History = append(dashboard.History, DashboardHistoryEntry{
			BlockID:        entry.Block.ID.String(),
			StartedAt:      entry.Block.StartedAt,
			OverloadIndex:  entry.Index.OverloadIndex,
			ReadinessIndex: entry.Index.ReadinessIndex,
		})
	}

	if h.cache != nil {
		_ = h.cache.Set(ctx, q.StudentID, dashboard)
	}

	return dashboard, nil
}
