// Package rca produces root-cause narratives for risk alerts. The analyzer
// is a deterministic template over the predicted component; it never fails
// and always persists exactly one case per invocation.
package rca

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arjun1665/SmartFleet/internal/fleet"
	"github.com/arjun1665/SmartFleet/internal/store"
)

// Result is one analyzed case.
type Result struct {
	CaseID       uuid.UUID      `json:"rca_case_id"`
	Summary      string         `json:"summary"`
	SimilarCases map[string]any `json:"similar_cases"`
}

// Analyzer writes RCA cases.
type Analyzer struct {
	cases store.RCAStore
	now   func() time.Time
}

// NewAnalyzer constructs an analyzer.
func NewAnalyzer(cases store.RCAStore) *Analyzer {
	return &Analyzer{cases: cases, now: time.Now}
}

// Analyze builds the narrative for an alert and persists it. Persistence is
// the only failure path.
func (a *Analyzer) Analyze(ctx context.Context, alertID uuid.UUID, component fleet.Component, featureValues map[string]float64) (*Result, error) {
	summary := fmt.Sprintf(
		"RCA suggests %s degradation pattern. Recommend inspection of related subsystem and sensor calibration.",
		component)
	similar := map[string]any{"stub": true}

	row := &fleet.RCACase{
		ID:           uuid.New(),
		AlertID:      alertID,
		Summary:      summary,
		SimilarCases: similar,
		CreatedAt:    a.now().UTC(),
	}
	if err := a.cases.InsertRCACase(ctx, row); err != nil {
		return nil, fmt.Errorf("persist rca case: %w", err)
	}
	return &Result{CaseID: row.ID, Summary: row.Summary, SimilarCases: row.SimilarCases}, nil
}
