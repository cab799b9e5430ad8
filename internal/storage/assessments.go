package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/quietsignal/phenoscope/internal/model"
)

// StoredAssessment is one persisted assessment row.
type StoredAssessment struct {
	CreatedAt      time.Time
	Mode           string
	RiskLevel      string
	Trend          string
	Explanation    string
	Counterfactual string
	ID             int64
	DayIndex       int
	Confidence     float64
}

// SaveAssessment appends an assessment to the audit log.
func (s *SQLiteStorage) SaveAssessment(ctx context.Context, assessment *model.Assessment) error {
	if assessment == nil {
		return fmt.Errorf("assessment cannot be nil")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assessments (mode, day_index, risk_level, confidence, trend, explanation, counterfactual)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(assessment.Mode),
		assessment.DayIndex,
		string(assessment.RiskLevel),
		assessment.Confidence,
		assessment.Trend,
		assessment.Explanation,
		assessment.Counterfactual,
	)
	if err != nil {
		return fmt.Errorf("failed to save assessment: %w", err)
	}
	return nil
}

// GetRecentAssessments returns the most recent assessments, newest first.
func (s *SQLiteStorage) GetRecentAssessments(ctx context.Context, limit int) ([]StoredAssessment, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, day_index, risk_level, confidence, trend, explanation, counterfactual, created_at
		 FROM assessments ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query assessments: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []StoredAssessment
	for rows.Next() {
		var a StoredAssessment
		if err := rows.Scan(&a.ID, &a.Mode, &a.DayIndex, &a.RiskLevel, &a.Confidence,
			&a.Trend, &a.Explanation, &a.Counterfactual, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assessments: %w", err)
	}
	return out, nil
}

// CountAssessments returns the total number of persisted assessments.
func (s *SQLiteStorage) CountAssessments(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assessments`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count assessments: %w", err)
	}
	return count, nil
}
