package app

import (
	"context"
	"slices"

	"weightquest/internal/domain"
)

// MaxChartPoints caps the number of points returned by Series.
const MaxChartPoints = 366

// ChartsService encapsulates chart data retrieval use cases.
type ChartsService struct {
	store *ProgressStore
}

// NewChartsService creates a ChartsService reading from store.
func NewChartsService(store *ProgressStore) *ChartsService {
	return &ChartsService{store: store}
}

// Chart is the weight history with its trend line in one unit.
type Chart struct {
	Unit       string                  `json:"unit"`
	Points     []domain.ChartPoint     `json:"points"`
	Thresholds []domain.LevelThreshold `json:"thresholds"`
}

// Series returns the last days points of the chart series, converted to unit.
// Trend values are computed over the full history before truncation. A
// non-positive days returns up to MaxChartPoints points.
func (s *ChartsService) Series(ctx context.Context, userID int64, days int, unit string) (Chart, error) {
	if unit == "" {
		unit = domain.UnitLB
	}
	if !domain.ValidUnit(unit) {
		return Chart{}, ErrInvalidUnit
	}
	if days <= 0 || days > MaxChartPoints {
		days = MaxChartPoints
	}

	p := s.store.Read(ctx, userID)
	points := slices.Collect(domain.ChartSeries(p.Entries))
	if points == nil {
		points = []domain.ChartPoint{}
	}
	if len(points) > days {
		points = points[len(points)-days:]
	}
	for i := range points {
		points[i].Weight = convertFromPounds(points[i].Weight, unit)
		if points[i].RunningAverage.Valid {
			points[i].RunningAverage.Value = convertFromPounds(points[i].RunningAverage.Value, unit)
		}
	}

	thresholds := p.Thresholds()
	if thresholds == nil {
		thresholds = []domain.LevelThreshold{}
	}
	for i := range thresholds {
		thresholds[i].WeightThreshold = convertFromPounds(thresholds[i].WeightThreshold, unit)
	}

	return Chart{Unit: unit, Points: points, Thresholds: thresholds}, nil
}

func convertFromPounds(v float64, unit string) float64 {
	return domain.ConvertWeight(v, domain.UnitLB, unit)
}
