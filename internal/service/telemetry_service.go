package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"slices"
	"strings"
	"time"

	"CapIot.telemetry/internal/models"
	"CapIot.telemetry/internal/repository"
	"github.com/shopspring/decimal"
)

// Errors returned by TelemetryService. Fetch and compute failures wrap their
// cause.
var (
	ErrNotFound      = errors.New("no data found")
	ErrFetchFailed   = errors.New("fetch failed")
	ErrComputeFailed = errors.New("compute failed")
)

const (
	// DefaultHistoryHours is the history window used when none is requested.
	DefaultHistoryHours = 24

	statsWindow   = 100
	historySuffix = "/history"
	isoMillis     = "2006-01-02T15:04:05.000Z"

	// A float64 has at most 1074 fractional binary digits, each needing one
	// decimal digit.
	exactFloatDigits = 1074
)

// TelemetryService turns store snapshots of one readings path into readings,
// history windows and statistics.
type TelemetryService struct {
	repo repository.SnapshotRepository
	path string
	now  func() time.Time
}

// NewTelemetryService creates a TelemetryService reading from readingsPath.
func NewTelemetryService(repo repository.SnapshotRepository, readingsPath string) *TelemetryService {
	return &TelemetryService{
		repo: repo,
		path: strings.TrimRight(readingsPath, "/"),
		now:  time.Now,
	}
}

// SetClock replaces the time source used for generated timestamps and the
// history window.
func (s *TelemetryService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *TelemetryService) historyPath() string {
	return s.path + historySuffix
}

// GetCurrentReadings returns the latest voltages and their total.
func (s *TelemetryService) GetCurrentReadings(ctx context.Context) (models.Reading, error) {
	snapshot, err := s.repo.FetchSnapshot(ctx, s.path)
	if err != nil {
		return models.Reading{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if !snapshot.Exists() {
		return models.Reading{}, ErrNotFound
	}

	fields := snapshot.Fields()
	v1, v2, v3 := fields["Voltage"], fields["Voltage2"], fields["Voltage3"]
	total := v1.Float() + v2.Float() + v3.Float()
	if math.IsInf(total, 0) {
		return models.Reading{}, fmt.Errorf("%w: total of %s overflows", ErrComputeFailed, s.path)
	}

	return models.Reading{
		Voltage1:  v1.OrZeroString(),
		Voltage2:  v2.OrZeroString(),
		Voltage3:  v3.OrZeroString(),
		Total:     total,
		Timestamp: s.now().UnixMilli(),
	}, nil
}

// GetHistory returns the history entries sampled within the last hours, oldest
// first. No history at all is an empty result, not an error. A NaN window
// matches nothing.
func (s *TelemetryService) GetHistory(ctx context.Context, hours float64) ([]models.HistoryRecord, error) {
	timeLimit := float64(s.now().UnixMilli()) - hours*float64(time.Hour/time.Millisecond)

	snapshot, err := s.repo.FetchSnapshot(ctx, s.historyPath())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	records := []models.HistoryRecord{}
	if !snapshot.Exists() {
		return records, nil
	}

	entries, err := snapshot.HistoryEntries()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrComputeFailed, err)
	}
	for _, entry := range entries {
		ts, ok := entry.Timestamp.Number()
		if !ok || !(ts > timeLimit) {
			continue
		}
		records = append(records, entry.Flatten(ts))
	}
	slices.SortStableFunc(records, func(a, b models.HistoryRecord) int {
		return cmp.Compare(a.SampleMillis(), b.SampleMillis())
	})
	return records, nil
}

// GetStats aggregates the last 100 history entries in store order.
func (s *TelemetryService) GetStats(ctx context.Context) (models.Stats, error) {
	snapshot, err := s.repo.FetchSnapshot(ctx, s.historyPath())
	if err != nil {
		return models.Stats{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if !snapshot.Exists() {
		return models.Stats{}, ErrNotFound
	}

	entries, err := snapshot.HistoryEntries()
	if err != nil {
		return models.Stats{}, fmt.Errorf("%w: %w", ErrComputeFailed, err)
	}
	if len(entries) > statsWindow {
		entries = entries[len(entries)-statsWindow:]
	}

	v1 := make([]float64, 0, len(entries))
	v2 := make([]float64, 0, len(entries))
	v3 := make([]float64, 0, len(entries))
	for _, entry := range entries {
		v1 = append(v1, entry.Voltage(models.FieldVoltage1).Float())
		v2 = append(v2, entry.Voltage(models.FieldVoltage2).Float())
		v3 = append(v3, entry.Voltage(models.FieldVoltage3).Float())
	}

	return models.Stats{
		Averages: models.VoltageAverages{
			Voltage1: average(v1),
			Voltage2: average(v2),
			Voltage3: average(v3),
		},
		Max: models.VoltageExtremes{
			Voltage1: maxOf(v1),
			Voltage2: maxOf(v2),
			Voltage3: maxOf(v3),
		},
		Min: models.VoltageExtremes{
			Voltage1: minOf(v1),
			Voltage2: minOf(v2),
			Voltage3: minOf(v3),
		},
		Timestamp: s.now().UnixMilli(),
	}, nil
}

// Health reports liveness. It never touches the store.
func (s *TelemetryService) Health() models.Health {
	return models.Health{
		Status:    "OK",
		Timestamp: s.now().UTC().Format(isoMillis),
	}
}

func average(values []float64) string {
	if len(values) == 0 {
		return "0.00"
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return toFixed2(sum / float64(len(values)))
}

// toFixed2 rounds the exact binary value of x to two decimals, ties away from
// zero.
func toFixed2(x float64) string {
	switch {
	case math.IsNaN(x):
		return "NaN"
	case math.IsInf(x, 1):
		return "Infinity"
	case math.IsInf(x, -1):
		return "-Infinity"
	}
	exact := new(big.Float).SetFloat64(math.Abs(x)).Text('f', exactFloatDigits)
	fixed := decimal.RequireFromString(exact).StringFixed(2)
	if x < 0 {
		return "-" + fixed
	}
	return fixed
}

func maxOf(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	m := slices.Max(values)
	return &m
}

func minOf(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	m := slices.Min(values)
	return &m
}
