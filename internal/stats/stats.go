// Package stats provides scalar error metrics between two index-aligned series.
package stats

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrLengthMismatch is returned when two series differ in length.
	ErrLengthMismatch = errors.New("series lengths differ")
	// ErrUnknownMetric is returned for an unrecognized metric name.
	ErrUnknownMetric = errors.New("unknown metric")
	// ErrEmptySeries is returned when both series are empty.
	ErrEmptySeries = errors.New("series are empty")
)

// Metric names an error metric.
type Metric string

const (
	MetricRMSE Metric = "rmse"
	MetricMAE  Metric = "mae"
)

// ValidMetrics is the set of all supported metrics.
var ValidMetrics = []Metric{MetricRMSE, MetricMAE}

// IsValid returns true if the metric is recognized.
func (m Metric) IsValid() bool {
	for _, v := range ValidMetrics {
		if m == v {
			return true
		}
	}
	return false
}

// ParseMetric converts a case-insensitive name into a Metric.
func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
	}
	return m, nil
}

func check(a, b []float64) error {
	if len(a) != len(b) {
		return fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return ErrEmptySeries
	}
	return nil
}

// RMSE returns the root mean square error between a and b.
func RMSE(a, b []float64) (float64, error) {
	if err := check(a, b); err != nil {
		return 0, err
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(a))), nil
}

// MAE returns the mean absolute error between a and b.
func MAE(a, b []float64) (float64, error) {
	if err := check(a, b); err != nil {
		return 0, err
	}
	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum / float64(len(a)), nil
}

// Compute evaluates metric m on a and b.
func Compute(m Metric, a, b []float64) (float64, error) {
	switch m {
	case MetricRMSE:
		return RMSE(a, b)
	case MetricMAE:
		return MAE(a, b)
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, m)
}
