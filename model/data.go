package model

import (
	"math"
	"sort"
	"time"
)

// Row is a single metric reading attached to an arm.
type Row struct {
	ArmName    string     `json:"armName" yaml:"armName"`
	MetricName string     `json:"metricName" yaml:"metricName"`
	Mean       float64    `json:"mean" yaml:"mean"`
	SEM        float64    `json:"sem" yaml:"sem"`
	TrialIndex int        `json:"trialIndex,omitempty" yaml:"trialIndex,omitempty"`
	StartTime  *time.Time `json:"startTime,omitempty" yaml:"startTime,omitempty"`
	EndTime    *time.Time `json:"endTime,omitempty" yaml:"endTime,omitempty"`
}

// Data is a collection of metric readings.
type Data struct {
	Rows []*Row `json:"rows,omitempty" yaml:"rows,omitempty"`
}

// Append adds rows to the data set.
func (d *Data) Append(rows ...*Row) {
	d.Rows = append(d.Rows, rows...)
}

// Merge combines this data set with another, with rows from other appended
// after the receiver's rows.
func (d *Data) Merge(other *Data) *Data {
	if other == nil || len(other.Rows) == 0 {
		return d
	}
	result := &Data{Rows: make([]*Row, 0, len(d.Rows)+len(other.Rows))}
	result.Rows = append(result.Rows, d.Rows...)
	result.Rows = append(result.Rows, other.Rows...)
	return result
}

// MetricNames returns the sorted distinct metric names present in the data.
func (d *Data) MetricNames() []string {
	seen := map[string]bool{}
	var names []string
	for _, row := range d.Rows {
		if seen[row.MetricName] {
			continue
		}
		seen[row.MetricName] = true
		names = append(names, row.MetricName)
	}
	sort.Strings(names)
	return names
}

// ArmNames returns the sorted distinct arm names present in the data.
func (d *Data) ArmNames() []string {
	seen := map[string]bool{}
	var names []string
	for _, row := range d.Rows {
		if seen[row.ArmName] {
			continue
		}
		seen[row.ArmName] = true
		names = append(names, row.ArmName)
	}
	sort.Strings(names)
	return names
}

// FilterMetric returns a data set holding only rows for the supplied metric.
func (d *Data) FilterMetric(name string) *Data {
	result := &Data{}
	for _, row := range d.Rows {
		if row.MetricName == name {
			result.Rows = append(result.Rows, row)
		}
	}
	return result
}

// FilterArm returns a data set holding only rows for the supplied arm.
func (d *Data) FilterArm(name string) *Data {
	result := &Data{}
	for _, row := range d.Rows {
		if row.ArmName == name {
			result.Rows = append(result.Rows, row)
		}
	}
	return result
}

// Mean returns the mean for the supplied arm and metric, averaging repeated
// readings; the second result is false when no reading exists.
func (d *Data) Mean(armName, metricName string) (float64, bool) {
	var sum float64
	var count int
	for _, row := range d.Rows {
		if row.ArmName == armName && row.MetricName == metricName {
			sum += row.Mean
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

// IsEmpty returns true when no rows were recorded.
func (d *Data) IsEmpty() bool {
	return d == nil || len(d.Rows) == 0
}

// HasSEM returns true when any row carries a known standard error.
func (d *Data) HasSEM() bool {
	for _, row := range d.Rows {
		if !math.IsNaN(row.SEM) && row.SEM != 0 {
			return true
		}
	}
	return false
}
