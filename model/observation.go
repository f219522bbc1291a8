package model

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// ObservationFeatures describes the conditions under which metric readings
// were observed: the parameterization and optionally when and in which trial.
type ObservationFeatures struct {
	Parameters Parameterization `json:"parameters" yaml:"parameters"`
	TrialIndex *int             `json:"trialIndex,omitempty" yaml:"trialIndex,omitempty"`
	StartTime  *time.Time       `json:"startTime,omitempty" yaml:"startTime,omitempty"`
	EndTime    *time.Time       `json:"endTime,omitempty" yaml:"endTime,omitempty"`
}

// Clone returns a deep copy of the features.
func (f *ObservationFeatures) Clone() *ObservationFeatures {
	result := &ObservationFeatures{Parameters: f.Parameters.Clone()}
	if f.TrialIndex != nil {
		index := *f.TrialIndex
		result.TrialIndex = &index
	}
	result.StartTime = f.StartTime
	result.EndTime = f.EndTime
	return result
}

// UpdateFeatures overlays parameter values and metadata from other onto the
// receiver.
func (f *ObservationFeatures) UpdateFeatures(other *ObservationFeatures) *ObservationFeatures {
	if other == nil {
		return f
	}
	if f.Parameters == nil {
		f.Parameters = Parameterization{}
	}
	for name, value := range other.Parameters {
		f.Parameters[name] = value
	}
	if other.TrialIndex != nil {
		f.TrialIndex = other.TrialIndex
	}
	if other.StartTime != nil {
		f.StartTime = other.StartTime
	}
	if other.EndTime != nil {
		f.EndTime = other.EndTime
	}
	return f
}

// ObservationData holds readings for k metrics: k means and a k by k
// covariance matrix.
type ObservationData struct {
	MetricNames []string    `json:"metricNames" yaml:"metricNames"`
	Means       []float64   `json:"means" yaml:"means"`
	Covariance  [][]float64 `json:"covariance" yaml:"covariance"`
}

// NewObservationData validates shapes and returns the assembled readings.
func NewObservationData(metricNames []string, means []float64, covariance [][]float64) (*ObservationData, error) {
	k := len(metricNames)
	if len(means) != k {
		return nil, fmt.Errorf("expected %d means, had %d", k, len(means))
	}
	if len(covariance) != k {
		return nil, fmt.Errorf("expected %dx%d covariance, had %d rows", k, k, len(covariance))
	}
	for i, row := range covariance {
		if len(row) != k {
			return nil, fmt.Errorf("covariance row %d: expected %d columns, had %d", i, k, len(row))
		}
	}
	return &ObservationData{MetricNames: metricNames, Means: means, Covariance: covariance}, nil
}

// Mean returns the mean for the supplied metric; false when absent.
func (d *ObservationData) Mean(metricName string) (float64, bool) {
	for i, name := range d.MetricNames {
		if name == metricName {
			return d.Means[i], true
		}
	}
	return 0, false
}

// Variance returns the variance for the supplied metric; false when absent.
func (d *ObservationData) Variance(metricName string) (float64, bool) {
	for i, name := range d.MetricNames {
		if name == metricName {
			return d.Covariance[i][i], true
		}
	}
	return 0, false
}

// Observation pairs features with observed data, optionally annotated with
// the arm that produced them.
type Observation struct {
	Features *ObservationFeatures `json:"features" yaml:"features"`
	Data     *ObservationData     `json:"data" yaml:"data"`
	ArmName  string               `json:"armName,omitempty" yaml:"armName,omitempty"`
}

type observationKey struct {
	armName    string
	trialIndex int
}

// ObservationsFromData converts raw rows into observations, grouping rows by
// arm and trial. Covariance is diagonal with per-metric sem squared; an
// unknown sem yields NaN variance. A row referencing an arm absent from the
// supplied map is an error, attached data must not be dropped silently.
func ObservationsFromData(arms map[string]*Arm, data *Data) ([]*Observation, error) {
	if data.IsEmpty() {
		return nil, nil
	}
	grouped := map[observationKey][]*Row{}
	var order []observationKey
	for _, row := range data.Rows {
		key := observationKey{armName: row.ArmName, trialIndex: row.TrialIndex}
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], row)
	}

	var result []*Observation
	for _, key := range order {
		arm, ok := arms[key.armName]
		if !ok {
			return nil, fmt.Errorf("data references unknown arm %q", key.armName)
		}
		rows := grouped[key]
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].MetricName < rows[j].MetricName
		})
		k := len(rows)
		names := make([]string, k)
		means := make([]float64, k)
		covariance := make([][]float64, k)
		var start, end *time.Time
		for i, row := range rows {
			names[i] = row.MetricName
			means[i] = row.Mean
			covariance[i] = make([]float64, k)
			if row.SEM == 0 {
				covariance[i][i] = 0
			} else if math.IsNaN(row.SEM) {
				covariance[i][i] = math.NaN()
			} else {
				covariance[i][i] = row.SEM * row.SEM
			}
			if row.StartTime != nil {
				start = row.StartTime
			}
			if row.EndTime != nil {
				end = row.EndTime
			}
		}
		index := key.trialIndex
		features := &ObservationFeatures{
			Parameters: arm.Parameters.Clone(),
			TrialIndex: &index,
			StartTime:  start,
			EndTime:    end,
		}
		observationData := &ObservationData{MetricNames: names, Means: means, Covariance: covariance}
		result = append(result, &Observation{Features: features, Data: observationData, ArmName: key.armName})
	}
	return result, nil
}

// SeparateObservations splits observations into parallel feature and data
// slices.
func SeparateObservations(observations []*Observation) ([]*ObservationFeatures, []*ObservationData) {
	features := make([]*ObservationFeatures, 0, len(observations))
	data := make([]*ObservationData, 0, len(observations))
	for _, observation := range observations {
		features = append(features, observation.Features)
		data = append(data, observation.Data)
	}
	return features, data
}
