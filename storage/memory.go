package storage

import (
	"sync"
	"time"

	"github.com/evkuzin/climescope/config"
	"github.com/evkuzin/climescope/prediction"
	"github.com/evkuzin/climescope/sensor"
)

// Memory keeps history in process when no database is configured. It is
// bounded by age and count and lost on restart.
type Memory struct {
	mu         sync.RWMutex
	samples    []Sample
	forecasts  []Forecast
	maxHistory int
	maxAge     time.Duration
	now        func() time.Time
}

// NewMemory creates a Memory store. maxHistory <= 0 means unlimited count.
func NewMemory(maxHistory int, maxAge time.Duration) *Memory {
	return &Memory{maxHistory: maxHistory, maxAge: maxAge, now: time.Now}
}

func (m *Memory) Init(*config.Config) error {
	return nil
}

func (m *Memory) Put(sample sensor.Sample) error {
	row := newSample(sample)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = trimSamples(append(m.samples, row), m.maxHistory, m.cutoff())
	return nil
}

func (m *Memory) RecordPrediction(rec prediction.Record) error {
	row := newForecast(rec)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forecasts = append(m.forecasts, row)
	if m.maxHistory > 0 && len(m.forecasts) > m.maxHistory {
		m.forecasts = m.forecasts[len(m.forecasts)-m.maxHistory:]
	}
	return nil
}

func (m *Memory) GetEvents(t time.Duration) []Sample {
	since := m.now().Add(-t)
	m.mu.RLock()
	defer m.mu.RUnlock()
	var events []Sample
	for _, s := range m.samples {
		if s.Time.After(since) {
			events = append(events, s)
		}
	}
	return events
}

func (m *Memory) GetForecasts(t time.Duration) []Forecast {
	since := m.now().Add(-t)
	m.mu.RLock()
	defer m.mu.RUnlock()
	var forecasts []Forecast
	for _, f := range m.forecasts {
		if f.Time.After(since) {
			forecasts = append(forecasts, f)
		}
	}
	return forecasts
}

func (m *Memory) GetAvg(t time.Duration) (Average, error) {
	var (
		avg                Average
		sumT, sumH, sumGas float64
		climateCount       int
	)
	for _, s := range m.GetEvents(t) {
		avg.Samples++
		sumGas += float64(s.GasRaw)
		if s.Temperature != nil && s.Humidity != nil {
			sumT += *s.Temperature
			sumH += *s.Humidity
			climateCount++
		}
	}
	if avg.Samples > 0 {
		gas := sumGas / float64(avg.Samples)
		avg.GasRaw = &gas
	}
	if climateCount > 0 {
		temperature, humidity := sumT/float64(climateCount), sumH/float64(climateCount)
		avg.Temperature = &temperature
		avg.Humidity = &humidity
	}
	return avg, nil
}

func (m *Memory) Prune(olderThan time.Duration) (int64, error) {
	cutoff := m.now().Add(-olderThan)
	m.mu.Lock()
	defer m.mu.Unlock()
	before := len(m.samples) + len(m.forecasts)
	m.samples = trimSamples(m.samples, 0, cutoff)
	kept := m.forecasts[:0]
	for _, f := range m.forecasts {
		if !f.Time.Before(cutoff) {
			kept = append(kept, f)
		}
	}
	m.forecasts = kept
	return int64(before - len(m.samples) - len(m.forecasts)), nil
}

func (m *Memory) cutoff() time.Time {
	if m.maxAge <= 0 {
		return time.Time{}
	}
	return m.now().Add(-m.maxAge)
}

// trimSamples enforces retention by count and by age on a time-ordered slice.
func trimSamples(samples []Sample, maxHistory int, cutoff time.Time) []Sample {
	if maxHistory > 0 && len(samples) > maxHistory {
		samples = samples[len(samples)-maxHistory:]
	}
	i := 0
	for ; i < len(samples); i++ {
		if !samples[i].Time.Before(cutoff) {
			break
		}
	}
	return samples[i:]
}
