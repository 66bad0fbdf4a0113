package storage

import (
	"testing"
	"time"

	"github.com/evkuzin/climescope/prediction"
	"github.com/evkuzin/climescope/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestMemoryPutAndGetEvents(t *testing.T) {
	now := time.Date(2025, 11, 5, 12, 0, 0, 0, time.UTC)
	m := NewMemory(0, 0)
	m.now = fixedClock(now)

	require.NoError(t, m.Put(sensor.Sample{Time: now.Add(-2 * time.Hour), Temperature: 25, Humidity: 80, ClimateOK: true, GasRaw: 100}))
	require.NoError(t, m.Put(sensor.Sample{Time: now.Add(-30 * time.Minute), GasRaw: 200}))

	events := m.GetEvents(time.Hour)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].Temperature)
	assert.Equal(t, 200, events[0].GasRaw)

	events = m.GetEvents(3 * time.Hour)
	require.Len(t, events, 2)
	require.NotNil(t, events[0].Temperature)
	assert.Equal(t, 25.0, *events[0].Temperature)
}

func TestMemoryRetention(t *testing.T) {
	now := time.Date(2025, 11, 5, 12, 0, 0, 0, time.UTC)
	m := NewMemory(3, time.Hour)
	m.now = fixedClock(now)

	for i := 5; i >= 0; i-- {
		require.NoError(t, m.Put(sensor.Sample{Time: now.Add(-time.Duration(i) * 20 * time.Minute), GasRaw: i}))
	}
	events := m.GetEvents(24 * time.Hour)
	require.Len(t, events, 3)
	assert.Equal(t, []int{2, 1, 0}, []int{events[0].GasRaw, events[1].GasRaw, events[2].GasRaw})
}

func TestMemoryGetAvg(t *testing.T) {
	now := time.Date(2025, 11, 5, 12, 0, 0, 0, time.UTC)
	m := NewMemory(0, 0)
	m.now = fixedClock(now)

	avg, err := m.GetAvg(time.Hour)
	require.NoError(t, err)
	assert.Zero(t, avg.Samples)
	assert.Nil(t, avg.Temperature)

	require.NoError(t, m.Put(sensor.Sample{Time: now.Add(-time.Minute), Temperature: 20, Humidity: 60, ClimateOK: true, GasRaw: 100}))
	require.NoError(t, m.Put(sensor.Sample{Time: now.Add(-2 * time.Minute), Temperature: 30, Humidity: 80, ClimateOK: true, GasRaw: 200}))
	require.NoError(t, m.Put(sensor.Sample{Time: now.Add(-3 * time.Minute), GasRaw: 300}))

	avg, err = m.GetAvg(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(3), avg.Samples)
	require.NotNil(t, avg.Temperature)
	assert.Equal(t, 25.0, *avg.Temperature)
	assert.Equal(t, 70.0, *avg.Humidity)
	assert.Equal(t, 200.0, *avg.GasRaw)
}

func TestMemoryForecastsAndPrune(t *testing.T) {
	now := time.Date(2025, 11, 5, 12, 0, 0, 0, time.UTC)
	m := NewMemory(0, 0)
	m.now = fixedClock(now)

	require.NoError(t, m.RecordPrediction(prediction.Record{
		CycleID:  "old",
		Sample:   sensor.Sample{Temperature: 28.5, Humidity: 65, ClimateOK: true, GasRaw: 150},
		Forecast: prediction.Forecast{Temperature: 31.71, Humidity: 73.21, AQI: 104.18, At: now.Add(-48 * time.Hour)},
	}))
	require.NoError(t, m.RecordPrediction(prediction.Record{
		CycleID:  "new",
		Forecast: prediction.Forecast{Temperature: 30, Humidity: 70, AQI: 99, At: now.Add(-time.Minute)},
	}))
	require.NoError(t, m.Put(sensor.Sample{Time: now.Add(-72 * time.Hour)}))

	forecasts := m.GetForecasts(72 * time.Hour)
	require.Len(t, forecasts, 2)
	assert.Equal(t, "old", forecasts[0].CycleID)
	assert.Equal(t, 28.5, forecasts[0].SentTemperature)
	assert.Equal(t, 150, forecasts[0].SentGasRaw)
	assert.Equal(t, 104.18, forecasts[0].AQI)

	removed, err := m.Prune(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	forecasts = m.GetForecasts(72 * time.Hour)
	require.Len(t, forecasts, 1)
	assert.Equal(t, "new", forecasts[0].CycleID)
	assert.Empty(t, m.GetEvents(100*time.Hour))
}
