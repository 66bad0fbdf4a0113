package storage

import (
	"time"

	"github.com/evkuzin/climescope/config"
	"github.com/evkuzin/climescope/prediction"
	"github.com/evkuzin/climescope/sensor"
)

// Sample is a stored sensor acquisition. Temperature and Humidity are nil
// when the climate read failed.
type Sample struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	Time        time.Time `gorm:"index" json:"time"`
	Temperature *float64  `json:"temperature"`
	Humidity    *float64  `json:"humidity"`
	GasRaw      int       `json:"gas_raw"`
	GasVoltage  float64   `json:"gas_voltage"`
}

// Forecast is a committed prediction cycle together with the inputs sent.
type Forecast struct {
	ID              uint      `gorm:"primaryKey" json:"-"`
	CycleID         string    `gorm:"uniqueIndex;size:36" json:"cycle_id"`
	Time            time.Time `gorm:"index" json:"time"`
	Temperature     float64   `json:"temperature"`
	Humidity        float64   `json:"humidity"`
	AQI             float64   `json:"aqi"`
	SentTemperature float64   `json:"sent_temperature"`
	SentHumidity    float64   `json:"sent_humidity"`
	SentGasRaw      int       `json:"sent_gas_raw"`
}

// Average summarises stored samples over a window; nil fields mean no data.
type Average struct {
	Temperature *float64
	Humidity    *float64
	GasRaw      *float64
	Samples     int64
}

type Adapter interface {
	Init(config *config.Config) error
	Put(sample sensor.Sample) error
	RecordPrediction(rec prediction.Record) error
	GetEvents(t time.Duration) []Sample
	GetForecasts(t time.Duration) []Forecast
	GetAvg(t time.Duration) (Average, error)
	Prune(olderThan time.Duration) (int64, error)
}

func newSample(s sensor.Sample) Sample {
	row := Sample{
		Time:       s.Time,
		GasRaw:     s.GasRaw,
		GasVoltage: s.GasVoltage,
	}
	if row.Time.IsZero() {
		row.Time = time.Now()
	}
	if s.ClimateOK {
		temperature, humidity := s.Temperature, s.Humidity
		row.Temperature = &temperature
		row.Humidity = &humidity
	}
	return row
}

func newForecast(rec prediction.Record) Forecast {
	row := Forecast{
		CycleID:         rec.CycleID,
		Time:            rec.Forecast.At,
		Temperature:     rec.Forecast.Temperature,
		Humidity:        rec.Forecast.Humidity,
		AQI:             rec.Forecast.AQI,
		SentTemperature: rec.Sample.Temperature,
		SentHumidity:    rec.Sample.Humidity,
		SentGasRaw:      rec.Sample.GasRaw,
	}
	if row.Time.IsZero() {
		row.Time = time.Now()
	}
	return row
}
