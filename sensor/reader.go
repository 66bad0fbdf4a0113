package sensor

import (
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Reader combines the climate and gas sensors into Samples.
type Reader struct {
	mu               sync.Mutex
	climate          Climate
	gas              Gas
	referenceVoltage float64
	resolution       int
	logger           *logrus.Logger
	now              func() time.Time
}

func NewReader(climate Climate, gas Gas, referenceVoltage float64, resolution int, logger *logrus.Logger) *Reader {
	return &Reader{
		climate:          climate,
		gas:              gas,
		referenceVoltage: referenceVoltage,
		resolution:       resolution,
		logger:           logger,
		now:              time.Now,
	}
}

// Read performs a single synchronous read of both sensors.
func (r *Reader) Read() Sample {
	r.mu.Lock()
	defer r.mu.Unlock()

	sample := Sample{Time: r.now()}

	celsius, humidity, err := r.climate.SenseClimate()
	switch {
	case err != nil:
		r.logger.Warnf("failed to read from climate sensor: %s", err.Error())
	case math.IsNaN(celsius) || math.IsNaN(humidity):
		r.logger.Warn("failed to read from climate sensor: NaN reading")
	default:
		sample.Temperature = celsius
		sample.Humidity = humidity
		sample.ClimateOK = true
	}

	raw, err := r.gas.ReadRaw()
	if err != nil {
		r.logger.Warnf("failed to read from gas sensor: %s", err.Error())
	} else {
		sample.GasRaw = raw
		sample.GasVoltage = r.toVolts(raw)
	}

	r.logger.Debugf("temperature: %.1f °C, humidity: %.1f %%, gas raw: %d, voltage: %.2f V",
		sample.Temperature, sample.Humidity, sample.GasRaw, sample.GasVoltage)
	return sample
}

func (r *Reader) toVolts(raw int) float64 {
	if r.resolution <= 0 {
		return 0
	}
	return float64(raw) * r.referenceVoltage / float64(r.resolution)
}
