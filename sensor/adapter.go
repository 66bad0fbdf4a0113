package sensor

import (
	"time"
)

// Sample is one acquisition of both sensors. Temperature and Humidity are only
// meaningful when ClimateOK is set.
type Sample struct {
	Temperature float64
	Humidity    float64
	ClimateOK   bool
	GasRaw      int
	GasVoltage  float64
	Time        time.Time
}

// Display returns the climate values with an absent reading shown as zero.
func (s Sample) Display() (temperature, humidity float64) {
	if !s.ClimateOK {
		return 0, 0
	}
	return s.Temperature, s.Humidity
}

// Climate is a temperature/relative humidity sensor. Implementations report a
// failed conversion either as an error or as NaN values.
type Climate interface {
	SenseClimate() (celsius, humidityPct float64, err error)
}

// Gas is an analog gas sensor behind an ADC; ReadRaw returns converter counts.
type Gas interface {
	ReadRaw() (int, error)
}

// SampleReader is what the rest of the node needs from the sensor layer.
type SampleReader interface {
	Read() Sample
}
