package sensor

import (
	"errors"
	"io"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type fakeClimate struct {
	celsius, humidity float64
	err               error
}

func (f fakeClimate) SenseClimate() (float64, float64, error) {
	return f.celsius, f.humidity, f.err
}

type fakeGas struct {
	raw int
	err error
}

func (f fakeGas) ReadRaw() (int, error) { return f.raw, f.err }

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.Out = io.Discard
	return logger
}

func TestReaderRead(t *testing.T) {
	r := NewReader(fakeClimate{celsius: 28.5, humidity: 65}, fakeGas{raw: 4095}, 3.3, 4095, quietLogger())

	s := r.Read()
	assert.True(t, s.ClimateOK)
	assert.Equal(t, 28.5, s.Temperature)
	assert.Equal(t, 65.0, s.Humidity)
	assert.Equal(t, 4095, s.GasRaw)
	assert.InDelta(t, 3.3, s.GasVoltage, 1e-9)
	assert.False(t, s.Time.IsZero())
}

func TestReaderMarksNaNAbsent(t *testing.T) {
	cases := map[string]fakeClimate{
		"nan temperature": {celsius: math.NaN(), humidity: 60},
		"nan humidity":    {celsius: 21, humidity: math.NaN()},
		"sensor error":    {err: errors.New("checksum mismatch")},
	}
	for name, climate := range cases {
		t.Run(name, func(t *testing.T) {
			r := NewReader(climate, fakeGas{raw: 120}, 3.3, 4095, quietLogger())
			s := r.Read()
			assert.False(t, s.ClimateOK)
			assert.Zero(t, s.Temperature)
			assert.Zero(t, s.Humidity)
			assert.Equal(t, 120, s.GasRaw)

			temperature, humidity := s.Display()
			assert.Zero(t, temperature)
			assert.Zero(t, humidity)
		})
	}
}

func TestReaderGasFailure(t *testing.T) {
	r := NewReader(fakeClimate{celsius: 20, humidity: 50}, fakeGas{err: errors.New("i2c nack")}, 3.3, 4095, quietLogger())
	s := r.Read()
	assert.True(t, s.ClimateOK)
	assert.Zero(t, s.GasRaw)
	assert.Zero(t, s.GasVoltage)
}

func TestSimulatedStaysInRange(t *testing.T) {
	sim := NewSimulated()
	for i := 0; i < 100; i++ {
		c, h, err := sim.SenseClimate()
		assert.NoError(t, err)
		assert.InDelta(t, 28, c, 3)
		assert.InDelta(t, 70, h, 10)
		raw, err := sim.ReadRaw()
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, raw, 80)
		assert.Less(t, raw, 200)
	}
}
