package sensor

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"
)

// gasFullScale is the ADS1115 input range used for the MQ-135 divider.
const gasFullScale = 4096 * physic.MilliVolt

// BME280 reads temperature and humidity from a bme280 on the I²C bus.
type BME280 struct {
	dev *bmxx80.Dev
}

func (b *BME280) SenseClimate() (float64, float64, error) {
	var env physic.Env
	if err := b.dev.Sense(&env); err != nil {
		return 0, 0, err
	}
	celsius := float64(env.Temperature-physic.ZeroCelsius) / float64(physic.Celsius)
	humidity := float64(env.Humidity) / float64(physic.PercentRH)
	return celsius, humidity, nil
}

type analogReader interface {
	Read() (analog.Sample, error)
}

// ADS1115 reads the gas sensor through one single-ended ADS1115 channel and
// reports counts on the node's ADC scale (resolution counts per
// referenceVoltage) rather than the converter's own 16-bit code.
type ADS1115 struct {
	pin              analogReader
	referenceVoltage float64
	resolution       int
}

func (a *ADS1115) ReadRaw() (int, error) {
	s, err := a.pin.Read()
	if err != nil {
		return 0, err
	}
	return a.counts(s.V), nil
}

func (a *ADS1115) counts(v physic.ElectricPotential) int {
	if a.referenceVoltage <= 0 || a.resolution <= 0 || v <= 0 {
		return 0
	}
	volts := float64(v) / float64(physic.Volt)
	c := int(math.Round(volts * float64(a.resolution) / a.referenceVoltage))
	if c > a.resolution {
		return a.resolution
	}
	return c
}

// Peripherals owns the opened bus and devices.
type Peripherals struct {
	Climate *BME280
	Gas     *ADS1115

	bus i2c.BusCloser
	bme *bmxx80.Dev
	ads *ads1x15.Dev
}

// Close halts both devices and releases the bus.
func (p *Peripherals) Close() error {
	var firstErr error
	if err := p.ads.Halt(); err != nil {
		firstErr = err
	}
	if err := p.bme.Halt(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := p.bus.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

var gasChannels = []ads1x15.Channel{
	ads1x15.Channel0,
	ads1x15.Channel1,
	ads1x15.Channel2,
	ads1x15.Channel3,
}

// PeripheralInitialisation opens the I²C bus and both sensors. Gas readings
// are scaled to resolution counts over referenceVoltage.
func PeripheralInitialisation(bus string, climateAddr, gasAddr uint16, gasChannel int, referenceVoltage float64, resolution int, logger *logrus.Logger) (*Peripherals, error) {
	// Make sure peripheral is initialized.
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize periph: %w", err)
	}

	logger.Debugf("Using drivers:")
	for _, driver := range state.Loaded {
		logger.Debugf("- %s", driver)
	}
	// Having drivers failing to load may not require process termination. It
	// is possible to continue to run in partial failure mode.
	for _, failure := range state.Failed {
		logger.Debugf("driver failed to load - %s: %v", failure.D, failure.Err)
	}

	b, err := i2creg.Open(bus)
	if err != nil {
		return nil, fmt.Errorf("cannot open a bus: %w", err)
	}
	logger.Debugf("I2C bus open call successful. Got: %v", b.String())

	bme, err := bmxx80.NewI2C(b, climateAddr, &bmxx80.Opts{
		Temperature: bmxx80.O2x,
		Pressure:    bmxx80.O1x,
		Humidity:    bmxx80.O1x,
		Filter:      bmxx80.NoFilter,
	})
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("cannot open climate sensor: %w", err)
	}

	ads, err := ads1x15.NewADS1115(b, &ads1x15.Opts{I2cAddress: gasAddr})
	if err != nil {
		_ = bme.Halt()
		_ = b.Close()
		return nil, fmt.Errorf("cannot open gas ADC: %w", err)
	}
	if gasChannel < 0 || gasChannel >= len(gasChannels) {
		gasChannel = 0
	}
	pin, err := ads.PinForChannel(gasChannels[gasChannel], gasFullScale, 8*physic.Hertz, ads1x15.SaveEnergy)
	if err != nil {
		_ = ads.Halt()
		_ = bme.Halt()
		_ = b.Close()
		return nil, fmt.Errorf("cannot open gas channel %d: %w", gasChannel, err)
	}

	return &Peripherals{
		Climate: &BME280{dev: bme},
		Gas:     &ADS1115{pin: pin, referenceVoltage: referenceVoltage, resolution: resolution},
		bus:     b,
		bme:     bme,
		ads:     ads,
	}, nil
}
