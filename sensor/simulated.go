package sensor

import (
	"math/rand"
	"time"
)

// Simulated produces plausible readings without hardware, for running the
// node on a development machine.
type Simulated struct {
	rand *rand.Rand
}

func NewSimulated() *Simulated {
	return &Simulated{rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (s *Simulated) SenseClimate() (float64, float64, error) {
	temperature := 28 + (s.rand.Float64()-0.5)*6
	humidity := 70 + (s.rand.Float64()-0.5)*20
	return temperature, humidity, nil
}

func (s *Simulated) ReadRaw() (int, error) {
	return 80 + s.rand.Intn(120), nil
}
