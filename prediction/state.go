package prediction

import (
	"sync"
	"time"
)

// Forecast is the next-day prediction returned by the forecasting endpoint.
type Forecast struct {
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	AQI         float64   `json:"aqi"`
	CycleID     string    `json:"cycle_id,omitempty"`
	At          time.Time `json:"at"`
}

// State holds the latest committed Forecast. It starts unavailable and only
// ever changes by a whole-Forecast commit, so readers never see a mix of old
// and new fields.
type State struct {
	mu        sync.RWMutex
	forecast  Forecast
	available bool
}

func NewState() *State {
	return &State{}
}

// Snapshot returns the latest forecast and whether one has been committed.
func (s *State) Snapshot() (Forecast, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.forecast, s.available
}

func (s *State) commit(f Forecast) {
	s.mu.Lock()
	s.forecast = f
	s.available = true
	s.mu.Unlock()
}
