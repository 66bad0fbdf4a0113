package prediction

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/evkuzin/climescope/sensor"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

const maxResponseBytes = 64 << 10

var (
	ErrLinkDown           = errors.New("link not connected")
	ErrClimateUnavailable = errors.New("climate reading unavailable")
	ErrTransport          = errors.New("prediction request failed")
)

// LinkStatus is queried before every outbound attempt.
type LinkStatus interface {
	Connected() bool
}

// Record describes one committed prediction cycle.
type Record struct {
	CycleID  string
	Sample   sensor.Sample
	Forecast Forecast
}

// Sink receives every committed prediction cycle.
type Sink interface {
	RecordPrediction(Record) error
}

// Opts configures a Client. OpenTimeout is clamped below Interval so the
// breaker is always half-open again by the next scheduled cycle.
type Opts struct {
	Endpoint    string
	Timeout     time.Duration
	Interval    time.Duration
	MaxFailures uint32
	OpenTimeout time.Duration
}

// Client runs prediction cycles against the forecasting endpoint and commits
// the results into State.
type Client struct {
	endpoint string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	link     LinkStatus
	reader   sensor.SampleReader
	state    *State
	sinks    []Sink
	logger   *logrus.Logger
	now      func() time.Time
}

// NewClient creates a Client. If httpClient is nil one with opts.Timeout is used.
func NewClient(opts Opts, httpClient *http.Client, link LinkStatus, reader sensor.SampleReader, state *State, logger *logrus.Logger, sinks ...Sink) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	maxFailures := opts.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	openTimeout := opts.OpenTimeout
	if opts.Interval > 0 && (openTimeout <= 0 || openTimeout >= opts.Interval) {
		openTimeout = opts.Interval / 2
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "prediction",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnf("%s breaker %s -> %s", name, from, to)
		},
	})
	return &Client{
		endpoint: opts.Endpoint,
		http:     httpClient,
		breaker:  cb,
		link:     link,
		reader:   reader,
		state:    state,
		sinks:    sinks,
		logger:   logger,
		now:      time.Now,
	}
}

// RequestPrediction runs one prediction cycle. Any failure leaves State as it
// was; nothing is retried before the next call.
func (c *Client) RequestPrediction(ctx context.Context) error {
	cycleID := uuid.NewString()
	log := c.logger.WithField("cycle", cycleID)

	if !c.link.Connected() {
		log.Warn("WiFi not connected. Skipping prediction request.")
		return ErrLinkDown
	}

	sample := c.reader.Read()
	if !sample.ClimateOK {
		log.Warn("Failed to read from climate sensor! Skipping prediction request.")
		return ErrClimateUnavailable
	}

	body, err := encodeRequest(sample)
	if err != nil {
		return fmt.Errorf("cannot encode prediction request: %w", err)
	}

	resp, err := c.post(ctx, body)
	if err != nil {
		log.Warnf("error on sending POST: %s", err.Error())
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		log.Warnf("cannot read prediction response: %s", err.Error())
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warnf("prediction endpoint answered %d", resp.StatusCode)
	}
	log.Debugf("prediction response: %s", raw)

	forecast, err := ExtractForecast(raw)
	if err != nil {
		log.Warnf("failed to parse prediction: %s", err.Error())
		return err
	}
	forecast.CycleID = cycleID
	forecast.At = c.now()
	c.state.commit(forecast)
	log.Infof("predicted temperature %.2f °C, humidity %.2f %%, AQI %.2f",
		forecast.Temperature, forecast.Humidity, forecast.AQI)

	rec := Record{CycleID: cycleID, Sample: sample, Forecast: forecast}
	for _, sink := range c.sinks {
		if err := sink.RecordPrediction(rec); err != nil {
			log.Warnf("cannot record prediction: %s", err.Error())
		}
	}
	return nil
}

func (c *Client) post(ctx context.Context, body []byte) (*http.Response, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return c.http.Do(req)
	})
	if err != nil {
		return nil, err
	}
	return result.(*http.Response), nil
}
