package publish

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/evkuzin/climescope/prediction"
	"github.com/sirupsen/logrus"
)

const publishTimeout = 5 * time.Second

var ErrPublishTimeout = errors.New("mqtt publish timed out")

// publisher is the part of mqtt.Client the MQTT sink uses.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

type cyclePayload struct {
	CycleID  string              `json:"cycle_id"`
	Sample   samplePayload       `json:"sample"`
	Forecast prediction.Forecast `json:"forecast"`
}

type samplePayload struct {
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	GasRaw      int       `json:"gas_raw"`
	GasVoltage  float64   `json:"gas_voltage"`
	Time        time.Time `json:"time"`
}

// MQTT publishes every committed prediction cycle to a broker topic.
type MQTT struct {
	client publisher
	topic  string
	logger *logrus.Logger
}

// Connect dials the broker and returns a ready MQTT sink.
func Connect(broker, clientID, topic string, logger *logrus.Logger) (*MQTT, mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warnf("mqtt connection lost: %s", err)
		})
	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, nil, fmt.Errorf("cannot connect to %s: %w", broker, token.Error())
	}
	logger.Infof("mqtt connected to %s, publishing to %s", broker, topic)
	return newMQTT(c, topic, logger), c, nil
}

func newMQTT(client publisher, topic string, logger *logrus.Logger) *MQTT {
	return &MQTT{client: client, topic: topic, logger: logger}
}

// RecordPrediction publishes rec; the call is bounded by publishTimeout.
func (m *MQTT) RecordPrediction(rec prediction.Record) error {
	payload, err := json.Marshal(newCyclePayload(rec))
	if err != nil {
		return fmt.Errorf("cannot marshal cycle %s: %w", rec.CycleID, err)
	}
	token := m.client.Publish(m.topic, 1, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return ErrPublishTimeout
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("cannot publish cycle %s: %w", rec.CycleID, err)
	}
	m.logger.Debugf("published cycle %s to %s", rec.CycleID, m.topic)
	return nil
}

func newCyclePayload(rec prediction.Record) cyclePayload {
	return cyclePayload{
		CycleID: rec.CycleID,
		Sample: samplePayload{
			Temperature: rec.Sample.Temperature,
			Humidity:    rec.Sample.Humidity,
			GasRaw:      rec.Sample.GasRaw,
			GasVoltage:  rec.Sample.GasVoltage,
			Time:        rec.Sample.Time,
		},
		Forecast: rec.Forecast,
	}
}

var _ prediction.Sink = (*MQTT)(nil)
