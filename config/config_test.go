package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimal = `
prediction:
  endpoint: http://10.38.192.228:5000/predict
`

func TestParseAppliesDefaults(t *testing.T) {
	conf, err := Parse([]byte(minimal))
	require.NoError(t, err)

	assert.Equal(t, 20, conf.Link.Attempts)
	assert.Equal(t, time.Second, conf.Link.PollInterval)
	assert.Equal(t, 80, conf.Dashboard.Port)
	assert.Equal(t, 2*time.Second, conf.Dashboard.ReadTimeout)
	assert.Equal(t, 60*time.Second, conf.Prediction.Interval)
	assert.Equal(t, 3.3, conf.Sensor.ReferenceVoltage)
	assert.Equal(t, 4095, conf.Sensor.Resolution)
	assert.False(t, conf.Database.Enable)
	assert.Less(t, conf.Prediction.Breaker.OpenTimeout, conf.Prediction.Interval)
}

func TestParseOverridesFromFile(t *testing.T) {
	raw := `
log:
  level: debug
link:
  interface: wlan0
  ssid: greenhouse
  attempts: 5
  poll_interval: 500ms
dashboard:
  port: 8081
sensor:
  driver: simulated
prediction:
  endpoint: http://forecast.local:5000/predict
  interval: 2m
`
	conf, err := Parse([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "debug", conf.Log.Level)
	assert.Equal(t, "wlan0", conf.Link.Interface)
	assert.Equal(t, 5, conf.Link.Attempts)
	assert.Equal(t, 500*time.Millisecond, conf.Link.PollInterval)
	assert.Equal(t, 8081, conf.Dashboard.Port)
	assert.Equal(t, "simulated", conf.Sensor.Driver)
	assert.Equal(t, 2*time.Minute, conf.Prediction.Interval)
}

func TestParseEnvironmentOverride(t *testing.T) {
	t.Setenv(EnvWifiCredential, "s3cret")
	t.Setenv(EnvPredictEndpoint, "http://override.local/predict")

	conf, err := Parse([]byte(minimal))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", conf.Link.Credential)
	assert.Equal(t, "http://override.local/predict", conf.Prediction.Endpoint)
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"missing endpoint": `sensor: {driver: simulated}`,
		"unknown driver":   minimal + "sensor:\n  driver: dht11\n",
		"telegram no key":  minimal + "telegram:\n  enable: true\n",
		"bad port":         minimal + "dashboard:\n  port: 70000\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestParseRejectsBreakerOutlastingInterval(t *testing.T) {
	for _, raw := range []string{
		minimal + "  breaker:\n    open_timeout: 2m\n",
		minimal + "  interval: 30s\n",
	} {
		_, err := Parse([]byte(raw))
		assert.ErrorIs(t, err, ErrBreakerOutlastsInterval)
	}
}

func TestNewConfigReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimal), 0o600))

	conf, err := NewConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://10.38.192.228:5000/predict", conf.Prediction.Endpoint)

	_, err = NewConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
