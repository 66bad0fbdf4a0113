package prediction

import (
	"encoding/json"
	"testing"

	"github.com/evkuzin/climescope/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractForecast(t *testing.T) {
	f, err := ExtractForecast([]byte(`{"next_day_predictions":{"aqi":104.18,"humidity":73.21,"temperature":31.71}}`))
	require.NoError(t, err)
	assert.Equal(t, 104.18, f.AQI)
	assert.Equal(t, 73.21, f.Humidity)
	assert.Equal(t, 31.71, f.Temperature)
}

func TestExtractForecastToleratesLayout(t *testing.T) {
	body := `{
  "model": "rf-v2",
  "next_day_predictions": {
    "temperature": 31.71 ,
    "aqi": 104,
    "humidity": 7.321e1
  }
}`
	f, err := ExtractForecast([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, 104.0, f.AQI)
	assert.Equal(t, 73.21, f.Humidity)
	assert.Equal(t, 31.71, f.Temperature)
}

func TestExtractForecastRejects(t *testing.T) {
	cases := map[string]string{
		"missing aqi":         `{"next_day_predictions":{"humidity":73.21,"temperature":31.71}}`,
		"missing humidity":    `{"next_day_predictions":{"aqi":104.18,"temperature":31.71}}`,
		"missing temperature": `{"next_day_predictions":{"aqi":104.18,"humidity":73.21}}`,
		"null value":          `{"next_day_predictions":{"aqi":null,"humidity":73.21,"temperature":31.71}}`,
		"string value":        `{"next_day_predictions":{"aqi":"104.18","humidity":73.21,"temperature":31.71}}`,
		"no marker":           `{"aqi":104.18,"humidity":73.21,"temperature":31.71}`,
		"error body":          `{"error":"Prediction error: could not convert string to float"}`,
		"not json":            `<html>502 Bad Gateway</html>`,
		"empty":               ``,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ExtractForecast([]byte(body))
			assert.ErrorIs(t, err, ErrIncompletePrediction)
		})
	}
}

func TestEncodeRequest(t *testing.T) {
	raw, err := encodeRequest(sensor.Sample{Temperature: 28.5, Humidity: 65, ClimateOK: true, GasRaw: 150})
	require.NoError(t, err)
	assert.Equal(t, `{"temperature":28.50,"humidity":65.00,"aqi":150}`, string(raw))

	var decoded map[string]float64
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, map[string]float64{"temperature": 28.5, "humidity": 65, "aqi": 150}, decoded)
}
