package prediction

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/evkuzin/climescope/sensor"
)

var ErrIncompletePrediction = errors.New("incomplete prediction")

// request is the fixed-shape body the forecasting model expects. Temperature
// and humidity go out with two decimals, the gas reading as raw counts.
type request struct {
	Temperature json.Number `json:"temperature"`
	Humidity    json.Number `json:"humidity"`
	AQI         int         `json:"aqi"`
}

func encodeRequest(s sensor.Sample) ([]byte, error) {
	return json.Marshal(request{
		Temperature: json.Number(strconv.FormatFloat(s.Temperature, 'f', 2, 64)),
		Humidity:    json.Number(strconv.FormatFloat(s.Humidity, 'f', 2, 64)),
		AQI:         s.GasRaw,
	})
}

type response struct {
	NextDay *struct {
		AQI         *float64 `json:"aqi"`
		Humidity    *float64 `json:"humidity"`
		Temperature *float64 `json:"temperature"`
	} `json:"next_day_predictions"`
}

// ExtractForecast reads next_day_predictions.{aqi,humidity,temperature} from a
// response body. All three must be present as JSON numbers; otherwise an
// error wrapping ErrIncompletePrediction is returned and nothing is produced.
func ExtractForecast(body []byte) (Forecast, error) {
	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return Forecast{}, fmt.Errorf("%w: %v", ErrIncompletePrediction, err)
	}
	if r.NextDay == nil {
		return Forecast{}, fmt.Errorf("%w: next_day_predictions not found", ErrIncompletePrediction)
	}
	var missing []string
	if r.NextDay.AQI == nil {
		missing = append(missing, "aqi")
	}
	if r.NextDay.Humidity == nil {
		missing = append(missing, "humidity")
	}
	if r.NextDay.Temperature == nil {
		missing = append(missing, "temperature")
	}
	if len(missing) > 0 {
		return Forecast{}, fmt.Errorf("%w: missing %v", ErrIncompletePrediction, missing)
	}
	return Forecast{
		Temperature: *r.NextDay.Temperature,
		Humidity:    *r.NextDay.Humidity,
		AQI:         *r.NextDay.AQI,
	}, nil
}
