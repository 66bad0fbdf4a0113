package dashboard

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/evkuzin/climescope/prediction"
	"github.com/evkuzin/climescope/sensor"
)

//go:embed templates/dashboard.html
var templates embed.FS

var page = template.Must(template.ParseFS(templates, "templates/dashboard.html"))

type predictionView struct {
	Temperature float64
	Humidity    float64
	AQI         float64
	Quality     Quality
}

type pageData struct {
	Refresh     int
	Interval    string
	Temperature float64
	Humidity    float64
	GasRaw      int
	GasVoltage  float64
	GasQuality  Quality
	Prediction  *predictionView
}

func newPageData(sample sensor.Sample, forecast prediction.Forecast, available bool, refresh int, interval time.Duration) pageData {
	temperature, humidity := sample.Display()
	data := pageData{
		Refresh:     refresh,
		Interval:    fmt.Sprintf("%d seconds", int(interval.Seconds())),
		Temperature: temperature,
		Humidity:    humidity,
		GasRaw:      sample.GasRaw,
		GasVoltage:  sample.GasVoltage,
		GasQuality:  Classify(float64(sample.GasRaw)),
	}
	if available {
		data.Prediction = &predictionView{
			Temperature: forecast.Temperature,
			Humidity:    forecast.Humidity,
			AQI:         forecast.AQI,
			Quality:     Classify(forecast.AQI),
		}
	}
	return data
}

func renderPage(w io.Writer, data pageData) error {
	return page.Execute(w, data)
}
