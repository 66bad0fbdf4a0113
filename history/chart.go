package history

import (
	"io"
	"time"

	"github.com/evkuzin/climescope/storage"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

func createBaseGraph(samples []storage.Sample, forecasts []storage.Forecast, window time.Duration) *charts.Line {
	line := charts.NewLine()

	xTime := make([]string, len(samples))
	yTemperature := make([]opts.LineData, len(samples))
	yHumidity := make([]opts.LineData, len(samples))
	yGas := make([]opts.LineData, len(samples))
	for i, sample := range samples {
		xTime[i] = sample.Time.Format("15:04")
		// gaps for failed climate reads rather than fake zeros
		yTemperature[i] = opts.LineData{Value: valueOrGap(sample.Temperature)}
		yHumidity[i] = opts.LineData{Value: valueOrGap(sample.Humidity)}
		yGas[i] = opts.LineData{Value: sample.GasRaw}
	}

	// forecasts are plotted at the sample slot closest to when they were made
	yPredicted := make([]opts.LineData, len(samples))
	for i := range yPredicted {
		yPredicted[i] = opts.LineData{Value: "-"}
	}
	for _, f := range forecasts {
		if i := nearest(samples, f.Time); i >= 0 {
			yPredicted[i] = opts.LineData{Value: f.Temperature}
		}
	}

	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros, PageTitle: "ClimeScope history"}),
		charts.WithDataZoomOpts(opts.DataZoom{}),
		charts.WithTitleOpts(opts.Title{Title: "Environment", Subtitle: "last " + window.String()}),
		charts.WithLegendOpts(opts.Legend{Show: true}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:      true,
			Trigger:   "axis",
			TriggerOn: "mousemove",
			AxisPointer: &opts.AxisPointer{
				Type: "cross",
				Snap: true,
			},
		}))
	line.SetXAxis(xTime).
		AddSeries("Temperature °C", yTemperature).
		AddSeries("Humidity %", yHumidity).
		AddSeries("Gas raw", yGas).
		AddSeries("Predicted temperature °C", yPredicted)
	return line
}

func createGraph(w io.Writer, samples []storage.Sample, forecasts []storage.Forecast, window time.Duration) error {
	return createBaseGraph(samples, forecasts, window).Render(w)
}

func valueOrGap(v *float64) interface{} {
	if v == nil {
		return "-"
	}
	return *v
}

// nearest returns the index of the sample closest in time to t, -1 if none.
func nearest(samples []storage.Sample, t time.Time) int {
	best := -1
	var bestDiff time.Duration
	for i, s := range samples {
		diff := s.Time.Sub(t)
		if diff < 0 {
			diff = -diff
		}
		if best < 0 || diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	return best
}
