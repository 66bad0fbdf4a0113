package weather_station

import (
	"context"

	"github.com/evkuzin/climescope/config"
	"github.com/sirupsen/logrus"
)

// WeatherStation is the node daemon: Init wires every component from the
// config, Start runs until ctx is cancelled.
type WeatherStation interface {
	Init(config *config.Config, logger *logrus.Logger) error
	Start(ctx context.Context)
}
