package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/evkuzin/climescope/config"
	"github.com/evkuzin/climescope/weather_station/impl"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the node configuration")
	flag.Parse()

	logger := &logrus.Logger{
		Out:          os.Stdout,
		Formatter:    &logrus.TextFormatter{},
		Level:        logrus.InfoLevel,
		ReportCaller: true,
	}

	conf, err := config.NewConfig(*configPath)
	if err != nil {
		logger.Errorf("cannot read config: %s", err.Error())
		os.Exit(1)
	}
	level, err := logrus.ParseLevel(conf.Log.Level)
	if err != nil {
		logger.Warnf("unknown log level %q, keeping info", conf.Log.Level)
	} else {
		logger.SetLevel(level)
	}

	ws := impl.NewWeatherStation()
	if err := ws.Init(conf, logger); err != nil {
		logger.Errorf("cannot init weather station: %s", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ws.Start(ctx)
	logger.Info("all threads killed, shutdown...")
}
