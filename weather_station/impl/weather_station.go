package impl

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/evkuzin/climescope/config"
	"github.com/evkuzin/climescope/dashboard"
	"github.com/evkuzin/climescope/history"
	"github.com/evkuzin/climescope/link"
	"github.com/evkuzin/climescope/prediction"
	"github.com/evkuzin/climescope/publish"
	"github.com/evkuzin/climescope/sensor"
	"github.com/evkuzin/climescope/storage"
	"github.com/evkuzin/climescope/weather_station"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	stabilisationDelay = 2 * time.Second
	mqttQuiesce        = 250
)

// weatherStationImpl owns every component of the node and runs the event
// loop that serves the dashboard and schedules prediction cycles.
type weatherStationImpl struct {
	config *config.Config
	logger *logrus.Logger

	peripherals *sensor.Peripherals
	reader      sensor.SampleReader
	link        *link.Manager
	state       *prediction.State
	client      *prediction.Client
	server      *dashboard.Server

	Storage  storage.Adapter
	recorder *history.Recorder
	web      *fiber.App
	bot      *history.Bot
	mqtt     mqtt.Client

	settle   time.Duration
	interval time.Duration
}

func (ws *weatherStationImpl) Init(config *config.Config, logger *logrus.Logger) error {
	ws.config = config
	ws.logger = logger
	ws.settle = stabilisationDelay
	ws.interval = config.Prediction.Interval

	climate, gas, err := ws.initSensors()
	if err != nil {
		return err
	}
	ws.reader = sensor.NewReader(climate, gas, config.Sensor.ReferenceVoltage, config.Sensor.Resolution, logger)

	ws.link = link.NewManager(
		link.SystemAssociator{Logger: logger},
		link.InterfaceProber{Name: config.Link.Interface},
		link.Opts{
			Attempts:     config.Link.Attempts,
			PollInterval: config.Link.PollInterval,
			ListenAddr:   link.ListenAddr(config.Dashboard.Port),
		},
		logger,
	)

	if config.Database.Enable {
		ws.Storage = storage.NewStorage()
	} else {
		ws.Storage = storage.NewMemory(0, config.History.Retention)
	}
	if err := ws.Storage.Init(config); err != nil {
		return err
	}
	ws.recorder = history.NewRecorder(ws.reader, ws.Storage, config.History.RecordInterval, config.History.Retention, logger)

	sinks := []prediction.Sink{ws.Storage}
	if config.MQTT.Enable {
		sink, client, err := publish.Connect(config.MQTT.Broker, config.MQTT.ClientID, config.MQTT.Topic, logger)
		if err != nil {
			logger.Warnf("mqtt disabled: %s", err.Error())
		} else {
			ws.mqtt = client
			sinks = append(sinks, sink)
		}
	}

	ws.state = prediction.NewState()
	ws.client = prediction.NewClient(prediction.Opts{
		Endpoint:    config.Prediction.Endpoint,
		Timeout:     config.Prediction.Timeout,
		Interval:    config.Prediction.Interval,
		MaxFailures: config.Prediction.Breaker.MaxFailures,
		OpenTimeout: config.Prediction.Breaker.OpenTimeout,
	}, nil, ws.link, ws.reader, ws.state, logger, sinks...)

	ws.server = dashboard.NewServer(ws.reader, ws.state, dashboard.Opts{
		ReadTimeout:        config.Dashboard.ReadTimeout,
		RefreshSeconds:     config.Dashboard.RefreshSeconds,
		PredictionInterval: config.Prediction.Interval,
	}, logger)

	if config.History.Enable {
		ws.web = history.NewWebApp(ws.Storage, ws.state, config.History.Window, logger)
	}
	if config.Telegram.Enable {
		bot, err := history.NewBot(config.Telegram.Key, config.Telegram.Debug, ws.reader, ws.state, ws.Storage, logger)
		if err != nil {
			return fmt.Errorf("cannot start telegram bot: %w", err)
		}
		ws.bot = bot
	}
	return nil
}

func (ws *weatherStationImpl) initSensors() (sensor.Climate, sensor.Gas, error) {
	switch ws.config.Sensor.Driver {
	case "simulated":
		ws.logger.Warn("using simulated sensors")
		sim := sensor.NewSimulated()
		return sim, sim, nil
	default:
		p, err := sensor.PeripheralInitialisation(
			ws.config.Sensor.Bus,
			ws.config.Sensor.ClimateAddress,
			ws.config.Sensor.GasAddress,
			ws.config.Sensor.GasChannel,
			ws.config.Sensor.ReferenceVoltage,
			ws.config.Sensor.Resolution,
			ws.logger,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot init periph: %w", err)
		}
		ws.peripherals = p
		return p.Climate, p.Gas, nil
	}
}

// Start is the main daemon loop
func (ws *weatherStationImpl) Start(ctx context.Context) {
	ws.logger.Info("Weather station starting...")
	defer ws.shutdown()
	ws.startBackground()

	select {
	case <-ctx.Done():
		return
	case <-time.After(ws.settle):
	}
	ws.logInitialRead()

	var conns <-chan net.Conn
	served := func() {}
	if ws.link.Connect(ctx, ws.config.Link.SSID, ws.config.Link.Credential) {
		acceptor := dashboard.NewAcceptor(ws.link.Listener(), ws.logger)
		go acceptor.Run(ctx)
		conns = acceptor.Conns()
		served = acceptor.Served
	} else {
		ws.logger.Warn("dashboard unavailable until restart")
	}
	if ctx.Err() != nil {
		return
	}

	ws.predict(ctx)

	ticker := time.NewTicker(ws.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			ws.logger.Info("Stopping weather station")
			return
		case conn := <-conns:
			ws.server.ServeConn(conn)
			served()
		case <-ticker.C:
			ws.predict(ctx)
		}
	}
}

func (ws *weatherStationImpl) predict(ctx context.Context) {
	err := ws.client.RequestPrediction(ctx)
	switch {
	case err == nil:
	case errors.Is(err, prediction.ErrLinkDown), errors.Is(err, prediction.ErrClimateUnavailable):
		ws.logger.Debugf("prediction skipped: %s", err.Error())
	default:
		ws.logger.Debugf("prediction cycle failed: %s", err.Error())
	}
}

func (ws *weatherStationImpl) logInitialRead() {
	sample := ws.reader.Read()
	if !sample.ClimateOK {
		ws.logger.Warn("Initial sensor read failed!")
		return
	}
	ws.logger.Infof("Initial Temperature: %.2f °C, Humidity: %.2f %%, gas %d",
		sample.Temperature, sample.Humidity, sample.GasRaw)
}

func (ws *weatherStationImpl) startBackground() {
	if ws.recorder != nil {
		if err := ws.recorder.Start(); err != nil {
			ws.logger.Warnf("cannot start history recorder: %s", err.Error())
		}
	}
	if ws.web != nil {
		go func() {
			if err := ws.web.Listen(ws.config.History.Listen); err != nil {
				ws.logger.Warnf("Cannot start history server. %v", err.Error())
			}
		}()
	}
	if ws.bot != nil {
		go ws.bot.Start()
	}
}

func (ws *weatherStationImpl) shutdown() {
	if ws.recorder != nil {
		ws.recorder.Stop()
	}
	if ws.web != nil {
		if err := ws.web.Shutdown(); err != nil {
			ws.logger.Warnf("error during history server shutdown: %s", err.Error())
		}
	}
	if ws.bot != nil {
		ws.bot.Stop()
	}
	if ws.mqtt != nil {
		ws.mqtt.Disconnect(mqttQuiesce)
	}
	if err := ws.link.Close(); err != nil {
		ws.logger.Debugf("closing listener: %s", err.Error())
	}
	if ws.peripherals != nil {
		if err := ws.peripherals.Close(); err != nil {
			ws.logger.Errorf("error: %s", err.Error())
		}
	}
	ws.logger.Info("all components stopped")
}

// NewWeatherStation return a new instance of a WeatherStation daemon
func NewWeatherStation() weather_station.WeatherStation {
	return &weatherStationImpl{}
}
