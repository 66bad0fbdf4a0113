package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/evkuzin/climescope/prediction"
	"github.com/evkuzin/climescope/sensor"
	"github.com/evkuzin/climescope/storage"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

var buttons = tgbotapi.NewReplyKeyboard(
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton("status"),
	),
)

var averageWindows = []time.Duration{12 * time.Hour, 6 * time.Hour, time.Hour}

// Bot answers every message with the node's current status.
type Bot struct {
	tg     *tgbotapi.BotAPI
	reader sensor.SampleReader
	state  ForecastSource
	store  storage.Adapter
	logger *logrus.Logger
	stop   chan struct{}
}

func NewBot(key string, debug bool, reader sensor.SampleReader, state ForecastSource, store storage.Adapter, logger *logrus.Logger) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(key)
	if err != nil {
		return nil, err
	}
	bot.Debug = debug
	logger.Infof("Telegram authorized on account %s", bot.Self.UserName)
	return &Bot{
		tg:     bot,
		reader: reader,
		state:  state,
		store:  store,
		logger: logger,
		stop:   make(chan struct{}),
	}, nil
}

// Start serves updates until Stop is called.
func (b *Bot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.tg.GetUpdatesChan(u)
	for {
		select {
		case <-b.stop:
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			b.logger.Infof("[%s] %s", update.Message.From.UserName, update.Message.Text)
			msg := tgbotapi.NewMessage(update.Message.Chat.ID, b.status())
			msg.ReplyToMessageID = update.Message.MessageID
			msg.ReplyMarkup = buttons
			if _, err := b.tg.Send(msg); err != nil {
				b.logger.Warnf("error: %s", err)
			}
		}
	}
}

func (b *Bot) Stop() {
	b.tg.StopReceivingUpdates()
	close(b.stop)
}

func (b *Bot) status() string {
	sample := b.reader.Read()
	forecast, available := b.state.Snapshot()
	avgs := make([]storage.Average, len(averageWindows))
	for i, w := range averageWindows {
		avg, err := b.store.GetAvg(w)
		if err != nil {
			b.logger.Warnf("cannot get average: %s", err)
		}
		avgs[i] = avg
	}
	return statusText(sample, forecast, available, avgs)
}

func statusText(sample sensor.Sample, forecast prediction.Forecast, available bool, avgs []storage.Average) string {
	var sb strings.Builder
	if sample.ClimateOK {
		fmt.Fprintf(&sb, "Now: %.1f °C, %.1f %%, gas %d (%.2f V)\n", sample.Temperature, sample.Humidity, sample.GasRaw, sample.GasVoltage)
	} else {
		fmt.Fprintf(&sb, "Now: climate sensor unavailable, gas %d (%.2f V)\n", sample.GasRaw, sample.GasVoltage)
	}
	if available {
		fmt.Fprintf(&sb, "Tomorrow: %.2f °C, %.2f %%, AQI %.2f\n", forecast.Temperature, forecast.Humidity, forecast.AQI)
	} else {
		sb.WriteString("Tomorrow: prediction loading\n")
	}
	for i, avg := range avgs {
		if i >= len(averageWindows) {
			break
		}
		fmt.Fprintf(&sb, "%s avg: %s\n", shortDuration(averageWindows[i]), formatAverage(avg))
	}
	return sb.String()
}

func formatAverage(avg storage.Average) string {
	if avg.Samples == 0 {
		return "no data"
	}
	parts := make([]string, 0, 3)
	if avg.Temperature != nil {
		parts = append(parts, fmt.Sprintf("%.1f °C", *avg.Temperature))
	}
	if avg.Humidity != nil {
		parts = append(parts, fmt.Sprintf("%.1f %%", *avg.Humidity))
	}
	if avg.GasRaw != nil {
		parts = append(parts, fmt.Sprintf("gas %.0f", *avg.GasRaw))
	}
	return strings.Join(parts, ", ")
}

func shortDuration(d time.Duration) string {
	return strings.TrimSuffix(strings.TrimSuffix(d.String(), "0s"), "0m")
}
