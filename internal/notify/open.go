package notify

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Driver names accepted in Options.Drivers
const (
	DriverLog      = "log"
	DriverRabbit   = "rabbitmq"
	DriverKafka    = "kafka"
	DriverTelegram = "telegram"
)

// Options selects and configures the notification channels
type Options struct {
	Drivers             []string
	RabbitURL           string
	Exchange            string
	KafkaBrokers        []string
	Topic               string
	TelegramToken       string
	TelegramAdminChatID int64
}

func (o Options) has(name string) bool {
	for _, d := range o.Drivers {
		if strings.EqualFold(strings.TrimSpace(d), name) {
			return true
		}
	}
	return false
}

// Open builds a fan-out sink over the configured drivers. A driver that fails
// to connect is logged and skipped; the log sink is used when nothing else is left.
func Open(opts Options, log zerolog.Logger) (Multi, func()) {
	var sinks Multi
	var closers []func() error

	if opts.has(DriverLog) {
		sinks = append(sinks, NewLogSink(log))
	}
	if opts.has(DriverRabbit) {
		sink, err := DialAMQP(opts.RabbitURL, opts.Exchange)
		if err != nil {
			log.Error().Err(err).Msg("RabbitMQ notifications disabled")
		} else {
			sinks = append(sinks, sink)
			closers = append(closers, sink.Close)
		}
	}
	if opts.has(DriverKafka) {
		producer, err := NewKafkaProducer(opts.KafkaBrokers)
		if err != nil {
			log.Error().Err(err).Msg("Kafka notifications disabled")
		} else {
			sink := NewKafkaSink(producer, opts.Topic)
			sinks = append(sinks, sink)
			closers = append(closers, sink.Close)
		}
	}
	if opts.has(DriverTelegram) {
		bot, err := tgbotapi.NewBotAPI(opts.TelegramToken)
		if err != nil {
			log.Error().Err(err).Msg("Telegram notifications disabled")
		} else {
			sinks = append(sinks, NewTelegramSink(bot, opts.TelegramAdminChatID))
		}
	}
	if len(sinks) == 0 {
		sinks = append(sinks, NewLogSink(log))
	}

	return sinks, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warn().Err(err).Msg("Failed to close notifier")
			}
		}
	}
}
