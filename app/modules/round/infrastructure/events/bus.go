package roundevents

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nkeys"
)

// QueueGroup is the NATS queue group shared by caddie instances, so each
// round event is projected once.
const QueueGroup = "caddie"

// Bus pairs the publisher and subscriber round events travel on.
type Bus struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
	Logger     watermill.LoggerAdapter
}

// NATSConfig selects the broker the bus connects to.
type NATSConfig struct {
	URL       string
	JetStream bool
	NKeySeed  string
}

// NewNATSBus connects a watermill publisher and subscriber to NATS.
func NewNATSBus(cfg NATSConfig, logger *slog.Logger) (*Bus, error) {
	wmLogger := watermill.NewSlogLogger(logger)
	marshaler := &nats.NATSMarshaler{}
	options := []nc.Option{
		nc.RetryOnFailedConnect(true),
		nc.Timeout(30 * time.Second),
		nc.ReconnectWait(1 * time.Second),
	}
	if cfg.NKeySeed != "" {
		opt, err := nkeyOption(cfg.NKeySeed)
		if err != nil {
			return nil, err
		}
		options = append(options, opt)
	}
	jsConfig := nats.JetStreamConfig{
		Disabled:      !cfg.JetStream,
		AutoProvision: cfg.JetStream,
	}

	publisher, err := nats.NewPublisher(nats.PublisherConfig{
		URL:               cfg.URL,
		NatsOptions:       options,
		Marshaler:         marshaler,
		JetStream:         jsConfig,
		SubjectCalculator: nats.DefaultSubjectCalculator,
	}, wmLogger)
	if err != nil {
		logger.Error("Failed to create NATS publisher", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
	}

	subscriber, err := nats.NewSubscriber(nats.SubscriberConfig{
		URL:               cfg.URL,
		QueueGroupPrefix:  QueueGroup,
		SubscribersCount:  1,
		AckWaitTimeout:    30 * time.Second,
		CloseTimeout:      30 * time.Second,
		NatsOptions:       options,
		Unmarshaler:       marshaler,
		JetStream:         jsConfig,
		SubjectCalculator: nats.DefaultSubjectCalculator,
	}, wmLogger)
	if err != nil {
		publisher.Close()
		logger.Error("Failed to create NATS subscriber", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create NATS subscriber: %w", err)
	}

	logger.Info("Connected round event bus to NATS",
		slog.String("url", cfg.URL),
		slog.Bool("jetstream", cfg.JetStream),
	)
	return &Bus{Publisher: publisher, Subscriber: subscriber, Logger: wmLogger}, nil
}

// nkeyOption signs the server nonce with the user nkey derived from seed.
func nkeyOption(seed string) (nc.Option, error) {
	kp, err := nkeys.FromSeed([]byte(seed))
	if err != nil {
		return nil, fmt.Errorf("invalid NATS nkey seed: %w", err)
	}
	pub, err := kp.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("failed to derive NATS nkey: %w", err)
	}
	return nc.Nkey(pub, kp.Sign), nil
}

// NewInMemoryBus keeps round events inside the process.
func NewInMemoryBus(logger *slog.Logger) *Bus {
	wmLogger := watermill.NewSlogLogger(logger)
	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, wmLogger)
	return &Bus{Publisher: ch, Subscriber: ch, Logger: wmLogger}
}

// Close shuts down both sides of the bus.
func (b *Bus) Close() error {
	pubErr := b.Publisher.Close()
	if any(b.Subscriber) == any(b.Publisher) {
		return pubErr
	}
	subErr := b.Subscriber.Close()
	if pubErr != nil {
		return pubErr
	}
	return subErr
}
