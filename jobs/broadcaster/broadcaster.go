// Package broadcaster drains the execution outbox into Kafka. Delivery
// is at-least-once: a print is only acked after the broker confirms it,
// so consumers must dedupe on seq.
package broadcaster

import (
	"context"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"tapebook/infra/metrics"
	"tapebook/infra/outbox"
)

const drainInterval = 250 * time.Millisecond

type Broadcaster struct {
	prints   *outbox.Outbox
	producer sarama.SyncProducer
	topic    string
	log      zerolog.Logger
}

func New(prints *outbox.Outbox, brokers []string, topic string, log zerolog.Logger) (*Broadcaster, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	return &Broadcaster{
		prints:   prints,
		producer: producer,
		topic:    topic,
		log:      log.With().Str("component", "broadcaster").Logger(),
	}, nil
}

// Start launches the drain loop; it stops when ctx is cancelled.
func (b *Broadcaster) Start(ctx context.Context) {
	b.log.Info().Str("topic", b.topic).Msg("broadcaster started")

	go func() {
		ticker := time.NewTicker(drainInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.drainOnce()
			}
		}
	}()
}

func (b *Broadcaster) drainOnce() {
	err := b.prints.ScanPending(func(p *outbox.Print) error {
		// SENT before the send so a crash between the two leaves the
		// print pending, never lost.
		if err := b.prints.MarkSent(p.Seq); err != nil {
			return err
		}

		msg := &sarama.ProducerMessage{
			Topic: b.topic,
			Key:   sarama.StringEncoder(strconv.FormatUint(p.Seq, 10)),
			Value: sarama.ByteEncoder(p.Payload),
		}
		if _, _, err := b.producer.SendMessage(msg); err != nil {
			metrics.BroadcastsTotal.WithLabelValues("failed").Inc()
			b.log.Warn().Err(err).Uint64("seq", p.Seq).Msg("broadcast failed, will retry")
			_ = b.prints.MarkFailed(p.Seq)
			return nil // keep draining the rest
		}

		metrics.BroadcastsTotal.WithLabelValues("acked").Inc()
		return b.prints.MarkAcked(p.Seq)
	})
	if err != nil {
		b.log.Error().Err(err).Msg("outbox scan failed")
	}
}

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
