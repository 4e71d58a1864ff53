// Package events publishes sync activity to Kafka for downstream
// consumers (kitchen displays, analytics). Publishing is optional and
// best-effort; the order queue never depends on it.
package events

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/bitesync/bitesync/internal/models"
)

type Producer struct {
	producer    sarama.SyncProducer
	topicPrefix string
	log         zerolog.Logger
}

func NewProducer(config *models.Config, log zerolog.Logger) (*Producer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Retry.Backoff = 100 * time.Millisecond
	saramaConfig.Producer.Return.Successes = true // Must be true for SyncProducer
	saramaConfig.Net.DialTimeout = 30 * time.Second
	saramaConfig.Net.ReadTimeout = 30 * time.Second
	saramaConfig.Net.WriteTimeout = 30 * time.Second

	brokerList := strings.Split(config.KafkaBrokerList, ",")

	producer, err := sarama.NewSyncProducer(brokerList, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sarama producer: %w", err)
	}

	log.Info().Strs("brokers", brokerList).Msg("Sarama producer created")
	return &Producer{
		producer:    producer,
		topicPrefix: config.KafkaTopicPrefix,
		log:         log,
	}, nil
}

type orderSyncedEvent struct {
	EventType   string    `json:"event_type"`
	OrderID     string    `json:"order_id"`
	TotalAmount float64   `json:"total_amount"`
	ItemCount   int       `json:"item_count"`
	CreatedAt   time.Time `json:"created_at"`
	SyncedAt    time.Time `json:"synced_at"`
}

// OrderSynced emits one event per order confirmed remotely. Failures are
// logged, not returned: the engine has already durably marked the order.
func (p *Producer) OrderSynced(order *models.Order) {
	event := orderSyncedEvent{
		EventType:   "order_synced",
		OrderID:     order.ID,
		TotalAmount: order.TotalAmount,
		ItemCount:   len(order.Items),
		CreatedAt:   order.CreatedAt,
		SyncedAt:    time.Now().UTC(),
	}
	p.send(p.topicPrefix+".orders", event)
}

type menuCachedEvent struct {
	EventType  string    `json:"event_type"`
	Categories int       `json:"categories"`
	MenuItems  int       `json:"menu_items"`
	CachedAt   time.Time `json:"cached_at"`
}

// MenuCached emits one event per successful reference-data refresh.
func (p *Producer) MenuCached(categories, items int) {
	event := menuCachedEvent{
		EventType:  "menu_cached",
		Categories: categories,
		MenuItems:  items,
		CachedAt:   time.Now().UTC(),
	}
	p.send(p.topicPrefix+".cache", event)
}

func (p *Producer) send(topic string, event interface{}) {
	msg, err := json.Marshal(event)
	if err != nil {
		p.log.Error().Err(err).Str("topic", topic).Msg("failed to marshal event")
		return
	}
	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(msg),
	})
	if err != nil {
		p.log.Warn().Err(err).Str("topic", topic).Msg("failed to publish event")
	}
}

func (p *Producer) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
