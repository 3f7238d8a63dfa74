package report

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"

	"github.com/swdee/go-zonecount/pipeline"
)

// KafkaConfig holds Kafka connection configuration
type KafkaConfig struct {
	BootstrapServers string
	SecurityProtocol string
	SASLMechanism    string
	SASLUsername     string
	SASLPassword     string
	Topic            string
	Acks             string
	LingerMS         int
	// ChangesOnly publishes a frame only when a zone count changed
	ChangesOnly bool
}

// KafkaConfigFromEnv creates a Kafka configuration from environment variables
func KafkaConfigFromEnv() KafkaConfig {
	return KafkaConfig{
		BootstrapServers: getEnv("KAFKA_BOOTSTRAP_SERVERS", "localhost:9092"),
		SecurityProtocol: getEnv("KAFKA_SECURITY_PROTOCOL", "PLAINTEXT"),
		SASLMechanism:    getEnv("KAFKA_SASL_MECHANISM", ""),
		SASLUsername:     getEnv("KAFKA_SASL_USERNAME", ""),
		SASLPassword:     getEnv("KAFKA_SASL_PASSWORD", ""),
		Topic:            getEnv("KAFKA_TOPIC", "zone-counts"),
		Acks:             getEnv("KAFKA_ACKS", "all"),
		LingerMS:         getEnvInt("KAFKA_LINGER_MS", 10),
		ChangesOnly:      getEnvInt("KAFKA_CHANGES_ONLY", 1) != 0,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intValue int
		if _, err := fmt.Sscanf(value, "%d", &intValue); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// configMap converts the configuration to librdkafka settings
func (c KafkaConfig) configMap() *kafka.ConfigMap {

	cm := &kafka.ConfigMap{
		"bootstrap.servers": c.BootstrapServers,
		"security.protocol": c.SecurityProtocol,
		"acks":              c.Acks,
		"linger.ms":         c.LingerMS,
	}

	if c.SASLMechanism != "" {
		_ = cm.SetKey("sasl.mechanism", c.SASLMechanism)
		_ = cm.SetKey("sasl.username", c.SASLUsername)
		_ = cm.SetKey("sasl.password", c.SASLPassword)
	}

	return cm
}

// Kafka publishes frame count records to a topic keyed by run ID
type Kafka struct {
	producer *kafka.Producer
	cfg      KafkaConfig
	runID    string
	log      logrus.FieldLogger
	// last holds the previous frame's counts per zone for ChangesOnly
	last   map[string][2]int
	sent   atomic.Int64
	failed atomic.Int64
	wg     sync.WaitGroup
}

// NewKafka creates the producer and starts handling delivery reports
func NewKafka(cfg KafkaConfig, runID string, log logrus.FieldLogger) (*Kafka, error) {

	p, err := kafka.NewProducer(cfg.configMap())

	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	k := &Kafka{
		producer: p,
		cfg:      cfg,
		runID:    runID,
		log:      log,
		last:     make(map[string][2]int),
	}

	k.wg.Add(1)
	go k.handleDeliveryReports()

	log.WithFields(logrus.Fields{
		"topic":   cfg.Topic,
		"servers": cfg.BootstrapServers,
	}).Info("kafka producer initialized")

	return k, nil
}

// handleDeliveryReports logs failed deliveries until the producer closes
func (k *Kafka) handleDeliveryReports() {
	defer k.wg.Done()

	for e := range k.producer.Events() {
		m, ok := e.(*kafka.Message)

		if !ok {
			continue
		}

		if m.TopicPartition.Error != nil {
			k.failed.Add(1)
			k.log.WithError(m.TopicPartition.Error).Warn("kafka delivery failed")
		}
	}
}

// changed reports whether any zone count differs from the last published
// frame and records the new counts
func (k *Kafka) changed(res pipeline.FrameResult) bool {

	diff := false

	for _, zc := range res.Zones {
		cur := [2]int{zc.CurrentlyInside, zc.TotalSeen}

		if prev, ok := k.last[zc.Name]; !ok || prev != cur {
			diff = true
		}

		k.last[zc.Name] = cur
	}

	return diff
}

// Write publishes the frame record
func (k *Kafka) Write(res pipeline.FrameResult) error {

	if !k.changed(res) && k.cfg.ChangesOnly {
		return nil
	}

	payload, err := EncodeFrame(k.runID, res)

	if err != nil {
		return err
	}

	return k.produce([]byte(payload), TypeFrame)
}

// WriteSummary publishes the run summary record
func (k *Kafka) WriteSummary(sum pipeline.Summary) error {

	payload, err := EncodeSummary(k.runID, sum)

	if err != nil {
		return err
	}

	return k.produce([]byte(payload), TypeSummary)
}

func (k *Kafka) produce(payload []byte, recordType string) error {

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &k.cfg.Topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(k.runID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(recordType)},
		},
	}

	if err := k.producer.Produce(msg, nil); err != nil {
		k.failed.Add(1)
		return fmt.Errorf("error producing %s record: %w", recordType, err)
	}

	k.sent.Add(1)

	return nil
}

// Close flushes pending messages and shuts down the producer
func (k *Kafka) Close() error {

	remaining := k.producer.Flush(int((30 * time.Second).Milliseconds()))

	k.producer.Close()
	k.wg.Wait()

	k.log.WithFields(logrus.Fields{
		"sent":   k.sent.Load(),
		"failed": k.failed.Load(),
	}).Info("kafka producer closed")

	if remaining > 0 {
		return fmt.Errorf("%d kafka messages not delivered", remaining)
	}

	return nil
}
