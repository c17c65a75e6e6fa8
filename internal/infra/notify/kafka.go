package notify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"shopcart/internal/usecase"

	"github.com/segmentio/kafka-go"
)

// KafkaNotifier は注文確定イベントをトピックに流す（メール送信は購読側）。
type KafkaNotifier struct {
	writer *kafka.Writer
}

// brokersCSV は "host:9092,host2:9092"
func NewKafkaNotifier(brokersCSV string, topic string) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(SplitBrokers(brokersCSV)...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// 同じ注文のイベントは同じパーティションに入る
func (n *KafkaNotifier) NotifyOrderConfirmed(ctx context.Context, notice usecase.OrderConfirmedNotice) error {
	data, err := json.Marshal(notice)
	if err != nil {
		return err
	}
	return n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(notice.OrderNumber),
		Value: data,
		Time:  time.Now().UTC(),
	})
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

func SplitBrokers(brokersCSV string) []string {
	brokers := []string{}
	for _, b := range strings.Split(brokersCSV, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
