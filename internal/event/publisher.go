package event

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// 注文イベントの発行先。brokers未設定時はNoop。
type Publisher interface {
	Publish(eventType string, key string, payload any)
	Close()
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(string, string, any) {}
func (NoopPublisher) Close()                      {}

type KafkaPublisher struct {
	w     *kafka.Writer
	log   *slog.Logger
	inbox chan kafka.Message
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewKafkaPublisher(brokers string, topic string, log *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(strings.Split(brokers, ",")...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        true,
		},
		log:   log,
		inbox: make(chan kafka.Message, 256),
		done:  make(chan struct{}),
	}
}

// 送信goroutineを起動する。停止はCloseで行う。
// serverのdrain中もPublishを受け付けるので、ctxには縛らない。
func (p *KafkaPublisher) Start() {
	go func() {
		for m := range p.inbox {
			p.write(m)
		}
		_ = p.w.Close()
		close(p.done)
	}()
}

func (p *KafkaPublisher) write(m kafka.Message) {
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		p.log.Error("kafka publish failed", slog.String("error", err.Error()))
	}
}

func (p *KafkaPublisher) Publish(eventType string, key string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		p.log.Error("event payload marshal failed", slog.String("error", err.Error()))
		return
	}

	env := Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     producerName,
		Payload:      body,
	}

	b, err := json.Marshal(env)
	if err != nil {
		p.log.Error("event envelope marshal failed", slog.String("error", err.Error()))
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		//Close後のPublishは落とすだけ（panicさせない）
		p.log.Warn("event dropped: publisher closed", slog.String("event_type", eventType))
		return
	}

	select {
	case p.inbox <- kafka.Message{Key: []byte(key), Value: b, Time: time.Now()}:
	default:
		//inboxが詰まっていても本流は止めない
		p.log.Warn("event dropped: inbox full", slog.String("event_type", eventType))
	}
}

// Close はinboxを閉じて残りを送り切るまで待つ。
// serverのdrainが終わってから呼ぶこと。
func (p *KafkaPublisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.done
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.inbox)
	<-p.done
}
