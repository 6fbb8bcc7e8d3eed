package rabbit

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/streadway/amqp"

	"github.com/grihenrik/videotranscribe/internal/pkg/cmdapp"
	"github.com/grihenrik/videotranscribe/internal/pkg/job"
)

const defaultExchange = "transcription.events"

// EventPublisher forwards job progress snapshots to a rabbit mq fanout exchange
type EventPublisher struct {
	ChannelProvider *ChannelProvider
	exchange        string
	declared        bool
	m               sync.Mutex
}

// NewEventPublisher initializes rabbit event publisher
func NewEventPublisher(provider *ChannelProvider) *EventPublisher {
	exchange := cmdapp.Config.GetString("messageServer.exchange")
	if exchange == "" {
		exchange = defaultExchange
	}
	return &EventPublisher{ChannelProvider: provider, exchange: exchange}
}

type eventMsg struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Progress  int32  `json:"progress"`
	ErrorCode string `json:"errorCode,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Publish sends one job snapshot event
func (sender *EventPublisher) Publish(sn job.Snapshot) error {
	if err := sender.declare(); err != nil {
		defer sender.ChannelProvider.Close() // lets init again
		return errors.Wrap(err, "Can't initialize publisher")
	}
	cmdapp.Log.Infof("Publishing event %s(%s)", job.Name(sn.Status), sn.ID)

	msg := eventMsg{ID: sn.ID, Status: job.Name(sn.Status), Progress: sn.Progress,
		ErrorCode: sn.ErrCode, Error: sn.Error}
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "Can't marshal event")
	}

	err = sender.ChannelProvider.RunOnChannelWithRetry(func(ch *amqp.Channel) error {
		return ch.Publish(
			sender.exchange,
			"", // routing key
			false,
			false,
			amqp.Publishing{
				ContentType: "application/json",
				Body:        msgBytes,
			})
	})
	if err != nil {
		return errors.Wrap(err, "Can't publish event")
	}
	return nil
}

// Listener returns a progress hub listener forwarding events to the broker
func (sender *EventPublisher) Listener() func(job.Snapshot) {
	return func(sn job.Snapshot) {
		if err := sender.Publish(sn); err != nil {
			cmdapp.Log.Error(err)
		}
	}
}

func (sender *EventPublisher) declare() error {
	sender.m.Lock()
	defer sender.m.Unlock()

	if sender.declared {
		return nil
	}
	err := sender.ChannelProvider.RunOnChannelWithRetry(func(ch *amqp.Channel) error {
		return ch.ExchangeDeclare(
			sender.exchange,
			"fanout",
			true,  // durable
			false, // auto-deleted
			false, // internal
			false, // no-wait
			nil,
		)
	})
	if err != nil {
		return err
	}
	sender.declared = true
	return nil
}
