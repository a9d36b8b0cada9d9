// Package events fans dispatch outcomes out to RabbitMQ so downstream
// consumers (delivery dashboards, billing) can react without polling the
// ledger tables.
package events

import (
	"encoding/json"
	"time"

	"github.com/streadway/amqp"
)

const dispatchQueue = "campaign_dispatches"

// DispatchEvent is published once per terminal dispatch-ledger row.
type DispatchEvent struct {
	DispatchID   int       `json:"dispatch_id"`
	CampaignID   int       `json:"campaign_id"`
	ScheduledFor time.Time `json:"scheduled_for"`
	Status       string    `json:"status"`
	SuccessCount int       `json:"success_count"`
	FailCount    int       `json:"fail_count"`
	Total        int       `json:"total"`
}

type Publisher interface {
	PublishDispatch(ev DispatchEvent) error
	Close() error
}

// AMQPPublisher publishes to a durable queue on a shared channel.
type AMQPPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	_, err = ch.QueueDeclare(
		dispatchQueue, // name
		true,          // durable
		false,         // delete when unused
		false,         // exclusive
		false,         // no-wait
		nil,           // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &AMQPPublisher{conn: conn, ch: ch}, nil
}

func (p *AMQPPublisher) PublishDispatch(ev DispatchEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.ch.Publish(
		"",
		dispatchQueue,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		p.ch.Close()
	}
	return p.conn.Close()
}

// NoopPublisher drops events; used when AMQP is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishDispatch(ev DispatchEvent) error { return nil }
func (NoopPublisher) Close() error                           { return nil }

var _ Publisher = (*AMQPPublisher)(nil)
var _ Publisher = NoopPublisher{}
