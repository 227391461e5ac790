package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RubachokBoss/faculty-evaluation/internal/models"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	RoutingKeyFormAssigned        = "form.assigned"
	RoutingKeyEvaluationSubmitted = "evaluation.submitted"
)

type EventPublisher interface {
	PublishFormAssigned(ctx context.Context, event *models.FormAssignedEvent) error
	PublishEvaluationSubmitted(ctx context.Context, event *models.EvaluationSubmittedEvent) error
	Close() error
}

// amqpChannel is the part of *amqp091.Channel the publisher uses.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

type rabbitMQPublisher struct {
	conn     *amqp091.Connection
	channel  amqpChannel
	exchange string
	logger   zerolog.Logger
}

func NewRabbitMQPublisher(url, exchange string, logger zerolog.Logger) (EventPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	logger.Info().
		Str("exchange", exchange).
		Msg("Connected to RabbitMQ")

	return &rabbitMQPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		logger:   logger,
	}, nil
}

func (p *rabbitMQPublisher) PublishFormAssigned(ctx context.Context, event *models.FormAssignedEvent) error {
	if err := p.publish(ctx, RoutingKeyFormAssigned, event); err != nil {
		return err
	}

	p.logger.Info().
		Str("form_id", event.FormID).
		Int("new_assignments", event.NewAssignments).
		Msg("Form assigned event published")

	return nil
}

func (p *rabbitMQPublisher) PublishEvaluationSubmitted(ctx context.Context, event *models.EvaluationSubmittedEvent) error {
	if err := p.publish(ctx, RoutingKeyEvaluationSubmitted, event); err != nil {
		return err
	}

	p.logger.Info().
		Str("evaluation_id", event.AssignmentID).
		Str("form_id", event.FormID).
		Msg("Evaluation submitted event published")

	return nil
}

func (p *rabbitMQPublisher) publish(ctx context.Context, routingKey string, event interface{}) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(
		publishCtx,
		p.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}

func (p *rabbitMQPublisher) Close() error {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Error().Err(err).Msg("Failed to close RabbitMQ channel")
		}
	}

	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			p.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	return nil
}
