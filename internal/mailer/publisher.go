package mailer

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/megak-dev/headhunter/backend/internal/config"
	"github.com/megak-dev/headhunter/backend/internal/domain"
)

const QueueName = "email_queue"

// Publisher 把要发送的邮件投递到消息队列中，真正的发送由 mail worker 完成
type Publisher struct {
	cfg     *config.Config
	channel *amqp.Channel
}

func NewPublisher(cfg *config.Config, channel *amqp.Channel) *Publisher {
	return &Publisher{
		cfg:     cfg,
		channel: channel,
	}
}

func DeclareQueue(channel *amqp.Channel) error {
	_, err := channel.QueueDeclare(
		QueueName,
		true,
		false,
		false,
		false,
		nil,
	)
	return err
}

func (p *Publisher) Publish(message domain.MailMessage) error {
	body, err := json.Marshal(message)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(p.cfg.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return p.channel.PublishWithContext(
		ctx,
		"",
		QueueName,
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}
