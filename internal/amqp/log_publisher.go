package amqp

import (
	"context"

	"expenses/internal/log"
)

// LogPublisher stands in for the broker when AMQP is not configured: the
// activation link is written to the log instead of being mailed.
type LogPublisher struct {
	logger *log.Logger
}

func NewLogPublisher(logger *log.Logger) *LogPublisher {
	if logger == nil {
		logger = log.Default()
	}
	return &LogPublisher{logger: logger.WithComponent(log.ComponentAMQP)}
}

func (p *LogPublisher) PublishActivation(ctx context.Context, msg *ActivationMail) error {
	p.logger.InfoContext(ctx, "Activation link (AMQP disabled)",
		log.FieldUserID, msg.UserID,
		"email", msg.Email,
		"link", msg.Link,
		"expires_at", msg.ExpiresAt)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
