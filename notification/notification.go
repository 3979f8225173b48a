// Package notification delivers email notifications through the platform
// notification queue. Handlers publish messages on an in-process event bus so
// request handling never waits on the queue; the Notifier drains the bus in
// the background.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sns"

	Logger "github.com/collabsvcs/discussion/utils/log"
)

// Notification templates understood by the notification subsystem.
const (
	TemplateGeneric                 = "GENERIC"
	TemplateAssetModerationRejected = "ASSET_MODERATION_REJECTED"
)

// EmailTopic is the in-process bus topic carrying outgoing emails.
const EmailTopic = "notification.email"

// EmailMessage is one email notification request.
type EmailMessage struct {
	NotificationType string `json:"notification_type"`
	UserEmail        string `json:"user_email"`
	Subject          string `json:"subject"`
	Message          string `json:"message"`
	UserId           string `json:"user_id"`
}

// Sender pushes an email request to the notification queue.
type Sender interface {
	Send(msg *EmailMessage) error
}

// SnsSender publishes email requests on the notification SNS topic.
type SnsSender struct {
	arn    string
	client *sns.SNS
}

func NewSnsSender() (*SnsSender, error) {
	arn := os.Getenv("NOTIFICATION_TOPIC_ARN")
	if arn == "" {
		return nil, errors.New("NOTIFICATION_TOPIC_ARN is not set")
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(os.Getenv("AWS_REGION")),
	})
	if err != nil {
		return nil, err
	}

	return &SnsSender{arn: arn, client: sns.New(sess)}, nil
}

func (s *SnsSender) Send(msg *EmailMessage) error {
	serialized, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	body := string(serialized)
	_, err = s.client.Publish(&sns.PublishInput{
		Message:  &body,
		TopicArn: &s.arn,
	})
	return err
}

// StderrSender dumps email requests to stderr, for development runs without a
// queue.
type StderrSender struct{}

func (s *StderrSender) Send(msg *EmailMessage) error {
	serialized, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	Logger.Log.Infof("email notification: %s", string(serialized))
	return nil
}

// NewBus builds the in-process event bus shared between the handlers and the
// Notifier.
func NewBus() *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
}

// PublishEmail puts an email request on the bus. Delivery is fire-and-forget
// from the caller's perspective.
func PublishEmail(bus *gochannel.GoChannel, msg *EmailMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return bus.Publish(EmailTopic, message.NewMessage(watermill.NewUUID(), payload))
}

// Notifier drains the bus and hands each email request to the sender. Send
// failures are logged, not retried.
type Notifier struct {
	bus    *gochannel.GoChannel
	sender Sender
}

func NewNotifier(bus *gochannel.GoChannel, sender Sender) *Notifier {
	return &Notifier{bus: bus, sender: sender}
}

// Run blocks consuming the bus until the context is canceled. It must be
// subscribed before the first request is served, otherwise early messages are
// dropped.
func (n *Notifier) Run(ctx context.Context) error {
	messages, err := n.bus.Subscribe(ctx, EmailTopic)
	if err != nil {
		return err
	}

	for msg := range messages {
		msg.Ack()

		var email EmailMessage
		if err := json.Unmarshal(msg.Payload, &email); err != nil {
			Logger.Log.Errorf("malformed email message on the bus: %v", err)
			continue
		}
		if err := n.sender.Send(&email); err != nil {
			Logger.Log.Errorf("fail to send email notification to %s: %v", email.UserEmail, err)
		}
	}
	return nil
}
