package notification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	emails chan *EmailMessage
}

func (s *recordingSender) Send(msg *EmailMessage) error {
	s.emails <- msg
	return nil
}

func TestNotifierDeliversPublishedEmails(t *testing.T) {
	bus := NewBus()
	sender := &recordingSender{emails: make(chan *EmailMessage, 1)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notifier := NewNotifier(bus, sender)
	go notifier.Run(ctx)
	time.Sleep(10 * time.Millisecond)

	sent := &EmailMessage{
		NotificationType: TemplateGeneric,
		UserEmail:        "owner@example.com",
		Subject:          "New Topic created for your asset",
		Message:          "A new topic has been created for your asset",
		UserId:           "484a55f2-9e33-4fd6-900e-16ae64a377f4",
	}
	require.NoError(t, PublishEmail(bus, sent))

	select {
	case got := <-sender.emails:
		assert.Equal(t, sent, got)
	case <-time.After(2 * time.Second):
		t.Fatal("the notifier did not deliver the email")
	}
}

func TestStderrSender(t *testing.T) {
	sender := &StderrSender{}
	assert.NoError(t, sender.Send(&EmailMessage{Subject: "anything"}))
}

func TestNewSnsSenderRequiresTopicArn(t *testing.T) {
	t.Setenv("NOTIFICATION_TOPIC_ARN", "")
	_, err := NewSnsSender()
	assert.Error(t, err)
}
