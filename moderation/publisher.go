package moderation

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sns"

	"github.com/collabsvcs/discussion/model"
	Logger "github.com/collabsvcs/discussion/utils/log"
)

const (
	messageGroup = "moderation"

	publishCounter = "discussion.moderation.publish"
)

// ErrSendModeration is surfaced when the review request could not be handed
// to the queue. The already-created forum content is deliberately not rolled
// back.
var ErrSendModeration = errors.New("failed to send the content to moderation")

// Publisher hands moderation events to the queue. Delivery is owned by the
// queue subsystem once Publish returns.
type Publisher interface {
	Publish(event *Event) error
}

// SnsPublisher publishes moderation events on an SNS FIFO topic.
type SnsPublisher struct {
	arn    string
	client *sns.SNS
	statsd *statsd.Client
}

// NewSnsPublisher builds a publisher from the environment. The statsd client
// may be nil, in which case publish outcomes are not counted.
func NewSnsPublisher(statsdClient *statsd.Client) (*SnsPublisher, error) {
	arn := os.Getenv("MODERATION_TOPIC_ARN")
	if arn == "" {
		return nil, errors.New("MODERATION_TOPIC_ARN is not set")
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(os.Getenv("AWS_REGION")),
	})
	if err != nil {
		return nil, err
	}

	return &SnsPublisher{
		arn:    arn,
		client: sns.New(sess),
		statsd: statsdClient,
	}, nil
}

func (p *SnsPublisher) Publish(event *Event) error {
	if event == nil {
		Logger.Log.Warn("push empty moderation event into queue")
		return nil
	}

	serialized, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := string(serialized)
	group := messageGroup
	dedupId := event.DeduplicationId()
	// ignore the returned seq number for FIFO
	_, err = p.client.Publish(&sns.PublishInput{
		Message:                &msg,
		TopicArn:               &p.arn,
		MessageGroupId:         &group,
		MessageDeduplicationId: &dedupId,
	})
	p.count(event, err)
	return err
}

func (p *SnsPublisher) count(event *Event, err error) {
	if p.statsd == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	if serr := p.statsd.Incr(publishCounter, []string{string(event.FunctionalArea), outcome}, 1); serr != nil {
		Logger.Log.Info("cannot report moderation publish outcome")
	}
}

// StderrPublisher dumps moderation events to stderr, for development runs
// without a queue.
type StderrPublisher struct{}

func (p *StderrPublisher) Publish(event *Event) error {
	serialized, err := json.Marshal(event)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, string(serialized))
	return nil
}

// SendPostToModeration publishes the review request for a created post.
// Failures are logged and reported as ErrSendModeration; the post itself
// stays up.
func SendPostToModeration(p Publisher, post *model.PostResponse, text string, user *model.User) error {
	event := NewPostEvent(post, text, user)
	if err := p.Publish(event); err != nil {
		Logger.Log.Errorf("fail to send post %s to moderation: %v", event.ContentId, err)
		return ErrSendModeration
	}
	Logger.Log.Infof("moderation event sent for post %s", event.ContentId)
	return nil
}

// SendTopicToModeration publishes the review request for a created topic.
func SendTopicToModeration(p Publisher, topicId int, title string, user *model.User) error {
	event := NewTopicEvent(topicId, title, user)
	if err := p.Publish(event); err != nil {
		Logger.Log.Errorf("fail to send topic %s to moderation: %v", event.ContentId, err)
		return ErrSendModeration
	}
	Logger.Log.Infof("moderation event sent for topic %s", event.ContentId)
	return nil
}
