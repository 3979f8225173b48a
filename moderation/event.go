// Package moderation builds and publishes the review requests emitted for
// every piece of newly created content.
package moderation

import (
	"fmt"
	"net/http"
	"time"

	"github.com/collabsvcs/discussion/model"
)

type EventStatus string

const (
	// StatusAutoPending marks content waiting for the automated moderation
	// step.
	StatusAutoPending EventStatus = "AUTO_PENDING"
)

type FunctionalArea string

const (
	AreaDiscussionPost  FunctionalArea = "discussion_post"
	AreaDiscussionTopic FunctionalArea = "discussion_topic"
)

type AutoModerationType string

const (
	TextToxicity AutoModerationType = "text_toxicity"
)

const ContentTypeText = "text"

// ContentEntry is one named piece of content submitted for review.
type ContentEntry struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Content groups the submitted entries by content type.
type Content struct {
	DataByType map[string][]ContentEntry `json:"data_by_type"`
}

// AutoModerationRouting requests one automated moderation pass.
type AutoModerationRouting struct {
	ModerationType AutoModerationType `json:"moderation_type"`
}

// HTTPCallback describes the call the moderation subsystem performs back into
// this service when it settles on a verdict.
type HTTPCallback struct {
	Service string            `json:"service"`
	Method  string            `json:"method"`
	Url     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Payload interface{}       `json:"payload"`
}

// Event is the moderation request message. It is transient: once published
// the moderation subsystem owns delivery and follow-up.
type Event struct {
	Status EventStatus `json:"status"`

	ContentId string    `json:"content_id"`
	UserId    string    `json:"user_id"`
	Date      time.Time `json:"date"`
	Url       string    `json:"url"`

	// The wire field name is fixed by the moderation subsystem's contract,
	// spelling included.
	FunctionalArea FunctionalArea `json:"fonctionnal_area"`

	Content        Content                 `json:"content"`
	AutoModRouting []AutoModerationRouting `json:"auto_mod_routing"`

	RejectCallbacks []HTTPCallback `json:"reject_callbacks"`
	AcceptCallbacks []HTTPCallback `json:"accept_callbacks"`
	History         []string       `json:"history"`
}

// DeduplicationId identifies the event for queue-level deduplication.
func (e *Event) DeduplicationId() string {
	return fmt.Sprintf("%s-%s", e.FunctionalArea, e.ContentId)
}

func rejectCallback(method string, url string) HTTPCallback {
	return HTTPCallback{
		Service: "discussion",
		Method:  method,
		Url:     url,
		Headers: map[string]string{"Content-Type": "application/json"},
		Payload: model.EditPostBody{Text: model.ContentBlocked},
	}
}

func newEvent(area FunctionalArea, contentId string, user *model.User, content ContentEntry, callback HTTPCallback) *Event {
	return &Event{
		Status:         StatusAutoPending,
		ContentId:      contentId,
		UserId:         user.Id,
		Date:           time.Now().UTC(),
		Url:            "",
		FunctionalArea: area,
		Content: Content{
			DataByType: map[string][]ContentEntry{ContentTypeText: {content}},
		},
		AutoModRouting:  []AutoModerationRouting{{ModerationType: TextToxicity}},
		RejectCallbacks: []HTTPCallback{callback},
		AcceptCallbacks: []HTTPCallback{},
		History:         []string{},
	}
}

// NewPostEvent builds the review request for a newly created post. On reject,
// the moderation subsystem edits the post down to the blocked placeholder.
func NewPostEvent(post *model.PostResponse, text string, user *model.User) *Event {
	return newEvent(
		AreaDiscussionPost,
		fmt.Sprintf("%d", post.Id),
		user,
		ContentEntry{Name: "post_content", Value: text},
		rejectCallback(http.MethodPut, fmt.Sprintf("/post/moderate/%d", post.Id)),
	)
}

// NewTopicEvent builds the review request for a newly created topic. On
// reject, the moderation subsystem deletes the whole topic.
func NewTopicEvent(topicId int, title string, user *model.User) *Event {
	return newEvent(
		AreaDiscussionTopic,
		fmt.Sprintf("%d", topicId),
		user,
		ContentEntry{Name: "topic_title", Value: title},
		rejectCallback(http.MethodDelete, fmt.Sprintf("/topic/moderate/%d", topicId)),
	)
}
