package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTopicResponseFromDiscourse(t *testing.T) {
	topic := DiscourseTopic{
		Id:         67,
		Title:      "A genuine discussion topic",
		FancyTitle: "A genuine discussion topic",
		Slug:       "a-genuine-discussion-topic",
		PostsCount: 2,
		CreatedAt:  "2024-03-01T10:00:00.000Z",
		CategoryId: 1,
		Username:   "test1",
	}
	posts := []DiscoursePost{
		{Id: 90, Username: "test1", Cooked: "<p>hello</p>", TopicId: 67},
		{Id: 91, Username: "replier", Cooked: "<p>hi back</p>", TopicId: 67},
	}

	got := TopicResponseFromDiscourse(&topic, posts)
	want := TopicResponse{
		Posts: []PostResponse{
			{Id: 90, Username: "test1", Cooked: "<p>hello</p>", TopicId: 67},
			{Id: 91, Username: "replier", Cooked: "<p>hi back</p>", TopicId: 67},
		},
		Id:         67,
		Title:      "A genuine discussion topic",
		FancyTitle: "A genuine discussion topic",
		PostsCount: 2,
		CreatedAt:  "2024-03-01T10:00:00.000Z",
		Slug:       "a-genuine-discussion-topic",
		CategoryId: 1,
		Username:   "test1",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected topic response (-want +got):\n%s", diff)
	}
}

func TestDiscussionResponseFromDiscourse(t *testing.T) {
	category := DiscourseCategory{Id: 1, Name: "Uncategorized", Slug: "uncategorized"}
	topics := []DiscourseTopic{{Id: 67, Title: "A genuine discussion topic", Username: "test1"}}

	got := DiscussionResponseFromDiscourse(&category, topics)

	if got.Id != 1 || got.Name != "Uncategorized" {
		t.Errorf("unexpected category identity: %+v", got)
	}
	if len(got.Topics) != 1 || got.Topics[0].Id != 67 {
		t.Errorf("unexpected topics: %+v", got.Topics)
	}
	// Topics without posts still answer with an empty list, never null.
	if got.Topics[0].Posts == nil {
		t.Error("posts must be an empty list, not nil")
	}
}
