// Package discourse adapts every external forum operation and normalizes the
// platform's failures into a single error taxonomy.
package discourse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/collabsvcs/discussion/model"
	"github.com/collabsvcs/discussion/store"
	Logger "github.com/collabsvcs/discussion/utils/log"
)

const (
	// systemUsername is the platform account used when no end user is
	// impersonated.
	systemUsername = "system"

	// forumUserPassword is the deterministic placeholder password used when
	// provisioning forum accounts. Users never log into the forum directly,
	// every call impersonates them through the API key.
	forumUserPassword = "#despAAS2024"

	forumEmailDomain = "eu.space"
)

// defaultTopicPattern matches the "About the <category name> category"
// placeholder topics the platform generates for every new category. Category
// names are "<digits>_<asset uuid>", or plain digits for the builtin ones.
var defaultTopicPattern = regexp.MustCompile(`^About the \d+(_[a-f0-9\-]+)? category`)

// Client performs authenticated calls against the forum platform HTTP API.
// Write operations impersonate the acting end user via the Api-Username
// header.
type Client struct {
	host   string
	apiKey string
	store  store.AssociationStore

	client *http.Client
}

func NewClient(host string, apiKey string, associations store.AssociationStore) *Client {
	return &Client{
		host:   strings.TrimRight(host, "/"),
		apiKey: apiKey,
		store:  associations,
		client: &http.Client{},
	}
}

func (c *Client) do(ctx context.Context, method string, path string, username string, payload interface{}) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.host+path, body)
	if err != nil {
		return nil, err
	}
	if username == "" {
		username = systemUsername
	}
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("Api-Username", username)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.client.Do(req)
	if err != nil {
		Logger.Log.Errorf("fail to reach the forum platform on %s %s: %v", method, path, err)
		return nil, errors.Wrap(ErrUnavailable, err.Error())
	}
	Logger.Log.Debugf("forum call %s %s returned %d", method, path, res.StatusCode)
	return res, nil
}

func decodePayload(res *http.Response, operation string, v interface{}) error {
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		Logger.Log.Errorf("malformed forum payload during %s: %v", operation, err)
		return errors.Wrapf(ErrUnavailable, "malformed payload during %s", operation)
	}
	return nil
}

type categoryEnvelope struct {
	Category model.DiscourseCategory `json:"category"`
	Errors   []string                `json:"errors"`
}

// GetCategory returns the category associated with the asset. When no
// category id is known yet, or the platform no longer knows the recorded one,
// a fresh category is provisioned instead.
func (c *Client) GetCategory(ctx context.Context, categoryId *int, assetId string) (*model.DiscourseCategory, error) {
	Logger.Log.Infof("getting category %v for asset %s", categoryId, assetId)
	if categoryId == nil {
		return c.CreateCategory(ctx, assetId)
	}

	res, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/c/%d/show.json", *categoryId), "", nil)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		// The recorded category is gone on the platform side, provision a
		// fresh one rather than surfacing a not-found.
		return c.CreateCategory(ctx, assetId)
	}
	if err := checkResponse(res, "category retrieval"); err != nil {
		return nil, err
	}

	var payload categoryEnvelope
	if err := decodePayload(res, "category retrieval", &payload); err != nil {
		return nil, err
	}
	return &payload.Category, nil
}

// CreateCategory provisions a new category for the asset and records the
// association. The display name embeds a random prefix to dodge platform name
// collisions.
func (c *Client) CreateCategory(ctx context.Context, assetId string) (*model.DiscourseCategory, error) {
	Logger.Log.Infof("creating category for asset %s", assetId)
	name := fmt.Sprintf("%d_%s", rand.Intn(1000000), assetId)

	res, err := c.do(ctx, http.MethodPost, "/categories.json", "", map[string]string{"name": name})
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if err := checkResponse(res, "category creation"); err != nil {
		return nil, err
	}

	var payload categoryEnvelope
	if err := decodePayload(res, "category creation", &payload); err != nil {
		return nil, err
	}
	if len(payload.Errors) > 0 {
		return nil, newRequestError(payload.Errors)
	}

	if err := c.store.Store(assetId, payload.Category.Id); err != nil {
		if errors.Is(err, store.ErrDuplicateAssociation) {
			// Lost the creation race: keep going, the stored association
			// wins and this category becomes an orphan.
			Logger.Log.Warnf("asset %s already associated, category %d is orphaned", assetId, payload.Category.Id)
		} else {
			return nil, err
		}
	}
	return &payload.Category, nil
}

type topicListEnvelope struct {
	Users     []model.TopicListUser `json:"users"`
	TopicList struct {
		Topics []model.DiscourseTopic `json:"topics"`
	} `json:"topic_list"`
}

// GetTopics lists the topics of a category, dropping the platform generated
// placeholder topic and resolving each topic's creator username from the
// poster flagged as Original Poster.
func (c *Client) GetTopics(ctx context.Context, slug string, categoryId int) ([]model.DiscourseTopic, error) {
	Logger.Log.Infof("getting topics for slug:%s category:%d", slug, categoryId)

	res, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/c/%s/%d.json", slug, categoryId), "", nil)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		Logger.Log.Errorf("category %d does not exist", categoryId)
		return nil, ErrResourceUnavailable
	}
	if err := checkResponse(res, "topic listing"); err != nil {
		return nil, err
	}

	var payload topicListEnvelope
	if err := decodePayload(res, "topic listing", &payload); err != nil {
		return nil, err
	}

	userLookup := make(map[int]string, len(payload.Users))
	for _, user := range payload.Users {
		userLookup[user.Id] = user.Username
	}

	topics := make([]model.DiscourseTopic, 0, len(payload.TopicList.Topics))
	for _, topic := range payload.TopicList.Topics {
		if IsDefaultTopicTitle(topic.Title) {
			continue
		}
		for _, poster := range topic.Posters {
			if strings.Contains(poster.Description, "Original Poster") {
				topic.Username = userLookup[poster.UserId]
				break
			}
		}
		topics = append(topics, topic)
	}
	return topics, nil
}

// IsDefaultTopicTitle reports whether the title belongs to an auto-generated
// "About the ... category" placeholder topic.
func IsDefaultTopicTitle(title string) bool {
	return defaultTopicPattern.MatchString(title)
}

type postEnvelope struct {
	model.DiscoursePost
	Errors   []string `json:"errors"`
	ErrorMsg string   `json:"error"`
}

// CreateTopic creates a new topic under the category, impersonating the
// acting user. The platform answers with the topic's first post.
func (c *Client) CreateTopic(ctx context.Context, username string, categoryId int, title string, content string) (*model.DiscoursePost, error) {
	Logger.Log.Infof("creating topic on category %d for %s", categoryId, username)

	body := map[string]string{"category": strconv.Itoa(categoryId), "title": title, "raw": content}
	res, err := c.do(ctx, http.MethodPost, "/posts.json", username, body)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if err := checkResponse(res, "topic creation"); err != nil {
		return nil, err
	}

	var payload postEnvelope
	if err := decodePayload(res, "topic creation", &payload); err != nil {
		return nil, err
	}
	if len(payload.Errors) > 0 {
		return nil, newRequestError(payload.Errors)
	}
	if payload.ErrorMsg != "" {
		return nil, &RequestError{Detail: payload.ErrorMsg}
	}
	return &payload.DiscoursePost, nil
}

// CreatePost adds a post to an existing topic, impersonating the acting user.
func (c *Client) CreatePost(ctx context.Context, username string, topicId string, text string) (*model.DiscoursePost, error) {
	body := map[string]string{"topic_id": topicId, "raw": text}
	res, err := c.do(ctx, http.MethodPost, "/posts.json", username, body)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if err := checkResponse(res, "post creation"); err != nil {
		return nil, err
	}

	var payload postEnvelope
	if err := decodePayload(res, "post creation", &payload); err != nil {
		return nil, err
	}
	if len(payload.Errors) > 0 {
		return nil, newRequestError(payload.Errors)
	}
	return &payload.DiscoursePost, nil
}

type topicDetailEnvelope struct {
	model.DiscourseTopic
	PostStream struct {
		Posts []model.DiscoursePost `json:"posts"`
	} `json:"post_stream"`
	Details struct {
		CreatedBy struct {
			Id       int    `json:"id"`
			Username string `json:"username"`
		} `json:"created_by"`
	} `json:"details"`
}

// GetTopicWithPosts fetches a topic together with all of its posts. The topic
// username is sourced from the creator detail.
func (c *Client) GetTopicWithPosts(ctx context.Context, topicId string) (*model.DiscourseTopic, []model.DiscoursePost, error) {
	res, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/t/%s.json?print=true", topicId), "", nil)
	if err != nil {
		return nil, nil, err
	}
	defer res.Body.Close()

	if err := checkResponse(res, "post listing"); err != nil {
		return nil, nil, err
	}

	var payload topicDetailEnvelope
	if err := decodePayload(res, "post listing", &payload); err != nil {
		return nil, nil, err
	}

	topic := payload.DiscourseTopic
	topic.Username = payload.Details.CreatedBy.Username
	return &topic, payload.PostStream.Posts, nil
}

// GetTopic fetches a single topic, resolving its creator username.
func (c *Client) GetTopic(ctx context.Context, topicId string) (*model.DiscourseTopic, error) {
	res, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/t/%s.json", topicId), "", nil)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if err := checkResponse(res, "topic fetch"); err != nil {
		return nil, err
	}

	var payload topicDetailEnvelope
	if err := decodePayload(res, "topic fetch", &payload); err != nil {
		return nil, err
	}

	topic := payload.DiscourseTopic
	topic.Username = payload.Details.CreatedBy.Username
	return &topic, nil
}

// GetPost fetches a single post by id.
func (c *Client) GetPost(ctx context.Context, postId string) (*model.DiscoursePost, error) {
	res, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/posts/%s.json", postId), "", nil)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if err := checkResponse(res, "post fetch"); err != nil {
		return nil, err
	}

	var post model.DiscoursePost
	if err := decodePayload(res, "post fetch", &post); err != nil {
		return nil, err
	}
	return &post, nil
}

type editPostEnvelope struct {
	Post model.DiscoursePost `json:"post"`
}

// EditPost replaces the raw content of an existing post.
func (c *Client) EditPost(ctx context.Context, postId string, raw string) (*model.DiscoursePost, error) {
	res, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/posts/%s.json", postId), "", map[string]string{"raw": raw})
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if err := checkResponse(res, "post modification"); err != nil {
		return nil, err
	}

	var payload editPostEnvelope
	if err := decodePayload(res, "post modification", &payload); err != nil {
		return nil, err
	}
	return &payload.Post, nil
}

// DeleteTopic removes a topic and, implicitly, all of its posts.
func (c *Client) DeleteTopic(ctx context.Context, topicId string) error {
	Logger.Log.Infof("deleting topic %s", topicId)

	res, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/t/%s.json", topicId), "", nil)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if err := checkResponse(res, "topic deletion"); err != nil {
		return err
	}
	Logger.Log.Infof("topic %s successfully deleted", topicId)
	return nil
}

// EnsureUser idempotently provisions the acting user's forum account. The
// platform answers success whether the account was just created or already
// existed, which is all we need since every call impersonates the user.
func (c *Client) EnsureUser(ctx context.Context, user *model.User) error {
	if user == nil {
		Logger.Log.Error(ErrAuthenticationNeeded.Error())
		return ErrAuthenticationNeeded
	}
	Logger.Log.Infof("checking forum account for user %s", user.Id)

	body := map[string]string{
		"name":     user.DisplayName,
		"email":    fmt.Sprintf("%s@%s", user.Id, forumEmailDomain),
		"password": forumUserPassword,
		"username": user.Username,
		"active":   "true",
		"approved": "true",
	}
	res, err := c.do(ctx, http.MethodPost, "/users.json", "", body)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	return checkResponse(res, "user provisioning")
}
