// Package server exposes the simplified discussion API and orchestrates the
// forum platform, the auth/asset collaborators, the association store and the
// moderation queue.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/collabsvcs/discussion/clients"
	"github.com/collabsvcs/discussion/discourse"
	"github.com/collabsvcs/discussion/model"
	"github.com/collabsvcs/discussion/moderation"
	"github.com/collabsvcs/discussion/notification"
	"github.com/collabsvcs/discussion/server/middlewares"
	"github.com/collabsvcs/discussion/store"
	"github.com/collabsvcs/discussion/utils"
	Logger "github.com/collabsvcs/discussion/utils/log"
)

// Handler bundles the collaborators every route needs.
type Handler struct {
	Forum        *discourse.Client
	Associations store.AssociationStore
	Auth         *clients.AuthClient
	Asset        *clients.AssetClient
	Moderation   moderation.Publisher
	Bus          *gochannel.GoChannel
}

func emptyDiscussion() model.DiscussionResponse {
	return model.DiscussionResponse{Topics: []model.TopicResponse{}}
}

// GetDiscussion returns the category provisioned for the asset together with
// its topics, creating the category on first request.
func (h *Handler) GetDiscussion(c *gin.Context) {
	assetId := c.Param("asset_id")
	if _, err := uuid.Parse(assetId); err != nil {
		respondError(c, http.StatusBadRequest, emptyDiscussion(), "the asset id is not a valid uuid")
		return
	}

	categoryId, err := h.Associations.Lookup(assetId)
	if err != nil {
		// Treated as "no association yet": the category fetch below falls
		// back to creation anyway.
		Logger.Log.Errorf("association lookup failed for asset %s: %v", assetId, err)
		categoryId = nil
	}

	category, err := h.Forum.GetCategory(c.Request.Context(), categoryId, assetId)
	if err != nil {
		translateError(c, err, emptyDiscussion())
		return
	}

	topics, err := h.Forum.GetTopics(c.Request.Context(), category.Slug, category.Id)
	if err != nil {
		translateError(c, err, emptyDiscussion())
		return
	}

	respond(c, model.DiscussionResponseFromDiscourse(category, topics))
}

// GetTopics lists the topics of a category.
func (h *Handler) GetTopics(c *gin.Context) {
	categoryId, err := strconv.Atoi(c.Param("category"))
	if err != nil {
		respondError(c, http.StatusBadRequest, gin.H{}, "the category id must be an integer")
		return
	}

	topics, err := h.Forum.GetTopics(c.Request.Context(), c.Param("slug"), categoryId)
	if err != nil {
		if errors.Is(err, discourse.ErrResourceUnavailable) {
			respondError(c, http.StatusNotFound, gin.H{}, model.MissingCategoryErrorMessage)
			return
		}
		translateError(c, err, gin.H{})
		return
	}

	shaped := make([]model.TopicResponse, 0, len(topics))
	for i := range topics {
		shaped = append(shaped, model.TopicResponseFromDiscourse(&topics[i], nil))
	}
	respond(c, model.TopicsResponse{Topics: shaped})
}

// GetTopic returns a topic together with all of its posts.
func (h *Handler) GetTopic(c *gin.Context) {
	topic, posts, err := h.Forum.GetTopicWithPosts(c.Request.Context(), c.Param("topic_id"))
	if err != nil {
		translateError(c, err, gin.H{})
		return
	}
	respond(c, model.TopicResponseFromDiscourse(topic, posts))
}

// CreateTopic creates a new topic (and its first post) under the category
// associated with the asset, submits both to moderation and notifies the
// relevant user.
func (h *Handler) CreateTopic(c *gin.Context) {
	Logger.Log.Info("creating topic")

	var body model.CreateTopicBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, gin.H{}, "invalid request body")
		return
	}
	if utf8.RuneCountInString(body.Title) < model.MinTitleSizeInChar {
		Logger.Log.Errorf("title is too short '%s'", body.Title)
		respondError(c, http.StatusBadRequest, gin.H{}, model.TitleTooShortMessage)
		return
	}
	if utf8.RuneCountInString(body.Text) < model.MinContentSizeInChar {
		Logger.Log.Errorf("text is too short '%s'", body.Text)
		respondError(c, http.StatusBadRequest, gin.H{}, model.ContentTooShortMessage)
		return
	}
	if _, err := uuid.Parse(body.AssetId); err != nil {
		respondError(c, http.StatusBadRequest, gin.H{}, "the asset id is not a valid uuid")
		return
	}

	user := middlewares.CurrentUser(c)
	if err := h.Forum.EnsureUser(c.Request.Context(), user); err != nil {
		translateError(c, err, gin.H{})
		return
	}

	categoryId, err := h.Associations.Lookup(body.AssetId)
	if err != nil {
		translateError(c, err, gin.H{})
		return
	}
	if categoryId == nil {
		respondError(c, http.StatusInternalServerError, gin.H{},
			fmt.Sprintf("Topic creation Failed. Category_id for asset %s is missing.", body.AssetId))
		return
	}
	Logger.Log.Debugf("found a category %d for asset %s", *categoryId, body.AssetId)

	post, err := h.Forum.CreateTopic(c.Request.Context(), user.Username, *categoryId, body.Title, body.Text)
	if err != nil {
		translateError(c, err, gin.H{})
		return
	}
	shaped := model.PostResponseFromDiscourse(post)

	if err := moderation.SendTopicToModeration(h.Moderation, post.TopicId, body.Title, user); err != nil {
		translateError(c, err, gin.H{})
		return
	}
	if err := moderation.SendPostToModeration(h.Moderation, &shaped, body.Text, user); err != nil {
		translateError(c, err, gin.H{})
		return
	}
	Logger.Log.Info("topic created")

	if err := h.notifyTopicCreated(c.Request.Context(), &body, user); err != nil {
		translateError(c, err, gin.H{})
		return
	}

	respond(c, shaped)
}

// notifyTopicCreated mails the author for general posts, or the asset owner
// when the topic targets a specific asset.
func (h *Handler) notifyTopicCreated(ctx context.Context, body *model.CreateTopicBody, user *model.User) error {
	if body.AssetId == model.GeneralPostCategoryUUID {
		return notification.PublishEmail(h.Bus, &notification.EmailMessage{
			NotificationType: notification.TemplateGeneric,
			UserEmail:        user.Email,
			Subject:          "New Post Created",
			Message:          fmt.Sprintf("A new post '%s' has been created.", body.Title),
			UserId:           user.Id,
		})
	}

	ownerId, err := h.Asset.GetAssetOwner(ctx, body.AssetId)
	if err != nil {
		return err
	}
	ownerMail, err := h.Auth.GetUserEmail(ctx, ownerId)
	if err != nil {
		return err
	}
	asset, err := h.Asset.GetAsset(ctx, body.AssetId)
	if err != nil {
		return err
	}
	return notification.PublishEmail(h.Bus, &notification.EmailMessage{
		NotificationType: notification.TemplateGeneric,
		UserEmail:        ownerMail,
		Subject:          "New Topic created for your asset",
		Message: fmt.Sprintf("A new topic '%s' has been created for your asset '%s'",
			body.Title, asset.Data.Public.Name),
		UserId: user.Id,
	})
}

// CreatePost adds a post to an existing topic and submits it to moderation.
func (h *Handler) CreatePost(c *gin.Context) {
	var body model.CreatePostBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, gin.H{}, "invalid request body")
		return
	}

	user := middlewares.CurrentUser(c)
	if err := h.Forum.EnsureUser(c.Request.Context(), user); err != nil {
		translateError(c, err, gin.H{})
		return
	}

	post, err := h.Forum.CreatePost(c.Request.Context(), user.Username, c.Param("topic_id"), body.Text)
	if err != nil {
		translateError(c, err, gin.H{})
		return
	}
	shaped := model.PostResponseFromDiscourse(post)

	if err := moderation.SendPostToModeration(h.Moderation, &shaped, body.Text, user); err != nil {
		translateError(c, err, gin.H{})
		return
	}

	respond(c, shaped)
}

// EditPost replaces the content of an existing post.
func (h *Handler) EditPost(c *gin.Context) {
	var body model.EditPostBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, gin.H{}, "invalid request body")
		return
	}

	post, err := h.Forum.EditPost(c.Request.Context(), c.Param("post_id"), body.Text)
	if err != nil {
		translateError(c, err, gin.H{})
		return
	}
	respond(c, model.PostResponseFromDiscourse(post))
}

// ModeratePost is the reject callback target for posts: it replaces the post
// content and notifies the author that the post was refused.
func (h *Handler) ModeratePost(c *gin.Context) {
	var body model.EditPostBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, gin.H{}, "invalid request body")
		return
	}

	user := middlewares.CurrentUser(c)
	if err := h.Forum.EnsureUser(c.Request.Context(), user); err != nil {
		translateError(c, err, gin.H{})
		return
	}

	postId := c.Param("post_id")
	original, err := h.Forum.GetPost(c.Request.Context(), postId)
	if err != nil {
		translateError(c, err, gin.H{})
		return
	}

	post, err := h.Forum.EditPost(c.Request.Context(), postId, body.Text)
	if err != nil {
		translateError(c, err, gin.H{})
		return
	}

	if err := notification.PublishEmail(h.Bus, &notification.EmailMessage{
		NotificationType: notification.TemplateAssetModerationRejected,
		UserEmail:        user.Email,
		Subject:          "Post refused by moderation",
		Message:          fmt.Sprintf("Post has been refused by the moderation: %s", original.Cooked),
		UserId:           user.Id,
	}); err != nil {
		translateError(c, err, gin.H{})
		return
	}

	respond(c, model.PostResponseFromDiscourse(post))
}

// DeleteTopic removes a topic. Only its creator or an admin may do so.
func (h *Handler) DeleteTopic(c *gin.Context) {
	topicId := c.Param("topic_id")
	Logger.Log.Infof("deleting topic %s", topicId)

	user := middlewares.CurrentUser(c)
	if err := h.Forum.EnsureUser(c.Request.Context(), user); err != nil {
		translateError(c, err, gin.H{})
		return
	}

	topic, err := h.Forum.GetTopic(c.Request.Context(), topicId)
	if err != nil {
		translateError(c, err, gin.H{})
		return
	}

	roles, err := h.Auth.GetCurrentUserRoles(c.Request.Context(), c.GetHeader("Authorization"))
	if err != nil {
		translateError(c, err, gin.H{})
		return
	}
	isAdmin := utils.ContainsStringIgnoreCase(roles, "admin")
	if topic.Username != user.Username && !isAdmin {
		Logger.Log.Errorf("user %s may not delete topic %s owned by %s", user.Username, topicId, topic.Username)
		respondError(c, http.StatusForbidden, gin.H{}, "Only the topic owner or admin can delete the topic.")
		return
	}

	if err := h.Forum.DeleteTopic(c.Request.Context(), topicId); err != nil {
		translateError(c, err, gin.H{})
		return
	}

	Logger.Log.Infof("topic %s deleted", topicId)
	respond(c, gin.H{"message": "Topic deleted successfully"})
}

// ModerateTopic is the reject callback target for topics: it deletes the
// topic and notifies the author that it was refused. Authorization is handled
// at the routing layer, the ownership check is deliberately bypassed.
func (h *Handler) ModerateTopic(c *gin.Context) {
	topicId := c.Param("topic_id")
	Logger.Log.Infof("moderating topic %s", topicId)

	user := middlewares.CurrentUser(c)
	if err := h.Forum.EnsureUser(c.Request.Context(), user); err != nil {
		translateError(c, err, gin.H{})
		return
	}

	topic, err := h.Forum.GetTopic(c.Request.Context(), topicId)
	if err != nil {
		translateError(c, err, gin.H{})
		return
	}

	if err := h.Forum.DeleteTopic(c.Request.Context(), topicId); err != nil {
		translateError(c, err, gin.H{})
		return
	}

	if err := notification.PublishEmail(h.Bus, &notification.EmailMessage{
		NotificationType: notification.TemplateAssetModerationRejected,
		UserEmail:        user.Email,
		Subject:          "Topic refused by moderation",
		Message:          fmt.Sprintf("Topic has been refused by the moderation: %s", topic.Title),
		UserId:           user.Id,
	}); err != nil {
		translateError(c, err, gin.H{})
		return
	}

	Logger.Log.Infof("topic %s moderated", topicId)
	respond(c, gin.H{"message": "Topic moderated successfully"})
}
