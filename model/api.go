package model

// Request bodies accepted from the front-end and the simplified response
// shapes it expects. Conversions from the raw platform shapes live here so
// handlers never leak platform payloads to clients.

// CreateTopicBody is the request body for topic creation.
type CreateTopicBody struct {
	Title   string `json:"title"`
	Text    string `json:"text"`
	AssetId string `json:"asset_id"`
}

// CreatePostBody is the request body for post creation.
type CreatePostBody struct {
	Text string `json:"text"`
}

// EditPostBody is the request body for post edition.
type EditPostBody struct {
	Text string `json:"text"`
}

// PostResponse is the post shape returned to the front-end.
type PostResponse struct {
	Id              int    `json:"id"`
	Name            string `json:"name"`
	Username        string `json:"username"`
	DisplayUsername string `json:"display_username"`
	UserId          int    `json:"user_id"`
	AvatarTemplate  string `json:"avatar_template"`
	CreatedAt       string `json:"created_at"`
	Cooked          string `json:"cooked"`
	TopicId         int    `json:"topic_id"`
}

// PostResponseFromDiscourse shapes a platform post into the front-end post.
func PostResponseFromDiscourse(post *DiscoursePost) PostResponse {
	return PostResponse{
		Id:              post.Id,
		Name:            post.Name,
		Username:        post.Username,
		DisplayUsername: post.DisplayUsername,
		UserId:          post.UserId,
		AvatarTemplate:  post.AvatarTemplate,
		CreatedAt:       post.CreatedAt,
		Cooked:          post.Cooked,
		TopicId:         post.TopicId,
	}
}

// TopicResponse is the topic shape returned to the front-end, optionally
// carrying its posts.
type TopicResponse struct {
	Posts      []PostResponse `json:"posts"`
	Id         int            `json:"id"`
	Title      string         `json:"title"`
	FancyTitle string         `json:"fancy_title"`
	PostsCount int            `json:"posts_count"`
	CreatedAt  string         `json:"created_at"`
	Slug       string         `json:"slug"`
	CategoryId int            `json:"category_id"`
	Username   string         `json:"username,omitempty"`
}

// TopicResponseFromDiscourse shapes a platform topic and its posts into the
// front-end topic.
func TopicResponseFromDiscourse(topic *DiscourseTopic, posts []DiscoursePost) TopicResponse {
	shaped := make([]PostResponse, 0, len(posts))
	for i := range posts {
		shaped = append(shaped, PostResponseFromDiscourse(&posts[i]))
	}
	return TopicResponse{
		Posts:      shaped,
		Id:         topic.Id,
		Title:      topic.Title,
		FancyTitle: topic.FancyTitle,
		PostsCount: topic.PostsCount,
		CreatedAt:  topic.CreatedAt,
		Slug:       topic.Slug,
		CategoryId: topic.CategoryId,
		Username:   topic.Username,
	}
}

// DiscussionResponse is returned when a discussion is requested for an asset.
type DiscussionResponse struct {
	Id     int             `json:"id"`
	Name   string          `json:"name"`
	Topics []TopicResponse `json:"topics"`
}

// DiscussionResponseFromDiscourse shapes a category and its topics into the
// front-end discussion.
func DiscussionResponseFromDiscourse(category *DiscourseCategory, topics []DiscourseTopic) DiscussionResponse {
	shaped := make([]TopicResponse, 0, len(topics))
	for i := range topics {
		shaped = append(shaped, TopicResponseFromDiscourse(&topics[i], nil))
	}
	return DiscussionResponse{
		Id:     category.Id,
		Name:   category.Name,
		Topics: shaped,
	}
}

// TopicsResponse is returned when the topics of a category are requested.
type TopicsResponse struct {
	Topics []TopicResponse `json:"topics"`
}

// Envelope is the uniform response wrapper every route answers with.
type Envelope struct {
	Data       interface{} `json:"data"`
	Error      string      `json:"error,omitempty"`
	HttpStatus int         `json:"http_status"`
}
