package model

// Shapes returned by the forum platform. Only the fields this service reads
// are modeled; decoding failures on these must surface loudly instead of
// being passed through as untyped maps.

// DiscourseCategory is the category entity as returned by the forum platform.
type DiscourseCategory struct {
	Id             int    `json:"id"`
	Name           string `json:"name"`
	Color          string `json:"color"`
	TextColor      string `json:"text_color"`
	Slug           string `json:"slug"`
	TopicCount     int    `json:"topic_count"`
	PostCount      int    `json:"post_count"`
	Position       int    `json:"position"`
	Description    string `json:"description"`
	TopicUrl       string `json:"topic_url"`
	ReadRestricted bool   `json:"read_restricted"`
}

// TopicPoster is one entry of a topic's posters list. The platform flags the
// topic creator with an "Original Poster" description.
type TopicPoster struct {
	Description string `json:"description"`
	UserId      int    `json:"user_id"`
}

// TopicListUser is the per-response user lookup table shipped alongside a
// topic list payload.
type TopicListUser struct {
	Id       int    `json:"id"`
	Username string `json:"username"`
}

// DiscourseTopic is the topic entity as returned by the forum platform.
// Username is not part of the platform payload: it is resolved by the client
// from the posters list (topic lists) or from details.created_by (single
// topic fetches) and is empty when no Original Poster could be identified.
type DiscourseTopic struct {
	Id                 int           `json:"id"`
	Title              string        `json:"title"`
	FancyTitle         string        `json:"fancy_title"`
	Slug               string        `json:"slug"`
	PostsCount         int           `json:"posts_count"`
	ReplyCount         int           `json:"reply_count"`
	HighestPostNumber  int           `json:"highest_post_number"`
	CreatedAt          string        `json:"created_at"`
	LastPostedAt       string        `json:"last_posted_at"`
	Pinned             bool          `json:"pinned"`
	Visible            bool          `json:"visible"`
	Closed             bool          `json:"closed"`
	Archived           bool          `json:"archived"`
	Views              int           `json:"views"`
	LikeCount          int           `json:"like_count"`
	CategoryId         int           `json:"category_id"`
	Archetype          string        `json:"archetype"`
	LastPosterUsername string        `json:"last_poster_username"`
	Posters            []TopicPoster `json:"posters"`
	Username           string        `json:"username"`
}

// DiscoursePost is the post entity as returned by the forum platform. Topic
// creation also answers with this shape, since creating a topic creates its
// first post.
type DiscoursePost struct {
	Id              int     `json:"id"`
	Name            string  `json:"name"`
	Username        string  `json:"username"`
	DisplayUsername string  `json:"display_username"`
	AvatarTemplate  string  `json:"avatar_template"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
	Cooked          string  `json:"cooked"`
	PostNumber      int     `json:"post_number"`
	PostType        int     `json:"post_type"`
	ReplyCount      int     `json:"reply_count"`
	Reads           int     `json:"reads"`
	Score           float64 `json:"score"`
	TopicId         int     `json:"topic_id"`
	TopicSlug       string  `json:"topic_slug"`
	UserId          int     `json:"user_id"`
	Version         int     `json:"version"`
	Hidden          bool    `json:"hidden"`
	Moderator       bool    `json:"moderator"`
	Admin           bool    `json:"admin"`
	Staff           bool    `json:"staff"`
}
