package server

import (
	"github.com/gin-gonic/gin"

	"github.com/collabsvcs/discussion/server/middlewares"
)

// RegisterRoutes mounts the discussion API on the router. Reading is public,
// writing requires an authenticated identity, and the moderation callbacks
// are reserved to moderators/admins.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/discussion/:asset_id", h.GetDiscussion)
	router.GET("/topics/:slug/:category", h.GetTopics)
	router.GET("/topic/:topic_id", h.GetTopic)

	authenticated := router.Group("/", middlewares.RequireUser())
	authenticated.POST("/topic", h.CreateTopic)
	authenticated.POST("/topic/:topic_id", h.CreatePost)
	authenticated.DELETE("/topic/:topic_id", h.DeleteTopic)

	router.PUT("/post/:post_id", middlewares.RequireRoles(h.Auth, "moderator"), h.EditPost)
	router.PUT("/post/moderate/:post_id", middlewares.RequireRoles(h.Auth, "moderator", "admin"), h.ModeratePost)
	router.DELETE("/topic/moderate/:topic_id", middlewares.RequireRoles(h.Auth, "admin"), h.ModerateTopic)
}
