package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/tasknest/backend/api/handler"
	"github.com/tasknest/backend/internal/ws"
)

type Handlers struct {
	Auth   *apiHandler.AuthHandler
	Task   *apiHandler.TaskHandler
	Social *apiHandler.SocialHandler
	Health *apiHandler.HealthHandler
	WS     *ws.Handler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// The websocket handshake authenticates itself via the token query
	// parameter, so it bypasses the header middleware.
	r.GET("/ws", handlers.WS.Upgrade)

	// Auth routes
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.POST("/api/v1/auth/refresh", handlers.Auth.Refresh)
	r.POST("/api/v1/auth/logout", handlers.Auth.Logout)

	// Protected routes
	r.GET("/api/v1/tasks", authMiddleware(handlers.Task.GetTasks))
	r.POST("/api/v1/tasks", authMiddleware(handlers.Task.CreateTask))
	r.PUT("/api/v1/tasks/reorder", authMiddleware(handlers.Task.Reorder))
	r.PUT("/api/v1/tasks/{id}", authMiddleware(handlers.Task.UpdateTask))
	r.DELETE("/api/v1/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))
	r.POST("/api/v1/tasks/{id}/start", authMiddleware(handlers.Task.StartTask))
	r.POST("/api/v1/tasks/{id}/complete", authMiddleware(handlers.Task.CompleteTask))
	r.POST("/api/v1/tasks/{id}/revert", authMiddleware(handlers.Task.RevertTask))
	r.GET("/api/v1/analytics", authMiddleware(handlers.Task.Stats))

	r.GET("/api/v1/users/search", authMiddleware(handlers.Social.Search))
	r.GET("/api/v1/friends", authMiddleware(handlers.Social.Friends))
	r.POST("/api/v1/friends/requests", authMiddleware(handlers.Social.SendRequest))
	r.POST("/api/v1/friends/requests/accept", authMiddleware(handlers.Social.AcceptRequest))
	r.GET("/api/v1/friends/progress", authMiddleware(handlers.Social.Progress))
	r.GET("/api/v1/leaderboard", authMiddleware(handlers.Social.Leaderboard))
	r.GET("/api/v1/messages/{peer}", authMiddleware(handlers.Social.ChatHistory))

	return r
}
