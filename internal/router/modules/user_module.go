package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/user-account-api/internal/interface/http"

	repo "github.com/oksasatya/user-account-api/internal/domain/repository"
	"github.com/oksasatya/user-account-api/internal/interface/middleware"
	"github.com/oksasatya/user-account-api/pkg/helpers"
)

// Module wires user HTTP handlers and the auth gate into routes.
// Public: POST /users, POST /users/login
// Authenticated: GET/PUT /users/profile
// Admin: GET /users, GET/PUT/DELETE /users/:id

type Module struct {
	Handler *handlers.UserHandler
	Users   repo.UserRepository
	JWT     *helpers.JWTManager
}

func New(h *handlers.UserHandler, users repo.UserRepository, jwt *helpers.JWTManager) *Module {
	return &Module{Handler: h, Users: users, JWT: jwt}
}

func (m *Module) Register(rg *gin.RouterGroup) {
	rg.POST("/users", m.Handler.Register)
	rg.POST("/users/login", m.Handler.Login)

	authenticate := middleware.Authenticate(m.Users, m.JWT, m.Handler.Logger)

	// Self-service, token required
	auth := rg.Group("/")
	auth.Use(authenticate)
	{
		auth.GET("/users/profile", m.Handler.GetProfile)
		auth.PUT("/users/profile", m.Handler.UpdateProfile)
	}

	// Admin management, token + admin flag required
	admin := rg.Group("/")
	admin.Use(authenticate, middleware.RequireAdmin())
	{
		admin.GET("/users", m.Handler.ListUsers)
		admin.GET("/users/:id", m.Handler.GetUser)
		admin.PUT("/users/:id", m.Handler.UpdateUser)
		admin.DELETE("/users/:id", m.Handler.DeleteUser)
	}
}
