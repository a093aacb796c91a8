package handler

import (
	"net/http"

	"investment_tracker/internal/model"
	"investment_tracker/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler handles investor registration and management
type UserHandler struct {
	service service.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(s service.UserService) *UserHandler {
	return &UserHandler{service: s}
}

func (h *UserHandler) RegisterUser(c *gin.Context) {
	var req model.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	user, res, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "register user")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user,
		"sms":     res,
	})
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err, "retrieve users")
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "retrieve user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req model.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	user, err := h.service.UpdateUser(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err, "update user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.service.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "delete user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User and related investments deleted successfully"})
}

// RegisterUserRoutes registers user routes. Reads need a viewer, writes an admin.
func (h *UserHandler) RegisterUserRoutes(rg *gin.RouterGroup, authMW, viewerMW, adminMW gin.HandlerFunc) {
	users := rg.Group("/users")
	users.Use(authMW)
	{
		users.GET("", viewerMW, h.ListUsers)
		users.GET("/:id", viewerMW, h.GetUser)
		users.POST("", adminMW, h.RegisterUser)
		users.PUT("/:id", adminMW, h.UpdateUser)
		users.DELETE("/:id", adminMW, h.DeleteUser)
	}
}
