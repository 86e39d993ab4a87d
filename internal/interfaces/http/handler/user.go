package handler

import (
	"github.com/gin-gonic/gin"
	appidentity "github.com/odyssey/backend/internal/application/identity"
)

// UserHandler handles public user lookups
type UserHandler struct {
	BaseHandler
	userService *appidentity.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *appidentity.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// CheckUsername godoc
// @ID           checkUsername
// @Summary      Check username availability
// @Description  Validate a username (length 3 to 30, then letters, digits and underscores) and report whether it is free
// @Tags         users
// @Produce      json
// @Param        username path string true "Candidate username"
// @Success      200 {object} APIResponse[appidentity.UsernameAvailability]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /user/check-username/{username} [get]
func (h *UserHandler) CheckUsername(c *gin.Context) {
	result, err := h.userService.CheckUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result, "")
}
