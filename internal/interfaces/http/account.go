package http

import (
	"errors"
	"net/http"

	identity "github.com/lidne/stockexchange/internal/domain/entity/identity"

	"github.com/gin-gonic/gin"
)

const (
	msgRegistered   = "User registered successfully"
	msgRoleAdded    = "Role added successfully"
	msgRoleAssigned = "Role assigned successfully"
)

// register creates a broker account
// @Summary      Register broker
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        credentials  body      credentialsPayload  true  "Username and password"
// @Success      200          {object}  messageResponse
// @Failure      400          {object}  errorResponse
// @Failure      500          {object}  errorResponse
// @Router       /account/register [post]
func (h *Handler) register(c *gin.Context) {
	var payload credentialsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	if err := h.accounts.Register(c.Request.Context(), payload.Username, payload.Password); err != nil {
		h.writeAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: msgRegistered})
}

// addRole creates a role
// @Summary      Add role
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        role  body      rolePayload  true  "Role name"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /account/add-role [post]
func (h *Handler) addRole(c *gin.Context) {
	var payload rolePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	if err := h.accounts.AddRole(c.Request.Context(), payload.Role); err != nil {
		h.writeAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: msgRoleAdded})
}

// assignRole grants a role to a broker
// @Summary      Assign role
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        assignment  body      brokerRolePayload  true  "Broker and role"
// @Success      200         {object}  messageResponse
// @Failure      400         {object}  errorResponse
// @Failure      500         {object}  errorResponse
// @Router       /account/assign-role [post]
func (h *Handler) assignRole(c *gin.Context) {
	var payload brokerRolePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	if err := h.accounts.AssignRole(c.Request.Context(), payload.Username, payload.Role); err != nil {
		h.writeAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: msgRoleAssigned})
}

// login exchanges credentials for a bearer token
// @Summary      Login
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        credentials  body      credentialsPayload  true  "Username and password"
// @Success      200          {object}  accounts.Token
// @Failure      400          {object}  errorResponse
// @Failure      401          {object}  errorResponse
// @Failure      500          {object}  errorResponse
// @Router       /account/login [post]
func (h *Handler) login(c *gin.Context) {
	var payload credentialsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	token, err := h.accounts.Login(c.Request.Context(), payload.Username, payload.Password)
	if err != nil {
		h.writeAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

func (h *Handler) writeAccountError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		writeError(c, http.StatusUnauthorized, err)
	case errors.Is(err, identity.ErrRoleExists):
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Role already exists"})
	case errors.Is(err, identity.ErrBrokerNotFound):
		c.JSON(http.StatusBadRequest, errorResponse{Error: "User not found"})
	case errors.Is(err, identity.ErrRoleNotFound),
		errors.Is(err, identity.ErrBrokerExists),
		errors.Is(err, identity.ErrPasswordTooShort),
		errors.Is(err, identity.ErrUsernameRequired),
		errors.Is(err, identity.ErrRoleNameRequired):
		writeError(c, http.StatusBadRequest, err)
	default:
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("account request failed")
		writeError(c, http.StatusInternalServerError, err)
	}
}
