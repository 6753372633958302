package handler

import (
	"github.com/labstack/echo/v4"

	"rently/internal/usecase"
	"rently/pkg/response"
)

type SessionHandler struct {
	sessionUseCase *usecase.SessionUseCase
}

func NewSessionHandler(sessionUseCase *usecase.SessionUseCase) *SessionHandler {
	return &SessionHandler{sessionUseCase: sessionUseCase}
}

func (h *SessionHandler) GetSession(c echo.Context) error {
	userID := c.Get("uid").(string)

	entry, err := h.sessionUseCase.Get(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, entry)
}

func (h *SessionHandler) SignOut(c echo.Context) error {
	h.sessionUseCase.SignOut(c.Request().Context())
	return response.Success(c, echo.Map{"signed_out": true})
}
