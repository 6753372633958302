package handler

import (
	"github.com/labstack/echo/v4"

	"rently/internal/usecase"
	"rently/pkg/errors"
	"rently/pkg/response"
)

type SavedHandler struct {
	savedUseCase *usecase.SavedItemsUseCase
}

func NewSavedHandler(savedUseCase *usecase.SavedItemsUseCase) *SavedHandler {
	return &SavedHandler{savedUseCase: savedUseCase}
}

func (h *SavedHandler) ListSaved(c echo.Context) error {
	ids := h.savedUseCase.List(c.Request().Context())
	if ids == nil {
		ids = []string{}
	}
	return response.Success(c, echo.Map{"listing_ids": ids})
}

func (h *SavedHandler) ToggleSaved(c echo.Context) error {
	listingID := c.Param("listing_id")
	if listingID == "" {
		return response.Error(c, errors.BadRequest("listing_id is required", nil))
	}

	saved := h.savedUseCase.Toggle(c.Request().Context(), listingID)
	return response.Success(c, echo.Map{"listing_id": listingID, "saved": saved})
}
