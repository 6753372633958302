package handler

import (
	"io"
	"strings"

	"github.com/labstack/echo/v4"

	"rently/internal/domain/entity"
	"rently/internal/usecase"
	"rently/pkg/errors"
	"rently/pkg/logger"
	"rently/pkg/response"
	"rently/pkg/utils"
)

type MessageHandler struct {
	messageUseCase    *usecase.MessageUseCase
	threadUseCase     *usecase.ThreadUseCase
	attachmentUseCase *usecase.AttachmentUseCase
}

func NewMessageHandler(
	messageUseCase *usecase.MessageUseCase,
	threadUseCase *usecase.ThreadUseCase,
	attachmentUseCase *usecase.AttachmentUseCase,
) *MessageHandler {
	return &MessageHandler{
		messageUseCase:    messageUseCase,
		threadUseCase:     threadUseCase,
		attachmentUseCase: attachmentUseCase,
	}
}

type sendMessageRequest struct {
	ReceiverID string `json:"receiver_id" form:"receiver_id" validate:"required"`
	ListingID  string `json:"listing_id" form:"listing_id"`
	Text       string `json:"message_text" form:"message_text"`
}

// SendMessage accepts a JSON body for text-only sends and a multipart form
// (field "attachments", repeated) when files ride along.
func (h *MessageHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	attachments, dropped, err := h.readAttachments(c)
	if err != nil {
		return response.Error(c, err)
	}

	result, err := h.messageUseCase.SendMessage(c.Request().Context(), userID, usecase.SendInput{
		ReceiverID:  req.ReceiverID,
		ListingID:   req.ListingID,
		Text:        req.Text,
		Attachments: attachments,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, echo.Map{
		"messages":       result.Messages,
		"failed_uploads": result.FailedUploads,
		"dropped_files":  dropped.Total(),
	})
}

// readAttachments pulls the uploaded files from the multipart form (when
// there is one) and runs them through selection validation.
func (h *MessageHandler) readAttachments(c echo.Context) ([]*entity.Attachment, usecase.DropReport, error) {
	var report usecase.DropReport

	contentType := c.Request().Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/") {
		return nil, report, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, report, errors.BadRequest("Invalid multipart form", err)
	}

	var files []*entity.Attachment
	for _, header := range form.File["attachments"] {
		f, err := header.Open()
		if err != nil {
			return nil, report, errors.BadRequest("Unreadable attachment "+header.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, report, errors.BadRequest("Unreadable attachment "+header.Filename, err)
		}

		files = append(files, &entity.Attachment{
			Name: header.Filename,
			Type: header.Header.Get("Content-Type"),
			Size: header.Size,
			Data: data,
		})
	}

	accepted, report := h.attachmentUseCase.SelectFiles(0, files)
	if report.Total() > 0 {
		logger.Debug("SendMessage: dropped %d of %d uploaded files", report.Total(), len(files))
	}
	return accepted, report, nil
}

// GetThreads lists the caller's conversations, most recently active first.
func (h *MessageHandler) GetThreads(c echo.Context) error {
	userID := c.Get("uid").(string)

	threads, err := h.threadUseCase.ListThreads(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, threads)
}

// GetDirectHistory returns the unscoped conversation with another user.
func (h *MessageHandler) GetDirectHistory(c echo.Context) error {
	return h.history(c, "")
}

// GetListingHistory returns the conversation with another user scoped to one
// listing.
func (h *MessageHandler) GetListingHistory(c echo.Context) error {
	listingID := c.Param("listing_id")
	if listingID == "" {
		return response.Error(c, errors.BadRequest("listing_id is required", nil))
	}
	return h.history(c, listingID)
}

func (h *MessageHandler) history(c echo.Context, listingID string) error {
	userID := c.Get("uid").(string)

	otherID := c.Param("other_user_id")
	if otherID == "" {
		return response.Error(c, errors.BadRequest("other_user_id is required", nil))
	}

	// A zero limit lets the use case pick the per-view default; offset pages
	// backwards through older history.
	params := utils.GetPaginationParams(c, 0)

	messages, err := h.messageUseCase.FetchHistory(c.Request().Context(), userID, otherID, listingID, params.Limit, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}

// MarkRead marks one message as read on behalf of its receiver.
func (h *MessageHandler) MarkRead(c echo.Context) error {
	userID := c.Get("uid").(string)

	messageID := c.Param("id")
	if messageID == "" {
		return response.Error(c, errors.BadRequest("message id is required", nil))
	}

	if err := h.messageUseCase.MarkMessageRead(c.Request().Context(), userID, messageID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, echo.Map{"read": true})
}
