package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rently/internal/adapter/api"
	"rently/internal/domain/entity"
	"rently/internal/usecase"
	apperrors "rently/pkg/errors"
)

type stubMessageRepo struct {
	mu       sync.Mutex
	messages []*entity.Message
	nextID   int
	now      time.Time
}

func newStubMessageRepo() *stubMessageRepo {
	return &stubMessageRepo{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (r *stubMessageRepo) Create(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	message.ID = fmt.Sprintf("msg-%d", r.nextID)
	r.now = r.now.Add(time.Second)
	message.CreatedAt = r.now
	stored := *message
	r.messages = append(r.messages, &stored)
	return nil
}

func (r *stubMessageRepo) ListByPair(ctx context.Context, userA, userB, listingID string, limit, offset int) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Message
	for _, m := range r.messages {
		if !m.InvolvedWith(userA, userB) {
			continue
		}
		if listingID != "" && m.ListingID != listingID {
			continue
		}
		copied := *m
		out = append(out, &copied)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[:len(out)-offset]
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *stubMessageRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Message
	for _, m := range r.messages {
		if m.SenderID != userID && m.ReceiverID != userID {
			continue
		}
		copied := *m
		out = append(out, &copied)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *stubMessageRepo) MarkRead(ctx context.Context, receiverID string, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	at := r.now.Add(time.Minute)
	for _, m := range r.messages {
		if m.ReceiverID != receiverID || m.ReadAt != nil {
			continue
		}
		for _, id := range ids {
			if m.ID == id {
				t := at
				m.ReadAt = &t
			}
		}
	}
	return nil
}

func (r *stubMessageRepo) GetByID(ctx context.Context, id string) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.ID == id {
			copied := *m
			return &copied, nil
		}
	}
	return nil, apperrors.NotFound("Message", nil)
}

type stubProfileRepo struct{}

func (stubProfileRepo) GetByID(ctx context.Context, id string) (*entity.Profile, error) {
	if strings.HasPrefix(id, "user-") {
		return &entity.Profile{ID: id, Name: "Name of " + id}, nil
	}
	return nil, apperrors.NotFound("User", nil)
}

type stubUploader struct{}

func (stubUploader) Upload(ctx context.Context, bucket, path, contentType string, data []byte) (string, error) {
	return "https://storage.googleapis.com/" + bucket + "/" + path, nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, message *entity.Message) error { return nil }

func newTestHandler(repo *stubMessageRepo) *MessageHandler {
	attachments := usecase.NewAttachmentUseCase(stubUploader{}, "private", "public", 0, 0)
	messages := usecase.NewMessageUseCase(repo, stubProfileRepo{}, attachments, nopPublisher{})
	threads := usecase.NewThreadUseCase(repo, stubProfileRepo{})
	return NewMessageHandler(messages, threads, attachments)
}

func newTestContext(e *echo.Echo, method, target, body string, userID string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("uid", userID)
	return c, rec
}

func TestSendMessageEndpoint(t *testing.T) {
	e := echo.New()
	e.Validator = api.NewValidator()
	h := newTestHandler(newStubMessageRepo())

	body := `{"receiver_id":"user-bob","message_text":"hello **there**"}`
	c, rec := newTestContext(e, http.MethodPost, "/v1/messages", body, "user-alice")

	require.NoError(t, h.SendMessage(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			Messages []entity.Message `json:"messages"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	require.Len(t, envelope.Data.Messages, 1)
	assert.Equal(t, "hello **there**", envelope.Data.Messages[0].Text)
	assert.Equal(t, "hello <strong>there</strong>", envelope.Data.Messages[0].FormattedHTML)
}

func TestSendMessageEndpointRequiresReceiver(t *testing.T) {
	e := echo.New()
	e.Validator = api.NewValidator()
	h := newTestHandler(newStubMessageRepo())

	c, rec := newTestContext(e, http.MethodPost, "/v1/messages", `{"message_text":"hi"}`, "user-alice")

	require.NoError(t, h.SendMessage(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestGetThreadsEndpoint(t *testing.T) {
	e := echo.New()
	e.Validator = api.NewValidator()
	repo := newStubMessageRepo()
	h := newTestHandler(repo)

	sendBody := `{"receiver_id":"user-alice","message_text":"hi alice"}`
	c, rec := newTestContext(e, http.MethodPost, "/v1/messages", sendBody, "user-bob")
	require.NoError(t, h.SendMessage(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	c, rec = newTestContext(e, http.MethodGet, "/v1/messages/threads", "", "user-alice")
	require.NoError(t, h.GetThreads(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data []entity.Thread `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "user-bob", envelope.Data[0].OtherUserID)
	assert.Equal(t, 1, envelope.Data[0].UnreadCount)
	assert.Equal(t, "hi alice", envelope.Data[0].LastMessage)
}

func TestDirectHistoryEndpointMarksRead(t *testing.T) {
	e := echo.New()
	e.Validator = api.NewValidator()
	repo := newStubMessageRepo()
	h := newTestHandler(repo)

	sendBody := `{"receiver_id":"user-alice","message_text":"unread until viewed"}`
	c, _ := newTestContext(e, http.MethodPost, "/v1/messages", sendBody, "user-bob")
	require.NoError(t, h.SendMessage(c))

	c, rec := newTestContext(e, http.MethodGet, "/v1/messages/direct/user-bob", "", "user-alice")
	c.SetParamNames("other_user_id")
	c.SetParamValues("user-bob")
	require.NoError(t, h.GetDirectHistory(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, repo.messages, 1)
	assert.NotNil(t, repo.messages[0].ReadAt)
}

func TestDirectHistoryEndpointHonorsLimitAndOffset(t *testing.T) {
	e := echo.New()
	e.Validator = api.NewValidator()
	repo := newStubMessageRepo()
	h := newTestHandler(repo)

	for _, text := range []string{"one", "two", "three"} {
		body := fmt.Sprintf(`{"receiver_id":"user-alice","message_text":%q}`, text)
		c, _ := newTestContext(e, http.MethodPost, "/v1/messages", body, "user-bob")
		require.NoError(t, h.SendMessage(c))
	}

	c, rec := newTestContext(e, http.MethodGet, "/v1/messages/direct/user-bob?limit=2&offset=2", "", "user-alice")
	c.SetParamNames("other_user_id")
	c.SetParamValues("user-bob")
	require.NoError(t, h.GetDirectHistory(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data []entity.Message `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "one", envelope.Data[0].Text)
}

func TestMarkReadEndpointForbiddenForSender(t *testing.T) {
	e := echo.New()
	e.Validator = api.NewValidator()
	repo := newStubMessageRepo()
	h := newTestHandler(repo)

	sendBody := `{"receiver_id":"user-bob","message_text":"hi"}`
	c, _ := newTestContext(e, http.MethodPost, "/v1/messages", sendBody, "user-alice")
	require.NoError(t, h.SendMessage(c))
	require.Len(t, repo.messages, 1)

	c, rec := newTestContext(e, http.MethodPatch, "/v1/messages/msg-1/read", "", "user-alice")
	c.SetParamNames("id")
	c.SetParamValues("msg-1")
	require.NoError(t, h.MarkRead(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
