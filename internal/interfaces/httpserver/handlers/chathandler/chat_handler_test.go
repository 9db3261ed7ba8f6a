package chathandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tangent-server/internal/domain/conversation"
	"tangent-server/internal/utils/apperrors"
)

type stubResponder struct {
	reply       string
	err         error
	lastHistory []conversation.Turn
}

func (s *stubResponder) GenerateReply(ctx context.Context, history []conversation.Turn) (string, error) {
	s.lastHistory = history
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func newChatRouter(responder conversation.Responder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.POST("/v1/chat", NewChatHandler(responder).Chat)
	return engine
}

func postChat(t *testing.T, engine *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestChat(t *testing.T) {
	responder := &stubResponder{reply: "Paris"}
	engine := newChatRouter(responder)

	rec := postChat(t, engine, `{"messages":[{"role":"user","content":"capital of France?"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Paris", resp.Content)

	require.Len(t, responder.lastHistory, 1)
	assert.Equal(t, conversation.RoleUser, responder.lastHistory[0].Role)
}

func TestChat_PreservesHistoryOrder(t *testing.T) {
	responder := &stubResponder{reply: "ok"}
	engine := newChatRouter(responder)

	rec := postChat(t, engine, `{"messages":[
		{"role":"user","content":"first"},
		{"role":"assistant","content":"reply"},
		{"role":"user","content":"second"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, responder.lastHistory, 3)
	assert.Equal(t, conversation.RoleAssistant, responder.lastHistory[1].Role)
	assert.Equal(t, "second", responder.lastHistory[2].Content)
}

func TestChat_MissingMessages(t *testing.T) {
	engine := newChatRouter(&stubResponder{reply: "ok"})

	for _, body := range []string{`{}`, `{"messages":[]}`, `not json`} {
		rec := postChat(t, engine, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)
	}
}

func TestChat_RateLimited(t *testing.T) {
	responder := &stubResponder{err: apperrors.New(context.Background(), apperrors.LayerInfrastructure,
		apperrors.ErrorTypeRateLimited, "API rate limit exceeded", nil)}
	engine := newChatRouter(responder)

	rec := postChat(t, engine, `{"messages":[{"role":"user","content":"hi"}]}`)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", resp["code"])
}

func TestChat_ResponderFailure(t *testing.T) {
	responder := &stubResponder{err: apperrors.New(context.Background(), apperrors.LayerInfrastructure,
		apperrors.ErrorTypeResponder, "model invocation failed", nil)}
	engine := newChatRouter(responder)

	rec := postChat(t, engine, `{"messages":[{"role":"user","content":"hi"}]}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
