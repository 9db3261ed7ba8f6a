package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tangent-server/internal/utils/apperrors"
)

type messageServiceFixture struct {
	convRepo    *mockConversationRepository
	branchRepo  *mockBranchRepository
	messageRepo *mockMessageRepository
	responder   *mockResponder
	svc         *MessageService

	conversation *Conversation
	root         *Branch
}

func newMessageServiceFixture(t *testing.T) *messageServiceFixture {
	t.Helper()

	convRepo := newMockConversationRepository()
	branchRepo := newMockBranchRepository()
	messageRepo := newMockMessageRepository()
	responder := &mockResponder{reply: "the capital is Paris"}

	conv, root, err := NewBranchService(convRepo, branchRepo).CreateConversation(context.Background(), uuid.New())
	require.NoError(t, err)

	return &messageServiceFixture{
		convRepo:     convRepo,
		branchRepo:   branchRepo,
		messageRepo:  messageRepo,
		responder:    responder,
		svc:          NewMessageService(convRepo, branchRepo, messageRepo, responder),
		conversation: conv,
		root:         root,
	}
}

func (f *messageServiceFixture) branchMessages(t *testing.T, branchID uuid.UUID) []*Message {
	t.Helper()
	messages, err := f.messageRepo.FindByFilter(context.Background(), MessageFilter{
		ConversationID: &f.conversation.ID,
		BranchID:       &branchID,
	})
	require.NoError(t, err)
	return messages
}

func TestSendMessage(t *testing.T) {
	f := newMessageServiceFixture(t)

	ex, err := f.svc.SendMessage(context.Background(), f.conversation.ID, f.root.ID, "what is the capital of France?", nil)
	require.NoError(t, err)

	assert.Equal(t, RoleUser, ex.UserMessage.Role)
	assert.Nil(t, ex.UserMessage.ParentID)
	assert.Equal(t, RoleAssistant, ex.AssistantMessage.Role)
	require.NotNil(t, ex.AssistantMessage.ParentID)
	assert.Equal(t, ex.UserMessage.ID, *ex.AssistantMessage.ParentID)
	assert.Equal(t, "the capital is Paris", ex.AssistantMessage.Content)

	// both messages persisted
	assert.Len(t, f.branchMessages(t, f.root.ID), 2)

	// titles derived from the user content
	conv, err := f.convRepo.FindByID(context.Background(), f.conversation.ID)
	require.NoError(t, err)
	assert.Equal(t, "what is the capital of France?", conv.Title)

	// responder saw exactly the new turn
	require.Len(t, f.responder.histories, 1)
	require.Len(t, f.responder.histories[0], 1)
	assert.Equal(t, Turn{Role: RoleUser, Content: "what is the capital of France?"}, f.responder.histories[0][0])
}

func TestSendMessage_ChainsOntoHistory(t *testing.T) {
	f := newMessageServiceFixture(t)

	first, err := f.svc.SendMessage(context.Background(), f.conversation.ID, f.root.ID, "first question", nil)
	require.NoError(t, err)

	history := f.branchMessages(t, f.root.ID)
	second, err := f.svc.SendMessage(context.Background(), f.conversation.ID, f.root.ID, "follow up", history)
	require.NoError(t, err)

	require.NotNil(t, second.UserMessage.ParentID)
	assert.Equal(t, first.AssistantMessage.ID, *second.UserMessage.ParentID)

	// the second responder call carries the full branch history
	require.Len(t, f.responder.histories, 2)
	require.Len(t, f.responder.histories[1], 3)
	assert.Equal(t, "first question", f.responder.histories[1][0].Content)
	assert.Equal(t, "the capital is Paris", f.responder.histories[1][1].Content)
	assert.Equal(t, "follow up", f.responder.histories[1][2].Content)
}

func TestSendMessage_EmptyContent(t *testing.T) {
	f := newMessageServiceFixture(t)

	_, err := f.svc.SendMessage(context.Background(), f.conversation.ID, f.root.ID, "", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	assert.Empty(t, f.branchMessages(t, f.root.ID))
}

func TestSendMessage_NoActiveBranch(t *testing.T) {
	f := newMessageServiceFixture(t)

	_, err := f.svc.SendMessage(context.Background(), f.conversation.ID, uuid.Nil, "hello", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestSendMessage_ResponderFailureRetractsUserMessage(t *testing.T) {
	f := newMessageServiceFixture(t)
	f.responder.err = errors.New("upstream exploded")

	_, err := f.svc.SendMessage(context.Background(), f.conversation.ID, f.root.ID, "hello", nil)
	require.Error(t, err)

	// the user message must not linger as an unanswered question
	assert.Empty(t, f.branchMessages(t, f.root.ID))

	// titles untouched
	conv, findErr := f.convRepo.FindByID(context.Background(), f.conversation.ID)
	require.NoError(t, findErr)
	assert.Equal(t, DefaultConversationTitle, conv.Title)
}

func TestSendMessage_RateLimitSurfaces(t *testing.T) {
	f := newMessageServiceFixture(t)
	f.responder.err = apperrors.New(context.Background(), apperrors.LayerInfrastructure,
		apperrors.ErrorTypeRateLimited, "API rate limit exceeded", nil)

	_, err := f.svc.SendMessage(context.Background(), f.conversation.ID, f.root.ID, "hello", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeRateLimited))
	assert.Empty(t, f.branchMessages(t, f.root.ID))
}

func TestSendMessage_AssistantPersistFailureRetracts(t *testing.T) {
	f := newMessageServiceFixture(t)
	f.messageRepo.createErr = errors.New("disk full")
	f.messageRepo.failOnRole = RoleAssistant

	_, err := f.svc.SendMessage(context.Background(), f.conversation.ID, f.root.ID, "hello", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypePersistence))
	assert.Empty(t, f.branchMessages(t, f.root.ID))
}

func TestEditMessageIntoNewBranch(t *testing.T) {
	f := newMessageServiceFixture(t)

	seed, err := f.svc.SendMessage(context.Background(), f.conversation.ID, f.root.ID, "original question", nil)
	require.NoError(t, err)

	branch, ex, err := f.svc.EditMessageIntoNewBranch(context.Background(), seed.UserMessage, "rephrased question")
	require.NoError(t, err)

	assert.False(t, branch.IsRoot())
	require.NotNil(t, branch.ParentBranchID)
	assert.Equal(t, f.root.ID, *branch.ParentBranchID)
	assert.Equal(t, "rephrased question", branch.DisplayTitle())

	// the edited copy points back at the message it replaces
	require.NotNil(t, ex.UserMessage.ParentID)
	assert.Equal(t, seed.UserMessage.ID, *ex.UserMessage.ParentID)
	assert.Equal(t, branch.ID, ex.UserMessage.BranchID)

	// fresh context: the responder saw only the edited message
	lastHistory := f.responder.histories[len(f.responder.histories)-1]
	require.Len(t, lastHistory, 1)
	assert.Equal(t, Turn{Role: RoleUser, Content: "rephrased question"}, lastHistory[0])

	// the origin branch is untouched
	assert.Len(t, f.branchMessages(t, f.root.ID), 2)
	assert.Len(t, f.branchMessages(t, branch.ID), 2)
}

func TestEditMessageIntoNewBranch_LongContentTruncatesTitle(t *testing.T) {
	f := newMessageServiceFixture(t)

	seed, err := f.svc.SendMessage(context.Background(), f.conversation.ID, f.root.ID, "original", nil)
	require.NoError(t, err)

	branch, _, err := f.svc.EditMessageIntoNewBranch(context.Background(), seed.UserMessage,
		"an edited message that is quite long")
	require.NoError(t, err)
	assert.Equal(t, "an edited message...", branch.DisplayTitle())
}

func TestEditMessageIntoNewBranch_EmptyContent(t *testing.T) {
	f := newMessageServiceFixture(t)

	seed, err := f.svc.SendMessage(context.Background(), f.conversation.ID, f.root.ID, "original", nil)
	require.NoError(t, err)

	_, _, err = f.svc.EditMessageIntoNewBranch(context.Background(), seed.UserMessage, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestEditMessageIntoNewBranch_ResponderFailureLeavesPartialBranch(t *testing.T) {
	f := newMessageServiceFixture(t)

	seed, err := f.svc.SendMessage(context.Background(), f.conversation.ID, f.root.ID, "original", nil)
	require.NoError(t, err)

	f.responder.err = errors.New("upstream exploded")
	_, _, err = f.svc.EditMessageIntoNewBranch(context.Background(), seed.UserMessage, "edited")
	require.Error(t, err)

	// writes are best-effort sequential: the branch and edited message remain
	branches, listErr := f.branchRepo.FindByFilter(context.Background(), BranchFilter{ConversationID: &f.conversation.ID})
	require.NoError(t, listErr)
	assert.Len(t, branches, 2)
}
