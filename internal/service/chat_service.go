package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"academic-rag-be/internal/constant"
	"academic-rag-be/internal/dto"
	"academic-rag-be/internal/entity"
	"academic-rag-be/internal/repository/memory"
	"academic-rag-be/internal/repository/specification"
	"academic-rag-be/internal/repository/unitofwork"
	"academic-rag-be/internal/websocket"
	"academic-rag-be/pkg/agent"
	"academic-rag-be/pkg/agent/trace"
	"academic-rag-be/pkg/events"
	"academic-rag-be/pkg/llm"
	"academic-rag-be/pkg/nats"
	"academic-rag-be/pkg/retrieval"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IChatService defines the conversational query interface
type IChatService interface {
	Chat(ctx context.Context, request *dto.ChatRequest, sinks ...trace.Sink) (*dto.ChatResponse, error)
	GetHistory(ctx context.Context, conversationId uuid.UUID) (*dto.ConversationHistoryResponse, error)
	ListConversations(ctx context.Context) ([]*dto.ConversationSummaryDTO, error)
	DeleteConversation(ctx context.Context, conversationId uuid.UUID) error
}

// chatService runs queries through the orchestration machine and owns
// conversation persistence around each run
type chatService struct {
	uowFactory    unitofwork.RepositoryFactory
	machine       *agent.Machine
	historyCache  *memory.HistoryCache
	wsHub         *websocket.Hub
	natsPublisher *nats.Publisher
	llmLogger     *log.Logger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.LLMProvider,
	searcher retrieval.Searcher,
	historyCache *memory.HistoryCache,
	wsHub *websocket.Hub,
	natsPublisher *nats.Publisher,
	agentCfg agent.Config,
) IChatService {

	llmLogger := initLLMLogger()
	machine := agent.NewMachine(agentCfg, llmProvider, searcher, llmLogger)

	return &chatService{
		uowFactory:    uowFactory,
		machine:       machine,
		historyCache:  historyCache,
		wsHub:         wsHub,
		natsPublisher: natsPublisher,
		llmLogger:     llmLogger,
	}
}

func initLLMLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "llm_rag.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[LLM-RAG] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}

// Chat answers one query. Extra sinks receive trace events live while the
// run executes; websocket watchers of the conversation are attached
// automatically. Messages persist only after a successful run, so a failed
// run leaves the conversation exactly as it was.
func (cs *chatService) Chat(ctx context.Context, request *dto.ChatRequest, sinks ...trace.Sink) (*dto.ChatResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	conversationId, conversation, err := cs.resolveConversation(ctx, uow, request.ConversationId)
	if err != nil {
		return nil, err
	}

	history, err := cs.loadHistory(ctx, uow, conversationId)
	if err != nil {
		return nil, err
	}

	opts := make([]agent.RunOption, 0, len(sinks)+1)
	for _, sink := range sinks {
		opts = append(opts, agent.WithSink(sink))
	}
	if cs.wsHub != nil {
		opts = append(opts, agent.WithSink(websocket.NewTraceRelay(cs.wsHub, conversationId)))
	}

	result, err := cs.machine.Run(ctx, request.Message, history, opts...)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	userMessage := &entity.ConversationMessage{
		Id:             uuid.New(),
		ConversationId: conversationId,
		Role:           constant.ChatMessageRoleUser,
		Content:        request.Message,
		CreatedAt:      now,
	}
	assistantMessage := &entity.ConversationMessage{
		Id:             uuid.New(),
		ConversationId: conversationId,
		Role:           constant.ChatMessageRoleAssistant,
		Content:        result.Answer,
		Citations:      citationsToEntity(result.Citations),
		RetryCount:     result.RetryCount,
		// Offset keeps created_at ordering stable within the exchange
		CreatedAt: now.Add(1 * time.Second),
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if conversation == nil {
		conversation = &entity.Conversation{
			Id:        conversationId,
			Title:     conversationTitle(request.Message),
			CreatedAt: now,
		}
		if err := uow.ConversationRepository().Create(ctx, conversation); err != nil {
			return nil, err
		}
	} else {
		// Touch updated_at so the conversation list sorts by recency
		if err := uow.ConversationRepository().Update(ctx, conversation); err != nil {
			return nil, err
		}
	}

	if err := uow.ConversationMessageRepository().Create(ctx, userMessage); err != nil {
		return nil, err
	}
	if err := uow.ConversationMessageRepository().Create(ctx, assistantMessage); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	cs.historyCache.Append(conversationId.String(),
		llm.Message{Role: constant.ChatMessageRoleUser, Content: request.Message},
		llm.Message{Role: constant.ChatMessageRoleAssistant, Content: result.Answer},
	)

	if cs.natsPublisher != nil {
		event := events.NewQueryAnswered(conversationId.String(), result.RetryCount, result.Elapsed.Seconds(), len(result.Citations))
		if err := cs.natsPublisher.Publish(ctx, event); err != nil {
			log.Printf("[WARN] Failed to publish QUERY_ANSWERED event: %v", err)
		}
	}

	response := &dto.ChatResponse{
		Answer:         result.Answer,
		Sources:        citationsToDTO(result.Citations),
		ConversationId: conversationId.String(),
		Timestamp:      time.Now(),
	}
	if request.IncludeTrace {
		response.Trace = result.Trace
	}

	return response, nil
}

// GetHistory returns the full stored transcript, oldest first.
func (cs *chatService) GetHistory(ctx context.Context, conversationId uuid.UUID) (*dto.ConversationHistoryResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: conversationId})
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, fmt.Errorf("conversation %s: %w", conversationId, gorm.ErrRecordNotFound)
	}

	messages, err := uow.ConversationMessageRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: conversationId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	messageDTOs := make([]dto.ConversationMessageDTO, 0, len(messages))
	for _, msg := range messages {
		messageDTOs = append(messageDTOs, dto.ConversationMessageDTO{
			Role:      msg.Role,
			Content:   msg.Content,
			Timestamp: msg.CreatedAt,
		})
	}

	return &dto.ConversationHistoryResponse{
		ConversationId: conversationId.String(),
		Messages:       messageDTOs,
		CreatedAt:      conversation.CreatedAt,
		UpdatedAt:      lastActivity(conversation),
	}, nil
}

// ListConversations returns every conversation, most recently active first.
func (cs *chatService) ListConversations(ctx context.Context) ([]*dto.ConversationSummaryDTO, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	conversations, err := uow.ConversationRepository().FindAll(ctx,
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	summaries := make([]*dto.ConversationSummaryDTO, 0, len(conversations))
	for _, conversation := range conversations {
		count, err := uow.ConversationMessageRepository().Count(ctx,
			specification.ByConversationID{ConversationID: conversation.Id},
		)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, &dto.ConversationSummaryDTO{
			ConversationId: conversation.Id.String(),
			MessageCount:   int(count),
			CreatedAt:      conversation.CreatedAt,
			UpdatedAt:      lastActivity(conversation),
		})
	}

	return summaries, nil
}

func (cs *chatService) DeleteConversation(ctx context.Context, conversationId uuid.UUID) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: conversationId})
	if err != nil {
		return err
	}
	if conversation == nil {
		return fmt.Errorf("conversation %s: %w", conversationId, gorm.ErrRecordNotFound)
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ConversationMessageRepository().DeleteByConversationId(ctx, conversationId); err != nil {
		return err
	}
	if err := uow.ConversationRepository().Delete(ctx, conversationId); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	cs.historyCache.Delete(conversationId.String())
	return nil
}

// resolveConversation maps the optional request id to a conversation. An
// unknown id is not an error: the conversation is created under that id
// when the run succeeds, so clients may mint ids up front.
func (cs *chatService) resolveConversation(ctx context.Context, uow unitofwork.UnitOfWork, requestId string) (uuid.UUID, *entity.Conversation, error) {
	if requestId == "" {
		return uuid.New(), nil, nil
	}

	conversationId, err := uuid.Parse(requestId)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("invalid conversation id %q: %w", requestId, err)
	}

	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: conversationId})
	if err != nil {
		return uuid.Nil, nil, err
	}
	return conversationId, conversation, nil
}

// loadHistory returns the prior transcript as model messages, reading
// through the cache. The machine applies its own window.
func (cs *chatService) loadHistory(ctx context.Context, uow unitofwork.UnitOfWork, conversationId uuid.UUID) ([]llm.Message, error) {
	if history, found := cs.historyCache.Get(conversationId.String()); found {
		return history, nil
	}

	messages, err := uow.ConversationMessageRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: conversationId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, nil
	}

	history := make([]llm.Message, 0, len(messages))
	for _, msg := range messages {
		history = append(history, llm.Message{Role: msg.Role, Content: msg.Content})
	}

	cs.historyCache.Put(conversationId.String(), history)
	return history, nil
}

func conversationTitle(message string) string {
	runes := []rune(strings.TrimSpace(message))
	if len(runes) > 80 {
		return string(runes[:80]) + "..."
	}
	return string(runes)
}

func lastActivity(conversation *entity.Conversation) time.Time {
	if conversation.UpdatedAt != nil {
		return *conversation.UpdatedAt
	}
	return conversation.CreatedAt
}

func citationsToEntity(citations []trace.Citation) []entity.MessageCitation {
	if len(citations) == 0 {
		return nil
	}
	out := make([]entity.MessageCitation, 0, len(citations))
	for _, c := range citations {
		out = append(out, entity.MessageCitation{
			Document:   c.Document,
			Source:     c.Source,
			Similarity: c.Similarity,
		})
	}
	return out
}

func citationsToDTO(citations []trace.Citation) []dto.SourceDTO {
	sources := make([]dto.SourceDTO, 0, len(citations))
	for _, c := range citations {
		sources = append(sources, dto.SourceDTO{
			Document:   c.Document,
			Source:     c.Source,
			Similarity: c.Similarity,
		})
	}
	return sources
}
