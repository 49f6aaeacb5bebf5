package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"academic-rag-be/internal/dto"
	"academic-rag-be/internal/pkg/serverutils"
	"academic-rag-be/internal/service"
	"academic-rag-be/pkg/agent"
	"academic-rag-be/pkg/agent/trace"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
	Stream(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	DeleteHistory(ctx *fiber.Ctx) error
	Conversations(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Get("stream", c.Stream)
	h.Get("conversations", c.Conversations)
	h.Post("", c.Chat)
	h.Get("history/:id", c.History)
	h.Delete("history/:id", c.DeleteHistory)
}

func (c *chatController) Chat(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.chatService.Chat(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success process chat", res))
}

// Stream runs one query and emits its trace events as server-sent events,
// one `data:` frame per event, ending after the done frame.
func (c *chatController) Stream(ctx *fiber.Ctx) error {
	req := dto.ChatRequest{
		Message:        ctx.Query("message"),
		ConversationId: ctx.Query("conversation_id"),
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")

	// The run outlives this handler: fasthttp invokes the writer after the
	// handler returns, so the request ctx must not be captured below.
	sink := trace.NewChannelSink(trace.DefaultChannelBuffer)

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		go func() {
			if _, err := c.chatService.Chat(context.Background(), &req, sink); err != nil {
				var orchErr *agent.OrchestrationError
				if !errors.As(err, &orchErr) {
					// The run never started, so no terminal frames were
					// emitted; synthesize them for the stream contract.
					errEv := trace.NewError("chat", "The request could not be processed. Please try again.")
					errEv.Timestamp = time.Now()
					sink.Write(errEv)
					doneEv := trace.NewDone(false, 0, 0)
					doneEv.Timestamp = time.Now()
					sink.Write(doneEv)
				}
				sink.Close()
			}
		}()

		for ev := range sink.Events() {
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			if err := w.Flush(); err != nil {
				// Client went away; the run finishes and persists on its own
				return
			}
		}
	}))

	return nil
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid conversation ID format")
	}

	res, err := c.chatService.GetHistory(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show conversation history", res))
}

func (c *chatController) DeleteHistory(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid conversation ID format")
	}

	if err := c.chatService.DeleteConversation(ctx.Context(), id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete conversation", nil))
}

func (c *chatController) Conversations(ctx *fiber.Ctx) error {
	res, err := c.chatService.ListConversations(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list conversations", res))
}
