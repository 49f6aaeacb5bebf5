package controller

import (
	"academic-rag-be/internal/dto"
	"academic-rag-be/internal/pkg/serverutils"
	"academic-rag-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Ingest(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
	Sources(ctx *fiber.Ctx) error
	Reindex(ctx *fiber.Ctx) error
	ReindexSource(ctx *fiber.Ctx) error
	DeleteSource(ctx *fiber.Ctx) error
}

type documentController struct {
	documentService service.IDocumentService
}

func NewDocumentController(documentService service.IDocumentService) IDocumentController {
	return &documentController{
		documentService: documentService,
	}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/document/v1")
	h.Get("stats", c.Stats)
	h.Get("sources", c.Sources)
	h.Post("reindex", c.Reindex)
	h.Post("reindex/:source", c.ReindexSource)
	h.Post("", c.Ingest)
	h.Delete(":source", c.DeleteSource)
}

func (c *documentController) Ingest(ctx *fiber.Ctx) error {
	var req dto.IngestDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.documentService.Ingest(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success queue document for indexing", res))
}

func (c *documentController) Stats(ctx *fiber.Ctx) error {
	res, err := c.documentService.Stats(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show document stats", res))
}

func (c *documentController) Sources(ctx *fiber.Ctx) error {
	res, err := c.documentService.ListSources(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list sources", res))
}

func (c *documentController) Reindex(ctx *fiber.Ctx) error {
	queued, err := c.documentService.Reindex(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success queue reindex", dto.ReindexResponse{QueuedDocuments: queued}))
}

func (c *documentController) ReindexSource(ctx *fiber.Ctx) error {
	source := ctx.Params("source")

	res, err := c.documentService.ReindexSource(ctx.Context(), source)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success queue source for reindex", res))
}

func (c *documentController) DeleteSource(ctx *fiber.Ctx) error {
	source := ctx.Params("source")

	if err := c.documentService.DeleteSource(ctx.Context(), source); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete source", nil))
}
