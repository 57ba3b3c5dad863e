package controllers

import (
	"github.com/afterschool/sessions-api/internal/app/models/dto"
	"github.com/afterschool/sessions-api/internal/app/services"
	"github.com/afterschool/sessions-api/internal/middleware"
	"github.com/gin-gonic/gin"
)

// BlockController handles term and special block endpoints
type BlockController struct {
	blockService services.BlockService
}

// NewBlockController creates a new BlockController
func NewBlockController(blockService services.BlockService) *BlockController {
	return &BlockController{blockService: blockService}
}

type blockListQuery struct {
	Year *int `form:"year" binding:"omitempty,min=2000,max=2100"`
}

// ListBlocks handles GET /admin/blocks?year=
func (c *BlockController) ListBlocks(ctx *gin.Context) {
	var query blockListQuery
	if !middleware.BindQuery(ctx, &query) {
		return
	}

	blocks, err := c.blockService.List(ctx.Request.Context(), query.Year)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.NewBlockResponses(blocks))
}

// GetBlock handles GET /admin/blocks/:id
func (c *BlockController) GetBlock(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Block")
	if !ok {
		return
	}

	block, err := c.blockService.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.NewBlockResponse(block))
}

// CreateBlock handles POST /admin/blocks
func (c *BlockController) CreateBlock(ctx *gin.Context) {
	var req dto.CreateBlockRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	block, err := c.blockService.Create(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, dto.NewBlockResponse(block))
}

// UpdateBlock handles PATCH /admin/blocks/:id
func (c *BlockController) UpdateBlock(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Block")
	if !ok {
		return
	}
	var req dto.UpdateBlockRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	block, err := c.blockService.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.NewBlockResponse(block))
}
