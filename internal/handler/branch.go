package handler

import (
	"net/http"

	"branchdesk/internal/models"
	"branchdesk/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BranchHandler interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	Members(c *gin.Context)
	Alumni(c *gin.Context)
}

type branchHandler struct {
	branches service.BranchService
	logger   *zap.Logger
}

func NewBranchHandler(branches service.BranchService, logger *zap.Logger) BranchHandler {
	return &branchHandler{branches: branches, logger: logger}
}

func (h *branchHandler) List(c *gin.Context) {
	branches, err := h.branches.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, branches)
}

func (h *branchHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	branch, err := h.branches.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, branch)
}

func (h *branchHandler) Create(c *gin.Context) {
	var req models.CreateBranchInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	branch, err := h.branches.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, branch)
}

func (h *branchHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req models.UpdateBranchInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	branch, err := h.branches.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, branch)
}

func (h *branchHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.branches.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Branch deleted"})
}

func (h *branchHandler) Members(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	users, err := h.branches.Members(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *branchHandler) Alumni(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	records, err := h.branches.Alumni(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, records)
}
