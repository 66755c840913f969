package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"blockEditor/backend/internal/collab"
	"blockEditor/backend/internal/store"
)

type DocumentHandler struct {
	svc *collab.Service
}

func NewDocumentHandler(svc *collab.Service) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

type normalizeRequest struct {
	HTML     string `json:"html"`
	Markdown string `json:"markdown"`
}

type createRequest struct {
	Title   string `json:"title" binding:"required"`
	Format  string `json:"format"`
	Content string `json:"content"`
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"code": status, "message": message})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, store.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, collab.ErrUnknownFormat):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Normalize html 与 markdown 二选一，markdown 优先
func (h *DocumentHandler) Normalize(c *gin.Context) {
	var req normalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	format, content := collab.FormatHTML, req.HTML
	if req.Markdown != "" {
		format, content = collab.FormatMarkdown, req.Markdown
	}
	html, err := h.svc.Normalize(format, content)
	if err != nil {
		abort(c, statusOf(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"html": html})
}

func (h *DocumentHandler) CreateDocument(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	// 从gin.Context获取用户信息；未开启鉴权时为 0
	ownerID := c.GetUint64("userId")
	doc, html, err := h.svc.CreateDocument(c.Request.Context(), ownerID, req.Title, req.Format, req.Content)
	if err != nil {
		log.Printf("create document error (owner=%d): %v", ownerID, err)
		abort(c, statusOf(err), "CREATE_DOC_FAILED")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"docId":     strconv.FormatUint(doc.ID, 10),
		"ownerId":   doc.OwnerID,
		"title":     doc.Title,
		"createdAt": doc.CreatedAt,
		"revision":  0,
		"html":      html,
	})
}

func (h *DocumentHandler) GetDocument(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("docID"), 10, 64)
	if err != nil {
		abort(c, http.StatusBadRequest, "invalid document id")
		return
	}
	doc, draft, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		if statusOf(err) == http.StatusInternalServerError {
			log.Printf("get document error (doc=%d): %v", id, err)
		}
		abort(c, statusOf(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"docId":     strconv.FormatUint(id, 10),
		"ownerId":   doc.OwnerID,
		"title":     doc.Title,
		"updatedAt": doc.UpdatedAt,
		"revision":  draft.Revision,
		"html":      draft.HTML,
	})
}
