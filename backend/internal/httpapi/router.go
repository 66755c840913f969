package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"blockEditor/backend/internal/httpapi/handlers"
	"blockEditor/backend/internal/httpapi/middleware"
	"blockEditor/backend/internal/ws"
)

// NewRouter secret 为空时接口不鉴权
func NewRouter(secret string, docs *handlers.DocumentHandler, manager *ws.Manager) *gin.Engine {
	r := gin.New()
	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		// 允许任意来源（包含 file:// 场景的 Origin: null）
		AllowOriginFunc:  func(origin string) bool { return true },
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	v1 := r.Group("/v1")
	v1.Use(middleware.AuthMiddleware(secret))
	v1.POST("/documents/normalize", docs.Normalize)
	v1.POST("/documents", docs.CreateDocument)
	v1.GET("/documents/:docID", docs.GetDocument)
	v1.GET("/editor/ws", manager.WebSocketConnect)
	return r
}
