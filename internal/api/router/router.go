package router

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"resume-match-go/internal/api/handler"
)

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz, matchHandler *handler.MatchHandler, uploadHandler *handler.UploadHandler, telegramHandler *handler.TelegramHandler) {
	api := h.Group("/api/v1")

	api.POST("/match", matchHandler.HandleMatch)
	api.POST("/resume/upload", uploadHandler.HandleUpload)

	// Telegram webhook不走/api/v1前缀，方便单独配置反向代理
	if telegramHandler != nil {
		h.POST("/telegram/webhook", telegramHandler.HandleWebhook)
	}

	// 健康检查
	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})
}
