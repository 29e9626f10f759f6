package handler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"

	"resume-match-go/internal/logger"
	"resume-match-go/internal/parser"
	"resume-match-go/internal/pipeline"
	"resume-match-go/internal/telegram"
	"resume-match-go/internal/types"
)

const helpText = "简历匹配机器人用法：\n" +
	"• 发送PDF简历文件即可入库\n" +
	"• 直接发送职位描述文本即可匹配候选人\n" +
	"• /list 查看已入库的简历\n" +
	"• /stats 查看各岗位的简历数量\n" +
	"• /help 显示本说明"

// TelegramHandler Telegram webhook处理器。业务层面的失败（重复上传、
// 非PDF、无匹配）都渲染成聊天消息回给用户，HTTP层一律返回200，
// 避免Telegram对webhook做重试风暴。
type TelegramHandler struct {
	client  *telegram.Client
	ingest  Ingestor
	matches *MatchService
	records ResumeLister
}

// NewTelegramHandler 创建webhook处理器
func NewTelegramHandler(client *telegram.Client, ingest Ingestor, matches *MatchService, records ResumeLister) *TelegramHandler {
	return &TelegramHandler{
		client:  client,
		ingest:  ingest,
		matches: matches,
		records: records,
	}
}

// HandleWebhook 处理 POST /telegram/webhook
func (h *TelegramHandler) HandleWebhook(ctx context.Context, c *app.RequestContext) {
	// 每个update一个请求ID，一条消息触发的摄入/匹配日志串起来
	reqLog := logger.Ctx(ctx).With().Str("request_id", uuid.NewString()).Logger()
	ctx = reqLog.WithContext(ctx)

	var update telegram.Update
	if err := c.BindAndValidate(&update); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("webhook请求体解析失败")
		c.JSON(consts.StatusOK, utils.H{"ok": true})
		return
	}

	if update.Message != nil {
		h.handleMessage(ctx, update.Message)
	}
	c.JSON(consts.StatusOK, utils.H{"ok": true})
}

func (h *TelegramHandler) handleMessage(ctx context.Context, msg *telegram.Message) {
	chatID := msg.Chat.ID

	switch {
	case msg.Document != nil:
		h.handleDocument(ctx, msg)
	case strings.HasPrefix(msg.Text, "/"):
		h.handleCommand(ctx, chatID, msg.Text)
	case strings.TrimSpace(msg.Text) != "":
		h.handleJobDescription(ctx, chatID, msg.Text)
	default:
		h.reply(ctx, chatID, helpText)
	}
}

func (h *TelegramHandler) handleCommand(ctx context.Context, chatID int64, text string) {
	command := strings.ToLower(strings.Fields(text)[0])
	// 群聊里命令可能带@botname后缀
	if idx := strings.Index(command, "@"); idx > 0 {
		command = command[:idx]
	}

	switch command {
	case "/start", "/help":
		h.reply(ctx, chatID, helpText)
	case "/upload":
		h.reply(ctx, chatID, "请直接把PDF格式的简历文件发给我。")
	case "/list":
		h.handleList(ctx, chatID)
	case "/stats":
		h.handleStats(ctx, chatID)
	default:
		h.reply(ctx, chatID, "未知命令，发送 /help 查看用法。")
	}
}

func (h *TelegramHandler) handleList(ctx context.Context, chatID int64) {
	records, err := h.records.ListResumeRecords(ctx)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("查询简历列表失败")
		h.reply(ctx, chatID, "查询简历列表失败，请稍后重试。")
		return
	}
	if len(records) == 0 {
		h.reply(ctx, chatID, "简历库是空的，先发一份PDF简历给我吧。")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "已入库 %d 份简历：\n", len(records))
	for _, r := range records {
		fmt.Fprintf(&sb, "• `%s` — %s（%d项技能）\n", r.ResumeID, r.Role, r.Skills().Len())
	}
	h.reply(ctx, chatID, sb.String())
}

func (h *TelegramHandler) handleStats(ctx context.Context, chatID int64) {
	records, err := h.records.ListResumeRecords(ctx)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("查询简历统计失败")
		h.reply(ctx, chatID, "查询统计失败，请稍后重试。")
		return
	}
	if len(records) == 0 {
		h.reply(ctx, chatID, "简历库是空的。")
		return
	}

	byRole := make(map[string]int)
	for _, r := range records {
		byRole[r.Role]++
	}
	roles := make([]string, 0, len(byRole))
	for role := range byRole {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	var sb strings.Builder
	fmt.Fprintf(&sb, "简历库统计（共 %d 份）：\n", len(records))
	for _, role := range roles {
		fmt.Fprintf(&sb, "• %s：%d\n", role, byRole[role])
	}
	h.reply(ctx, chatID, sb.String())
}

func (h *TelegramHandler) handleDocument(ctx context.Context, msg *telegram.Message) {
	chatID := msg.Chat.ID
	doc := msg.Document

	if !isPDF(doc) {
		h.reply(ctx, chatID, "只接受PDF格式的简历文件。")
		return
	}
	if doc.FileSize > telegram.MaxFileSizeBytes {
		h.reply(ctx, chatID, "文件太大，20MB以内的PDF才能处理。")
		return
	}

	filePath, err := h.client.GetFilePath(ctx, doc.FileID)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("file_id", doc.FileID).Msg("查询Telegram文件路径失败")
		h.reply(ctx, chatID, "获取文件失败，请重新发送。")
		return
	}
	data, err := h.client.DownloadFile(ctx, filePath)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("file_path", filePath).Msg("下载Telegram文件失败")
		h.reply(ctx, chatID, "下载文件失败，请重新发送。")
		return
	}

	uploadedBy := ""
	if msg.From != nil {
		uploadedBy = msg.From.Username
		if uploadedBy == "" {
			uploadedBy = msg.From.FirstName
		}
	}

	result, err := h.ingest.Run(ctx, pipeline.IngestRequest{
		Filename:   doc.FileName,
		Data:       data,
		UploadedBy: uploadedBy,
	})
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrDuplicateUpload):
			h.reply(ctx, chatID, "这份简历之前已经上传过了。")
		case errors.Is(err, parser.ErrNoExtractableText), result != nil && result.State == pipeline.StateExtractionError:
			h.reply(ctx, chatID, "这个PDF里提取不到文本（可能是扫描件），换一份试试。")
		default:
			logger.Ctx(ctx).Error().Err(err).Str("filename", doc.FileName).Msg("简历摄入失败")
			h.reply(ctx, chatID, "处理简历时出错了，请稍后重试。")
		}
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ 简历已入库\n岗位：%s\nID：`%s`\n技能（%d项）：%s",
		result.Role, result.ResumeID, len(result.Skills), strings.Join(result.Skills, ", "))
	if result.SkillSource == types.SourceFallback {
		sb.WriteString("\n（AI抽取暂不可用，技能来自关键词匹配）")
	}
	h.reply(ctx, chatID, sb.String())
}

func (h *TelegramHandler) handleJobDescription(ctx context.Context, chatID int64, text string) {
	outcome, err := h.matches.Match(ctx, text)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("Telegram匹配请求失败")
		h.reply(ctx, chatID, "匹配过程出错了，请稍后重试。")
		return
	}

	if outcome.ResumeCount == 0 {
		h.reply(ctx, chatID, "简历库是空的，先发几份PDF简历给我吧。")
		return
	}

	if len(outcome.Selection.Accepted) == 0 {
		var sb strings.Builder
		sb.WriteString("没有找到达标的候选人。\n")
		fmt.Fprintf(&sb, "职位需要的技能：%s\n", strings.Join(outcome.Requirement.Skills.Sorted(), ", "))
		if len(outcome.Selection.TopCandidates) > 0 {
			sb.WriteString("最接近的几位（仅供参考，未达阈值）：\n")
			for _, r := range outcome.Selection.TopCandidates {
				fmt.Fprintf(&sb, "• `%s`（%s）— %.2f分\n", r.ResumeID, r.Role, r.Score)
			}
		}
		h.reply(ctx, chatID, sb.String())
		return
	}

	best := outcome.Selection.Best
	var sb strings.Builder
	fmt.Fprintf(&sb, "🎯 最佳匹配：`%s`（%s）— %.2f分\n", best.ResumeID, best.Role, best.Score)
	fmt.Fprintf(&sb, "命中技能：%s\n", strings.Join(best.MatchedSkills, ", "))
	if len(best.MissingSkills) > 0 {
		fmt.Fprintf(&sb, "缺少技能：%s\n", strings.Join(best.MissingSkills, ", "))
	}
	if best.Explanation != "" {
		fmt.Fprintf(&sb, "说明：%s\n", best.Explanation)
	}
	if url, err := h.matches.PresignResume(ctx, best.StorageKey); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("storage_key", best.StorageKey).Msg("生成下载链接失败")
	} else {
		fmt.Fprintf(&sb, "[下载简历](%s)\n", url)
	}
	if len(outcome.Selection.Accepted) > 1 {
		fmt.Fprintf(&sb, "另有 %d 位候选人也达到了阈值，可用API查看完整列表。", len(outcome.Selection.Accepted)-1)
	}
	h.reply(ctx, chatID, sb.String())
}

// isPDF 只认声明的媒体类型，文件名后缀不作数：
// Telegram客户端可能给任意文件起 .pdf 的名字
func isPDF(doc *telegram.Document) bool {
	return doc.MimeType == "application/pdf"
}

func (h *TelegramHandler) reply(ctx context.Context, chatID int64, text string) {
	if err := h.client.SendMessage(ctx, chatID, text); err != nil {
		logger.Ctx(ctx).Error().Err(err).Int64("chat_id", chatID).Msg("发送Telegram消息失败")
	}
}
