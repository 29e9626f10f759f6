package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"resume-match-go/internal/logger"
	"resume-match-go/internal/pipeline"
)

// Ingestor 简历摄入流程
type Ingestor interface {
	Run(ctx context.Context, req pipeline.IngestRequest) (*pipeline.IngestResult, error)
}

// UploadRequest 简历直传请求体，文件内容以base64编码传输
type UploadRequest struct {
	ResumeData string `json:"resume_data"`
	ResumeName string `json:"resume_name"`
	// 指定岗位，留空时按简历文本关键词分类
	Role       string `json:"role"`
	UploadedBy string `json:"uploaded_by"`
}

// UploadResponse 摄入成功的响应体
type UploadResponse struct {
	Message         string   `json:"message"`
	ResumeID        string   `json:"resume_id"`
	Role            string   `json:"role"`
	SkillsExtracted []string `json:"skills_extracted"`
	SkillSource     string   `json:"skill_source"`
	StorageKey      string   `json:"storage_key"`
}

// UploadHandler 简历直传HTTP接口，绕过Telegram直接摄入
type UploadHandler struct {
	ingest Ingestor
}

// NewUploadHandler 创建直传接口处理器
func NewUploadHandler(ingest Ingestor) *UploadHandler {
	return &UploadHandler{ingest: ingest}
}

// HandleUpload 处理 POST /api/v1/resume/upload。
// 请求不合法（缺字段、base64解不开、PDF里没有文本）一律400，
// 重复内容409，其余失败500。
func (h *UploadHandler) HandleUpload(ctx context.Context, c *app.RequestContext) {
	var req UploadRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体不是合法的JSON"})
		return
	}
	if strings.TrimSpace(req.ResumeName) == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "resume_name不能为空"})
		return
	}
	if !strings.HasSuffix(strings.ToLower(req.ResumeName), ".pdf") {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "仅支持PDF文件"})
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.ResumeData)
	if err != nil || len(data) == 0 {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "resume_data解码失败"})
		return
	}

	result, err := h.ingest.Run(ctx, pipeline.IngestRequest{
		Filename:     req.ResumeName,
		Data:         data,
		UploadedBy:   req.UploadedBy,
		RoleOverride: strings.TrimSpace(req.Role),
	})
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrDuplicateUpload):
			c.JSON(consts.StatusConflict, utils.H{"error": "该简历内容已上传过"})
		case result != nil && result.State == pipeline.StateExtractionError:
			c.JSON(consts.StatusBadRequest, utils.H{"error": "PDF中没有可提取的文本"})
		default:
			logger.Ctx(ctx).Error().Err(err).Str("resume_name", req.ResumeName).Msg("简历摄入失败")
			c.JSON(consts.StatusInternalServerError, utils.H{"error": "简历摄入失败，请稍后重试"})
		}
		return
	}

	c.JSON(consts.StatusOK, UploadResponse{
		Message:         "简历已入库",
		ResumeID:        result.ResumeID,
		Role:            result.Role,
		SkillsExtracted: result.Skills,
		SkillSource:     string(result.SkillSource),
		StorageKey:      result.StorageKey,
	})
}
