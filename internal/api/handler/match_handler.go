package handler

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"resume-match-go/internal/logger"
	"resume-match-go/internal/types"
)

// 单次响应里最多展示的命中数
const maxMatchesInResponse = 5

// MatchRequest 匹配接口请求体
type MatchRequest struct {
	JobDescription string `json:"job_description"`
}

// MatchEntry 响应中的单条匹配
type MatchEntry struct {
	ResumeID      string   `json:"resume_id"`
	Role          string   `json:"role"`
	Score         float64  `json:"score"`
	MatchedSkills []string `json:"matched_skills"`
	MissingSkills []string `json:"missing_skills"`
	Explanation   string   `json:"explanation,omitempty"`
	DownloadURL   string   `json:"download_url,omitempty"`
}

// MatchResponse 匹配成功的响应体
type MatchResponse struct {
	BestMatch  MatchEntry   `json:"best_match"`
	AllMatches []MatchEntry `json:"all_matches"`
}

// MatchHandler 职位匹配HTTP接口
type MatchHandler struct {
	service *MatchService
}

// NewMatchHandler 创建匹配接口处理器
func NewMatchHandler(service *MatchService) *MatchHandler {
	return &MatchHandler{service: service}
}

// HandleMatch 处理 POST /api/v1/match。
// 缺少职位描述返回400；无人达标返回404并附上抽取出的需求技能；
// 命中时返回最佳匹配（带限时下载链接）与全部命中（截断展示）。
func (h *MatchHandler) HandleMatch(ctx context.Context, c *app.RequestContext) {
	var req MatchRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体不是合法的JSON"})
		return
	}
	if strings.TrimSpace(req.JobDescription) == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "job_description不能为空"})
		return
	}

	outcome, err := h.service.Match(ctx, req.JobDescription)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("匹配请求处理失败")
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "匹配失败，请稍后重试"})
		return
	}

	if len(outcome.Selection.Accepted) == 0 {
		c.JSON(consts.StatusNotFound, utils.H{
			"message":         "没有达到匹配阈值的简历",
			"required_skills": outcome.Requirement.Skills.Sorted(),
		})
		return
	}

	best := toMatchEntry(*outcome.Selection.Best)
	if url, err := h.service.PresignResume(ctx, outcome.Selection.Best.StorageKey); err != nil {
		// 签名失败不阻塞响应，只是没有下载链接
		logger.Ctx(ctx).Warn().Err(err).Str("storage_key", outcome.Selection.Best.StorageKey).Msg("生成下载链接失败")
	} else {
		best.DownloadURL = url
	}

	accepted := outcome.Selection.Accepted
	if len(accepted) > maxMatchesInResponse {
		accepted = accepted[:maxMatchesInResponse]
	}
	all := make([]MatchEntry, 0, len(accepted))
	for _, r := range accepted {
		all = append(all, toMatchEntry(r))
	}

	c.JSON(consts.StatusOK, MatchResponse{BestMatch: best, AllMatches: all})
}

func toMatchEntry(r types.MatchResult) MatchEntry {
	return MatchEntry{
		ResumeID:      r.ResumeID,
		Role:          r.Role,
		Score:         r.Score,
		MatchedSkills: r.MatchedSkills,
		MissingSkills: r.MissingSkills,
		Explanation:   r.Explanation,
	}
}
