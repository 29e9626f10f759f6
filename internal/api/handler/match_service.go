package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"resume-match-go/internal/extractor"
	"resume-match-go/internal/logger"
	"resume-match-go/internal/matcher"
	"resume-match-go/internal/storage"
	"resume-match-go/internal/storage/models"
	"resume-match-go/internal/tracing"
	"resume-match-go/internal/types"
)

var tracer = otel.Tracer("resume-match-go/api/handler")

// ResumeLister 简历记录全量扫描
type ResumeLister interface {
	ListResumeRecords(ctx context.Context) ([]models.ResumeRecord, error)
}

// ObjectPresigner 简历原件限时下载链接
type ObjectPresigner interface {
	PresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
}

// RequirementCache 职位需求抽取结果的缓存，按JD内容MD5存取
type RequirementCache interface {
	GetCachedRequirement(ctx context.Context, jdMD5 string) (string, error)
	CacheRequirement(ctx context.Context, jdMD5 string, requirementJSON string, ttl time.Duration) error
}

// MatchService 匹配流程编排：需求抽取（带缓存）、全量评分、阈值筛选。
// HTTP接口和Telegram机器人共用同一个实例。
type MatchService struct {
	records      ResumeLister
	presigner    ObjectPresigner
	cache        RequirementCache // 可为nil，缓存层整体退化为直抽
	requirements *extractor.RequirementExtractor
	scorer       matcher.Scorer
	selector     *matcher.Selector

	requirementCacheTTL time.Duration
	presignExpiry       time.Duration
}

// NewMatchService 创建匹配服务。cache传nil时关闭需求缓存
func NewMatchService(
	records ResumeLister,
	presigner ObjectPresigner,
	cache RequirementCache,
	requirements *extractor.RequirementExtractor,
	scorer matcher.Scorer,
	selector *matcher.Selector,
	requirementCacheTTL time.Duration,
	presignExpiry time.Duration,
) *MatchService {
	return &MatchService{
		records:             records,
		presigner:           presigner,
		cache:               cache,
		requirements:        requirements,
		scorer:              scorer,
		selector:            selector,
		requirementCacheTTL: requirementCacheTTL,
		presignExpiry:       presignExpiry,
	}
}

// MatchOutcome 一次匹配请求的完整结果
type MatchOutcome struct {
	Requirement types.JobRequirement
	// 需求是否来自降级路径
	RequirementSource types.ResultSource
	Selection         matcher.Selection
	// 库中简历总数，0时上层直接报告空库
	ResumeCount int
}

// ExtractRequirement 抽取职位需求，模型产出的结果按JD内容MD5缓存。
// 降级产出不进缓存，下次请求还有机会拿到模型结果。
func (s *MatchService) ExtractRequirement(ctx context.Context, jobDescription string) types.RequirementExtraction {
	ctx, span := tracer.Start(ctx, "MatchService.ExtractRequirement")
	defer span.End()

	var jdMD5 string
	if s.cache != nil {
		jdMD5 = storage.TextMD5([]byte(jobDescription))
		cached, err := s.cache.GetCachedRequirement(ctx, jdMD5)
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("读取需求缓存失败")
		} else if cached != "" {
			var req types.JobRequirement
			if unmarshalErr := json.Unmarshal([]byte(cached), &req); unmarshalErr == nil {
				span.AddEvent("requirement cache hit")
				return types.RequirementExtraction{Requirement: req, Source: types.SourceModel}
			} else {
				logger.Ctx(ctx).Warn().Err(unmarshalErr).Msg("需求缓存内容损坏，忽略")
			}
		}
	}

	result := s.requirements.ExtractRequirement(ctx, jobDescription)

	if s.cache != nil && result.Source == types.SourceModel {
		if data, err := json.Marshal(result.Requirement); err == nil {
			if err := s.cache.CacheRequirement(ctx, jdMD5, string(data), s.requirementCacheTTL); err != nil {
				logger.Ctx(ctx).Warn().Err(err).Msg("写入需求缓存失败")
			}
		}
	}
	return result
}

// Match 对职位描述执行完整匹配：抽取需求、扫描全部简历、逐一评分、筛选
func (s *MatchService) Match(ctx context.Context, jobDescription string) (*MatchOutcome, error) {
	ctx, span := tracer.Start(ctx, "MatchService.Match")
	defer span.End()

	extraction := s.ExtractRequirement(ctx, jobDescription)
	span.SetAttributes(
		attribute.Int("match.required_skills", extraction.Requirement.Skills.Len()),
		attribute.String("match.requirement_source", string(extraction.Source)),
	)

	records, err := s.records.ListResumeRecords(ctx)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, fmt.Errorf("扫描简历库失败: %w", err)
	}

	results := make([]types.MatchResult, 0, len(records))
	for i := range records {
		profile := records[i].Profile()
		results = append(results, s.scorer.Score(ctx, extraction.Requirement, profile))
	}

	selection := s.selector.Select(results)
	span.SetAttributes(
		attribute.Int("match.resume_count", len(records)),
		attribute.Int("match.accepted_count", len(selection.Accepted)),
	)

	logger.Ctx(ctx).Info().
		Int("resume_count", len(records)).
		Int("accepted", len(selection.Accepted)).
		Float64("threshold", s.selector.Threshold()).
		Msg("职位匹配完成")

	return &MatchOutcome{
		Requirement:       extraction.Requirement,
		RequirementSource: extraction.Source,
		Selection:         selection,
		ResumeCount:       len(records),
	}, nil
}

// PresignResume 为简历原件生成限时下载链接
func (s *MatchService) PresignResume(ctx context.Context, storageKey string) (string, error) {
	return s.presigner.PresignedURL(ctx, storageKey, s.presignExpiry)
}
