package extractor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	einoschema "github.com/cloudwego/eino/schema"

	"resume-match-go/internal/logger"
	"resume-match-go/internal/types"
)

const (
	// DefaultMaxResumeChars 提交给推理服务的简历文本上限
	DefaultMaxResumeChars = 4000
	// DefaultMaxJobDescChars 提交给推理服务的职位描述上限
	DefaultMaxJobDescChars = 3000

	// DefaultSkillExtractMaxTokens 技能抽取单次调用的token预算
	DefaultSkillExtractMaxTokens = 1500
	// DefaultRequirementMaxTokens 需求抽取单次调用的token预算
	DefaultRequirementMaxTokens = 1000

	skillSystemPrompt       = "You are a precise technical recruiter assistant. You only output JSON."
	requirementSystemPrompt = "You are a precise technical recruiter assistant. You only output JSON."
)

// AISkillExtractor 调用推理服务从简历文本抽取技能集合。
// 调用失败、响应不是JSON、JSON不是数组——全部降级为关键词扫描，
// 调用方永远得到一个（可能为空的）技能集合，不会看到错误。
type AISkillExtractor struct {
	chatModel model.ChatModel
	fallback  *KeywordExtractor
	maxChars  int
	maxTokens int
}

// NewAISkillExtractor 创建AI技能抽取器。maxChars/maxTokens<=0 时使用默认值
func NewAISkillExtractor(chatModel model.ChatModel, maxChars, maxTokens int) *AISkillExtractor {
	if maxChars <= 0 {
		maxChars = DefaultMaxResumeChars
	}
	if maxTokens <= 0 {
		maxTokens = DefaultSkillExtractMaxTokens
	}
	return &AISkillExtractor{
		chatModel: chatModel,
		fallback:  NewKeywordExtractor(),
		maxChars:  maxChars,
		maxTokens: maxTokens,
	}
}

// ExtractSkills 抽取技能。单次尝试，失败即回退（不做重试）
func (e *AISkillExtractor) ExtractSkills(ctx context.Context, text string) types.SkillExtraction {
	truncated := truncateText(text, e.maxChars)

	skills, err := e.callModel(ctx, truncated)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("prompt_version", skillPromptVersion).
			Msg("AI技能抽取失败，回退到关键词扫描")
		return types.SkillExtraction{
			Skills:         e.fallback.Extract(text),
			Source:         types.SourceFallback,
			FallbackReason: err.Error(),
		}
	}

	logger.Debug().
		Int("skill_count", skills.Len()).
		Str("prompt_version", skillPromptVersion).
		Msg("AI技能抽取完成")
	return types.SkillExtraction{Skills: skills, Source: types.SourceModel}
}

func (e *AISkillExtractor) callModel(ctx context.Context, text string) (types.SkillSet, error) {
	messages := []*einoschema.Message{
		{Role: "system", Content: skillSystemPrompt},
		{Role: "user", Content: buildSkillPrompt(text)},
	}

	response, err := e.chatModel.Generate(ctx, messages, model.WithMaxTokens(e.maxTokens))
	if err != nil {
		return nil, fmt.Errorf("推理服务调用失败: %w", err)
	}

	jsonStr := ExtractJSONValue(response.Content)
	if jsonStr == "" {
		return nil, fmt.Errorf("响应中没有可解析的JSON: %.80s", response.Content)
	}

	var raw []string
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("响应不是JSON数组: %w", err)
	}

	return types.NewSkillSet(raw...), nil
}

// requirementResponse 推理服务返回的职位需求结构
type requirementResponse struct {
	Skills          []string `json:"skills"`
	Role            string   `json:"role"`
	ExperienceLevel string   `json:"experience_level"`
	KeyRequirements []string `json:"key_requirements"`
}

// RequirementExtractor 从职位描述抽取结构化需求，失败时的回退与
// AISkillExtractor 同构：技能来自关键词扫描，role/experience_level
// 置为 Not specified，key_requirements 为空。
type RequirementExtractor struct {
	chatModel model.ChatModel
	fallback  *KeywordExtractor
	maxChars  int
	maxTokens int
}

// NewRequirementExtractor 创建需求抽取器。maxChars/maxTokens<=0 时使用默认值
func NewRequirementExtractor(chatModel model.ChatModel, maxChars, maxTokens int) *RequirementExtractor {
	if maxChars <= 0 {
		maxChars = DefaultMaxJobDescChars
	}
	if maxTokens <= 0 {
		maxTokens = DefaultRequirementMaxTokens
	}
	return &RequirementExtractor{
		chatModel: chatModel,
		fallback:  NewKeywordExtractor(),
		maxChars:  maxChars,
		maxTokens: maxTokens,
	}
}

// ExtractRequirement 抽取职位需求。永不返回错误
func (e *RequirementExtractor) ExtractRequirement(ctx context.Context, jobDescription string) types.RequirementExtraction {
	truncated := truncateText(jobDescription, e.maxChars)

	req, err := e.callModel(ctx, truncated)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("prompt_version", requirementPromptVersion).
			Msg("职位需求抽取失败，回退到关键词扫描")
		return types.RequirementExtraction{
			Requirement:    e.fallbackRequirement(jobDescription),
			Source:         types.SourceFallback,
			FallbackReason: err.Error(),
		}
	}

	logger.Debug().
		Int("skill_count", req.Skills.Len()).
		Str("role", req.Role).
		Msg("职位需求抽取完成")
	return types.RequirementExtraction{Requirement: req, Source: types.SourceModel}
}

func (e *RequirementExtractor) callModel(ctx context.Context, text string) (types.JobRequirement, error) {
	messages := []*einoschema.Message{
		{Role: "system", Content: requirementSystemPrompt},
		{Role: "user", Content: buildRequirementPrompt(text)},
	}

	response, err := e.chatModel.Generate(ctx, messages, model.WithMaxTokens(e.maxTokens))
	if err != nil {
		return types.JobRequirement{}, fmt.Errorf("推理服务调用失败: %w", err)
	}

	jsonStr := ExtractJSONValue(response.Content)
	if jsonStr == "" {
		return types.JobRequirement{}, fmt.Errorf("响应中没有可解析的JSON: %.80s", response.Content)
	}

	var parsed requirementResponse
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return types.JobRequirement{}, fmt.Errorf("响应不是期望的JSON对象: %w", err)
	}

	req := types.JobRequirement{
		Skills:          types.NewSkillSet(parsed.Skills...),
		Role:            parsed.Role,
		ExperienceLevel: parsed.ExperienceLevel,
		KeyRequirements: parsed.KeyRequirements,
	}
	if req.Role == "" {
		req.Role = types.NotSpecified
	}
	if req.ExperienceLevel == "" {
		req.ExperienceLevel = types.NotSpecified
	}
	if req.KeyRequirements == nil {
		req.KeyRequirements = []string{}
	}
	return req, nil
}

func (e *RequirementExtractor) fallbackRequirement(jobDescription string) types.JobRequirement {
	return types.JobRequirement{
		Skills:          e.fallback.Extract(jobDescription),
		Role:            types.NotSpecified,
		ExperienceLevel: types.NotSpecified,
		KeyRequirements: []string{},
	}
}
