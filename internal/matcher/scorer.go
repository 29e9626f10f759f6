package matcher // 需求与简历的匹配评分和筛选

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/cloudwego/eino/components/model"
	einoschema "github.com/cloudwego/eino/schema"

	"resume-match-go/internal/extractor"
	"resume-match-go/internal/logger"
	"resume-match-go/internal/types"
)

const (
	// DefaultScoringMaxTokens 语义评分单次调用的token预算
	DefaultScoringMaxTokens = 800

	scorerSystemPrompt = "You are a skill matching assistant. You only output JSON."

	// FallbackExplanation 语义评分降级时写入结果的说明
	FallbackExplanation = "fallback keyword matching used"
)

// Scorer 单份简历的评分策略。实现必须是全函数：永不返回错误，
// 降级在实现内部完成
type Scorer interface {
	Score(ctx context.Context, req types.JobRequirement, profile types.ResumeProfile) types.MatchResult
}

// OverlapScore 确定性集合重叠得分：round2(100·|required ∩ resume|/|required|)。
// required 为空时定义为 0.0，避免除零。
func OverlapScore(required, resume types.SkillSet) float64 {
	if required.Len() == 0 {
		return 0.0
	}
	matched := required.Intersect(resume).Len()
	return round2(100 * float64(matched) / float64(required.Len()))
}

// round2 保留两位小数
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// clampScore 将模型返回的分数约束到 [0,100] 并保留两位小数
func clampScore(v float64) float64 {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return round2(v)
}

// KeywordScorer 确定性评分策略。matched 恰为 required ∩ resume，
// missing 恰为 required \ resume。
type KeywordScorer struct{}

// NewKeywordScorer 创建确定性评分器
func NewKeywordScorer() *KeywordScorer {
	return &KeywordScorer{}
}

// Score 实现 Scorer 接口
func (s *KeywordScorer) Score(_ context.Context, req types.JobRequirement, profile types.ResumeProfile) types.MatchResult {
	return types.MatchResult{
		ResumeID:      profile.ResumeID,
		Role:          profile.Role,
		Score:         OverlapScore(req.Skills, profile.Skills),
		MatchedSkills: req.Skills.Intersect(profile.Skills).Sorted(),
		MissingSkills: req.Skills.Difference(profile.Skills).Sorted(),
		StorageKey:    profile.StorageKey,
	}
}

const semanticScorePromptTemplate = `Compare these skills and provide a match analysis.

Required Skills (from Job Description):
%s

Candidate Skills (from Resume):
%s

Analyze the match considering:
1. Direct matches (exact skill names)
2. Semantic matches (synonyms, related technologies)
3. Skill categories (e.g., "CI/CD" matches "Jenkins", "GitHub Actions")

Return ONLY a JSON object:
{
  "match_score": 85,
  "matched_skills": ["skill1", "skill2"],
  "missing_skills": ["skill3"],
  "explanation": "Brief explanation of the match quality"
}

Be generous with semantic matches. Examples:
- "container orchestration" matches "kubernetes", "docker"
- "CI/CD" matches "jenkins", "github actions", "gitlab"
- "infrastructure as code" matches "terraform", "ansible"
- "cloud" matches "aws", "azure", "gcp"

Match score should be 0-100. Return ONLY valid JSON.`

// semanticScoreResponse 推理服务返回的评分结构
type semanticScoreResponse struct {
	MatchScore    float64  `json:"match_score"`
	MatchedSkills []string `json:"matched_skills"`
	MissingSkills []string `json:"missing_skills"`
	Explanation   string   `json:"explanation"`
}

// SemanticScorer AI辅助的语义评分策略：让推理服务识别同义技能与
// 相关技术。调用或解析失败时降级为 OverlapScore，matched/missing
// 置空并在 explanation 中标记降级——调用方总能拿到可用的结果。
type SemanticScorer struct {
	chatModel model.ChatModel
	maxTokens int
}

// NewSemanticScorer 创建语义评分器。maxTokens<=0 时使用默认值
func NewSemanticScorer(chatModel model.ChatModel, maxTokens int) *SemanticScorer {
	if maxTokens <= 0 {
		maxTokens = DefaultScoringMaxTokens
	}
	return &SemanticScorer{chatModel: chatModel, maxTokens: maxTokens}
}

// Score 实现 Scorer 接口。单次尝试，失败即降级
func (s *SemanticScorer) Score(ctx context.Context, req types.JobRequirement, profile types.ResumeProfile) types.MatchResult {
	parsed, err := s.callModel(ctx, req.Skills, profile.Skills)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("resume_id", profile.ResumeID).
			Msg("语义评分失败，降级为关键词重叠评分")
		return types.MatchResult{
			ResumeID:      profile.ResumeID,
			Role:          profile.Role,
			Score:         OverlapScore(req.Skills, profile.Skills),
			MatchedSkills: []string{},
			MissingSkills: []string{},
			Explanation:   FallbackExplanation,
			StorageKey:    profile.StorageKey,
		}
	}

	// 模型列出的matched必须确实在简历技能里，防止幻觉技能进入结果
	matched := types.NewSkillSet()
	for _, skill := range parsed.MatchedSkills {
		if profile.Skills.Contains(skill) {
			matched.Add(skill)
		}
	}

	return types.MatchResult{
		ResumeID:      profile.ResumeID,
		Role:          profile.Role,
		Score:         clampScore(parsed.MatchScore),
		MatchedSkills: matched.Sorted(),
		MissingSkills: types.NewSkillSet(parsed.MissingSkills...).Sorted(),
		Explanation:   parsed.Explanation,
		StorageKey:    profile.StorageKey,
	}
}

func (s *SemanticScorer) callModel(ctx context.Context, required, resume types.SkillSet) (*semanticScoreResponse, error) {
	prompt := fmt.Sprintf(semanticScorePromptTemplate,
		joinSkills(required), joinSkills(resume))

	messages := []*einoschema.Message{
		{Role: "system", Content: scorerSystemPrompt},
		{Role: "user", Content: prompt},
	}

	response, err := s.chatModel.Generate(ctx, messages, model.WithMaxTokens(s.maxTokens))
	if err != nil {
		return nil, fmt.Errorf("推理服务调用失败: %w", err)
	}

	jsonStr := extractor.ExtractJSONValue(response.Content)
	if jsonStr == "" {
		return nil, fmt.Errorf("响应中没有可解析的JSON: %.80s", response.Content)
	}

	var parsed semanticScoreResponse
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return nil, fmt.Errorf("响应不是期望的JSON对象: %w", err)
	}
	return &parsed, nil
}

func joinSkills(s types.SkillSet) string {
	out := ""
	for i, skill := range s.Sorted() {
		if i > 0 {
			out += ", "
		}
		out += skill
	}
	return out
}
