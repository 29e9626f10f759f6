package matcher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"resume-match-go/internal/llm"
	"resume-match-go/internal/types"
)

func TestOverlapScore(t *testing.T) {
	required := types.NewSkillSet("python", "aws", "docker", "kubernetes")

	cases := []struct {
		name   string
		resume types.SkillSet
		want   float64
	}{
		{"全部命中", types.NewSkillSet("python", "aws", "docker", "kubernetes"), 100},
		{"命中一半", types.NewSkillSet("python", "aws"), 50},
		{"命中四分之三", types.NewSkillSet("python", "aws", "docker"), 75},
		{"无命中", types.NewSkillSet("cobol"), 0},
		{"空简历", types.NewSkillSet(), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, OverlapScore(required, tc.resume))
		})
	}
}

func TestOverlapScoreEmptyRequired(t *testing.T) {
	// 需求为空时定义为0分，不允许除零
	assert.Equal(t, 0.0, OverlapScore(types.NewSkillSet(), types.NewSkillSet("python")))
}

func TestOverlapScoreRoundsToTwoDecimals(t *testing.T) {
	required := types.NewSkillSet("a", "b", "c")
	resume := types.NewSkillSet("a")
	// 100/3 = 33.333... -> 33.33
	assert.Equal(t, 33.33, OverlapScore(required, resume))
}

func TestKeywordScorerSetsMatchedAndMissing(t *testing.T) {
	req := types.JobRequirement{Skills: types.NewSkillSet("python", "aws", "terraform")}
	profile := types.ResumeProfile{
		ResumeID:   "devops-engineer_20250101_120000",
		Role:       "DevOps Engineer",
		Skills:     types.NewSkillSet("python", "terraform", "react"),
		StorageKey: "resumes/devops-engineer/a.pdf",
	}

	result := NewKeywordScorer().Score(context.Background(), req, profile)

	assert.Equal(t, profile.ResumeID, result.ResumeID)
	assert.Equal(t, 66.67, result.Score)
	assert.Equal(t, []string{"python", "terraform"}, result.MatchedSkills)
	assert.Equal(t, []string{"aws"}, result.MissingSkills)
	assert.Equal(t, profile.StorageKey, result.StorageKey)
}

func TestSemanticScorerModelPath(t *testing.T) {
	mock := llm.NewMockChatModel(`{
		"match_score": 85.5,
		"matched_skills": ["kubernetes", "made-up-skill"],
		"missing_skills": ["terraform"],
		"explanation": "solid container background"
	}`, nil)
	scorer := NewSemanticScorer(mock, 0)

	req := types.JobRequirement{Skills: types.NewSkillSet("container orchestration", "terraform")}
	profile := types.ResumeProfile{
		ResumeID: "r1",
		Skills:   types.NewSkillSet("kubernetes", "docker"),
	}

	result := scorer.Score(context.Background(), req, profile)

	assert.Equal(t, 85.5, result.Score)
	// 模型声明的matched里不在简历技能中的会被过滤
	assert.Equal(t, []string{"kubernetes"}, result.MatchedSkills)
	assert.Equal(t, []string{"terraform"}, result.MissingSkills)
	assert.Equal(t, "solid container background", result.Explanation)
}

func TestSemanticScorerClampsScore(t *testing.T) {
	mock := llm.NewMockChatModel(`{"match_score": 150, "matched_skills": [], "missing_skills": [], "explanation": ""}`, nil)
	scorer := NewSemanticScorer(mock, 0)

	result := scorer.Score(context.Background(),
		types.JobRequirement{Skills: types.NewSkillSet("go")},
		types.ResumeProfile{ResumeID: "r1", Skills: types.NewSkillSet("go")})
	assert.Equal(t, 100.0, result.Score)

	mock2 := llm.NewMockChatModel(`{"match_score": -5, "matched_skills": [], "missing_skills": [], "explanation": ""}`, nil)
	result2 := NewSemanticScorer(mock2, 0).Score(context.Background(),
		types.JobRequirement{Skills: types.NewSkillSet("go")},
		types.ResumeProfile{ResumeID: "r2", Skills: types.NewSkillSet()})
	assert.Equal(t, 0.0, result2.Score)
}

func TestSemanticScorerFallback(t *testing.T) {
	mock := llm.NewMockChatModel("", errors.New("service unavailable"))
	scorer := NewSemanticScorer(mock, 0)

	req := types.JobRequirement{Skills: types.NewSkillSet("python", "aws")}
	profile := types.ResumeProfile{
		ResumeID: "r1",
		Skills:   types.NewSkillSet("python"),
	}

	result := scorer.Score(context.Background(), req, profile)

	// 降级为确定性重叠评分，matched/missing置空并标记说明
	assert.Equal(t, 50.0, result.Score)
	assert.Empty(t, result.MatchedSkills)
	assert.Empty(t, result.MissingSkills)
	assert.Equal(t, FallbackExplanation, result.Explanation)
}

func TestSemanticScorerForwardsTokenBudget(t *testing.T) {
	mock := llm.NewMockChatModel(`{"match_score": 90, "matched_skills": [], "missing_skills": [], "explanation": ""}`, nil)
	NewSemanticScorer(mock, 321).Score(context.Background(),
		types.JobRequirement{Skills: types.NewSkillSet("go")},
		types.ResumeProfile{ResumeID: "r1", Skills: types.NewSkillSet("go")})
	assert.Equal(t, 321, mock.LastMaxTokens, "配置的token预算应随调用传给模型")

	mock = llm.NewMockChatModel(`{"match_score": 90, "matched_skills": [], "missing_skills": [], "explanation": ""}`, nil)
	NewSemanticScorer(mock, 0).Score(context.Background(),
		types.JobRequirement{Skills: types.NewSkillSet("go")},
		types.ResumeProfile{ResumeID: "r1", Skills: types.NewSkillSet("go")})
	assert.Equal(t, DefaultScoringMaxTokens, mock.LastMaxTokens)
}

func TestSemanticScorerFallbackOnBadJSON(t *testing.T) {
	mock := llm.NewMockChatModel("not json at all", nil)
	scorer := NewSemanticScorer(mock, 0)

	result := scorer.Score(context.Background(),
		types.JobRequirement{Skills: types.NewSkillSet("go", "rust")},
		types.ResumeProfile{ResumeID: "r1", Skills: types.NewSkillSet("go")})

	assert.Equal(t, 50.0, result.Score)
	assert.Equal(t, FallbackExplanation, result.Explanation)
}
