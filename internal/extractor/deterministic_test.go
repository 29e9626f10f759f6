package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"resume-match-go/internal/vocab"
)

func TestKeywordExtractorFindsSkillsCaseInsensitive(t *testing.T) {
	e := NewKeywordExtractor()
	text := "Experienced engineer: PYTHON, Docker, kubernetes and Terraform. Some AWS exposure."

	skills := e.Extract(text)
	for _, want := range []string{"python", "docker", "kubernetes", "terraform", "aws"} {
		assert.True(t, skills.Contains(want), "应命中技能 %s", want)
	}
}

func TestKeywordExtractorEmptyText(t *testing.T) {
	e := NewKeywordExtractor()
	assert.Equal(t, 0, e.Extract("").Len())
	assert.Equal(t, 0, e.Extract("总经理，擅长沟通与管理").Len(), "非技术文本不应命中任何技能")
}

func TestClassifyRoleFirstMatchWins(t *testing.T) {
	// 同时命中DevOps与Full Stack的关键词，表中靠前的DevOps胜出
	text := "Site Reliability engineer, previously a full stack developer"
	assert.Equal(t, "DevOps Engineer", ClassifyRole(text))
}

func TestClassifyRoleDefault(t *testing.T) {
	assert.Equal(t, vocab.DefaultRole, ClassifyRole("customer success manager"))
}

func TestClassifyRolePerRoleKeywords(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Senior DevOps lead", "DevOps Engineer"},
		{"AWS Cloud Architect with 5 years experience", "Cloud Engineer"},
		{"Data Scientist focused on NLP", "Data Engineer"},
		{"Full-stack developer, React and Go", "Full Stack Developer"},
		{"Backend developer, PostgreSQL and gRPC", "Backend Developer"},
		{"Front-end specialist, CSS animations", "Frontend Developer"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyRole(tc.text), "文本: %s", tc.text)
	}
}
