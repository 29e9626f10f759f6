package extractor

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// 提示词模板与解析逻辑分离，模板改动不影响响应解析的测试。
// 版本号进入日志，便于比对不同模板下的抽取质量。

const (
	skillPromptVersion       = "skill-extract/v1"
	requirementPromptVersion = "jd-extract/v1"
)

const skillPromptTemplate = `Analyze this resume and extract ALL technical skills, tools, technologies, and methodologies.

Resume:
%s

Be comprehensive and include variations. For example:
- If "Kubernetes" or "K8s" mentioned, include BOTH
- If "Jenkins" or "GitHub Actions" seen, also include "ci/cd"
- If cloud platforms mentioned, include general "cloud" term
- Include certifications as skills too

Return ONLY a JSON array of skills in lowercase, with no explanation or markdown formatting.
Example: ["python", "aws", "docker", "kubernetes", "k8s", "ci/cd", "devops"]

Skills:`

const requirementPromptTemplate = `Analyze this job description and extract key information.

Job Description:
%s

Extract and return ONLY a JSON object with:
{
  "skills": ["skill1", "skill2", ...],
  "role": "job title",
  "experience_level": "junior/mid/senior",
  "key_requirements": ["req1", "req2", ...]
}

Be comprehensive - include:
- Programming languages
- Cloud platforms
- Tools and technologies
- Methodologies (DevOps, Agile, etc.)
- Related/synonym skills (e.g., if "container orchestration" mentioned, include "kubernetes", "docker")

Return ONLY valid JSON, no explanation.`

// buildSkillPrompt 组装简历技能抽取的提示词
func buildSkillPrompt(resumeText string) string {
	return fmt.Sprintf(skillPromptTemplate, resumeText)
}

// buildRequirementPrompt 组装职位需求抽取的提示词
func buildRequirementPrompt(jobDescription string) string {
	return fmt.Sprintf(requirementPromptTemplate, jobDescription)
}

// truncateText 按字节截断文本以限制请求体大小。
// 截断点回退到rune边界，不产生损坏的UTF-8序列
func truncateText(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return strings.TrimSpace(text)
	}
	cut := maxChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return strings.TrimSpace(text[:cut])
}
