package extractor // 简历与职位文本的技能/角色抽取组件

import (
	"strings"

	"resume-match-go/internal/types"
	"resume-match-go/internal/vocab"
)

// KeywordExtractor 确定性技能抽取器。对词表做大小写不敏感的子串扫描，
// 不依赖任何外部服务，是所有AI抽取路径的无条件回退。
type KeywordExtractor struct {
	skills []string
}

// NewKeywordExtractor 使用内置词表创建抽取器
func NewKeywordExtractor() *KeywordExtractor {
	return &KeywordExtractor{skills: vocab.Skills}
}

// Extract 扫描文本，返回命中的技能集合。永不失败；无命中时返回空集
func (e *KeywordExtractor) Extract(text string) types.SkillSet {
	found := types.NewSkillSet()
	lower := strings.ToLower(text)
	for _, skill := range e.skills {
		if strings.Contains(lower, skill) {
			found.Add(skill)
		}
	}
	return found
}

// ClassifyRole 从文本推断角色。按 vocab.RoleTable 的顺序遍历，
// 第一个有关键词命中的角色胜出；全部未命中返回 vocab.DefaultRole。
// 确定性、全函数、无副作用。
func ClassifyRole(text string) string {
	lower := strings.ToLower(text)
	for _, entry := range vocab.RoleTable {
		for _, keyword := range entry.Keywords {
			if strings.Contains(lower, keyword) {
				return entry.Role
			}
		}
	}
	return vocab.DefaultRole
}
