package types // 定义了技能匹配服务的核心数据类型

import (
	"encoding/json"
	"sort"
	"strings"
)

// SkillSet 规范化技能集合。键为小写、去除首尾空白的技能标识，
// 大小写不同或仅空白不同的技能视为同一技能。
type SkillSet map[string]struct{}

// NewSkillSet 从任意原始技能字符串构建规范化集合
func NewSkillSet(skills ...string) SkillSet {
	s := make(SkillSet, len(skills))
	for _, skill := range skills {
		s.Add(skill)
	}
	return s
}

// Add 添加一个技能，规范化后入集；空字符串被忽略
func (s SkillSet) Add(skill string) {
	normalized := NormalizeSkill(skill)
	if normalized == "" {
		return
	}
	s[normalized] = struct{}{}
}

// Contains 判断集合中是否包含某技能（按规范化形式比较）
func (s SkillSet) Contains(skill string) bool {
	_, ok := s[NormalizeSkill(skill)]
	return ok
}

// Len 返回集合大小
func (s SkillSet) Len() int {
	return len(s)
}

// Intersect 返回与另一个集合的交集
func (s SkillSet) Intersect(other SkillSet) SkillSet {
	result := make(SkillSet)
	for skill := range s {
		if _, ok := other[skill]; ok {
			result[skill] = struct{}{}
		}
	}
	return result
}

// Difference 返回 s 中存在而 other 中不存在的技能
func (s SkillSet) Difference(other SkillSet) SkillSet {
	result := make(SkillSet)
	for skill := range s {
		if _, ok := other[skill]; !ok {
			result[skill] = struct{}{}
		}
	}
	return result
}

// Sorted 返回按字典序排序的技能切片，用于确定性输出
func (s SkillSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for skill := range s {
		out = append(out, skill)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON 将集合序列化为排序后的JSON数组
func (s SkillSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON 从JSON数组反序列化，元素会被规范化去重
func (s *SkillSet) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = NewSkillSet(raw...)
	return nil
}

// NormalizeSkill 技能标识的规范化形式：小写 + 去首尾空白
func NormalizeSkill(skill string) string {
	return strings.ToLower(strings.TrimSpace(skill))
}

// ResultSource 标记抽取/评分结果来自模型还是确定性回退路径
type ResultSource string

const (
	// SourceModel 结果由推理服务产生
	SourceModel ResultSource = "model"
	// SourceFallback 结果由确定性关键词路径产生
	SourceFallback ResultSource = "fallback"
)

// SkillExtraction 技能抽取结果。回退是显式分支而非被吞掉的异常：
// Source 与 FallbackReason 使调用方和测试都能观察到降级
type SkillExtraction struct {
	Skills         SkillSet
	Source         ResultSource
	FallbackReason string
}

// NotSpecified 推理服务不可用时 role/experience_level 的占位值
const NotSpecified = "Not specified"

// JobRequirement 从职位描述中抽取的结构化需求，每次匹配请求临时构建，不落库
type JobRequirement struct {
	Skills          SkillSet `json:"skills"`
	Role            string   `json:"role"`
	ExperienceLevel string   `json:"experience_level"`
	KeyRequirements []string `json:"key_requirements"`
}

// RequirementExtraction 需求抽取结果（带降级标记）
type RequirementExtraction struct {
	Requirement    JobRequirement
	Source         ResultSource
	FallbackReason string
}

// ResumeProfile 匹配路径看到的简历视图：由持久化记录构建，只读
type ResumeProfile struct {
	ResumeID   string
	Role       string
	Skills     SkillSet
	StorageKey string
}

// MatchResult 单份简历相对某个需求的评分结果。
// Score 保留两位小数并约束在 [0,100]；确定性路径下
// MatchedSkills 恰为 required ∩ resume
type MatchResult struct {
	ResumeID      string   `json:"resume_id"`
	Role          string   `json:"role"`
	Score         float64  `json:"score"`
	MatchedSkills []string `json:"matched_skills"`
	MissingSkills []string `json:"missing_skills"`
	Explanation   string   `json:"explanation,omitempty"`
	StorageKey    string   `json:"-"`
	Accepted      bool     `json:"-"`
}
