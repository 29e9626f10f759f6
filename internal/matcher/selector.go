package matcher

import (
	"sort"

	"resume-match-go/internal/types"
)

// DefaultTopCandidates 无人达标时返回的候选数量
const DefaultTopCandidates = 3

// Selection 一次筛选的结果。Accepted 非空时 Best 指向其中得分最高者；
// 无人达标时 TopCandidates 给出得分最高的若干advisory候选，
// 调用方不得把它们当作成功匹配。
type Selection struct {
	Accepted      []types.MatchResult
	Best          *types.MatchResult
	TopCandidates []types.MatchResult
}

// Selector 对全量评分结果排序、按阈值筛选
type Selector struct {
	threshold     float64
	topCandidates int
}

// NewSelector 创建筛选器。topCandidates<=0 时使用默认值
func NewSelector(threshold float64, topCandidates int) *Selector {
	if topCandidates <= 0 {
		topCandidates = DefaultTopCandidates
	}
	return &Selector{threshold: threshold, topCandidates: topCandidates}
}

// Threshold 返回生效的接受阈值
func (s *Selector) Threshold() float64 {
	return s.threshold
}

// Select 按得分降序排列（同分按resume_id升序，保证排序稳定可重现），
// 以阈值划分 accepted / rejected。输入切片不被修改。
func (s *Selector) Select(results []types.MatchResult) Selection {
	ranked := make([]types.MatchResult, len(results))
	copy(ranked, results)

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ResumeID < ranked[j].ResumeID
	})

	var accepted []types.MatchResult
	for _, r := range ranked {
		if r.Score >= s.threshold {
			r.Accepted = true
			accepted = append(accepted, r)
		}
	}

	if len(accepted) > 0 {
		return Selection{Accepted: accepted, Best: &accepted[0]}
	}

	n := s.topCandidates
	if n > len(ranked) {
		n = len(ranked)
	}
	return Selection{TopCandidates: ranked[:n]}
}
