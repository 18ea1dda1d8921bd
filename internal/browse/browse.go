// Package browse 实现浏览页的内存过滤与排序。
package browse

import (
	"sort"
	"strings"
	"time"

	"github.com/heartchain/hcs/internal/model"
)

// SortKey 排序方式
type SortKey string

const (
	SortNewest   SortKey = "newest"   // 按创建时间倒序
	SortEnding   SortKey = "ending"   // 按剩余天数升序
	SortFunded   SortKey = "funded"   // 按已筹金额倒序
	SortPriority SortKey = "priority" // 紧急优先，同级内按剩余天数升序
)

// CategoryAll 不过滤分类
const CategoryAll = "all"

// Query 浏览页当前的筛选条件
type Query struct {
	Search     string  // 标题或描述的子串匹配，忽略大小写
	Category   string  // 精确匹配分类，"all" 或空表示不过滤
	UrgentOnly bool    // 只看紧急活动
	Sort       SortKey // 排序方式
}

// Apply 对完整活动集合应用筛选与排序，返回新的切片
//
// 流水线顺序：搜索 → 分类 → 紧急过滤 → 排序。输入不会被修改。
func Apply(campaigns []model.StoredCampaign, q Query, now time.Time) []model.StoredCampaign {
	result := make([]model.StoredCampaign, 0, len(campaigns))

	search := strings.ToLower(strings.TrimSpace(q.Search))
	for _, c := range campaigns {
		if search != "" && !matchesSearch(&c, search) {
			continue
		}
		if q.Category != "" && q.Category != CategoryAll && c.Category != q.Category {
			continue
		}
		if q.UrgentOnly && c.Priority != model.PriorityUrgent {
			continue
		}
		result = append(result, c)
	}

	sortCampaigns(result, q.Sort, now)
	return result
}

// DaysRemaining 计算剩余天数：ceil((截止时间-当前时间)/1天)，最小为0
func DaysRemaining(c *model.StoredCampaign, now time.Time) int {
	remaining := c.EndTime().Sub(now)
	if remaining <= 0 {
		return 0
	}

	const day = 24 * time.Hour
	days := int(remaining / day)
	if remaining%day > 0 {
		days++
	}
	return days
}

// matchesSearch 标题或描述包含搜索词（忽略大小写）
func matchesSearch(c *model.StoredCampaign, search string) bool {
	return strings.Contains(strings.ToLower(c.Title), search) ||
		strings.Contains(strings.ToLower(c.Description), search)
}

// sortCampaigns 按指定方式排序
func sortCampaigns(campaigns []model.StoredCampaign, key SortKey, now time.Time) {
	switch key {
	case SortEnding:
		sort.SliceStable(campaigns, func(i, j int) bool {
			return DaysRemaining(&campaigns[i], now) < DaysRemaining(&campaigns[j], now)
		})
	case SortFunded:
		sort.SliceStable(campaigns, func(i, j int) bool {
			return campaigns[i].RaisedAmount > campaigns[j].RaisedAmount
		})
	case SortPriority:
		sort.SliceStable(campaigns, func(i, j int) bool {
			ui := campaigns[i].Priority == model.PriorityUrgent
			uj := campaigns[j].Priority == model.PriorityUrgent
			if ui != uj {
				return ui
			}
			return DaysRemaining(&campaigns[i], now) < DaysRemaining(&campaigns[j], now)
		})
	default: // SortNewest
		sort.SliceStable(campaigns, func(i, j int) bool {
			return campaigns[i].CreatedAt.After(campaigns[j].CreatedAt)
		})
	}
}
