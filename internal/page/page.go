package page

import (
	"errors"
	"strings"

	"tangent/internal/geometry"

	"github.com/google/uuid"
)

// Kind 页面类型
// Kind classifies a page
type Kind string

const (
	// KindFeed 是主信息流页面，始终位于索引 0
	// KindFeed is the primary feed page, always at index 0
	KindFeed Kind = "feed"
	// KindResult 是由追问动作创建的结果页面
	// KindResult is a result page spawned by a follow-up question
	KindResult Kind = "result"
)

// ErrEmptyQuestion 表示结果页缺少非空问题文本
// ErrEmptyQuestion reports a result page constructed without question text
var ErrEmptyQuestion = errors.New("question text is empty")

// Page 是一个可导航单元。ID 与 OriginAnchor 创建后不可变；
// TargetAnchor 在目标 UI 完成测量后可被原地修正。
// Page is one navigable unit. ID and OriginAnchor are immutable after
// creation; TargetAnchor may be corrected in place once the destination UI
// has been measured.
type Page struct {
	ID           string         `json:"id"`
	Kind         Kind           `json:"kind"`
	Question     string         `json:"question,omitempty"`
	OriginAnchor geometry.Point `json:"origin_anchor"`
	TargetAnchor geometry.Point `json:"target_anchor"`
	ConnectionID string         `json:"connection_id,omitempty"`
}

// NewFeedPage 构造唯一的 feed 页（无问题、无锚点）
// NewFeedPage builds the singleton feed page (no question, no anchors)
func NewFeedPage() Page {
	return Page{ID: uuid.NewString(), Kind: KindFeed}
}

// NewResultPage 构造结果页并分配新的 id 与 connection id。
// provisionalTarget 是测量回调到达前的占位目标锚点。
// NewResultPage builds a result page with fresh id and connection id.
// provisionalTarget is the placeholder until the measurement callback lands.
func NewResultPage(question string, origin, provisionalTarget geometry.Point) (Page, error) {
	if strings.TrimSpace(question) == "" {
		return Page{}, ErrEmptyQuestion
	}
	return Page{
		ID:           uuid.NewString(),
		Kind:         KindResult,
		Question:     question,
		OriginAnchor: origin,
		TargetAnchor: provisionalTarget,
		ConnectionID: uuid.NewString(),
	}, nil
}

// WithTargetAnchor 返回将 TargetAnchor 替换为实测锚点的副本，其余字段不变。
// 幂等：相同锚点重复调用在可观察效果上是 no-op。
// WithTargetAnchor returns a copy with TargetAnchor set to the measured
// anchor, all other fields unchanged. Idempotent: repeating the same anchor
// is a no-op in observable effect.
func (p Page) WithTargetAnchor(measured geometry.Point) Page {
	p.TargetAnchor = measured
	return p
}
