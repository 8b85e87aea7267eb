package pager

import (
	"errors"

	"tangent/internal/geometry"
	"tangent/internal/page"
)

// ErrTransitionInFlight 表示在转场进行中触发了 AppendPage。
// 策略是丢弃该次调用（视为重复触发），不排队、不叠加转场。
// ErrTransitionInFlight reports AppendPage being triggered while a
// transition is already in flight. The policy is to drop the call as a
// duplicate trigger; transitions are never queued or stacked.
var ErrTransitionInFlight = errors.New("page transition already in flight")

// Config 分页器参数
// Config holds pager parameters
type Config struct {
	// PageWidth 单页在世界坐标中的宽度
	// PageWidth is the width of one page in world space
	PageWidth float64
	// VelocityThreshold 触发翻页的滑动速度阈值
	// VelocityThreshold is the fling velocity that forces a page turn
	VelocityThreshold float64
	// InsetX/InsetY 新结果页临时目标锚点相对页面原点的偏移
	// InsetX/InsetY offset the provisional target anchor from the page origin
	InsetX float64
	InsetY float64
}

// Pager 拥有有序结果页列表、当前索引与转场标志。feed 页隐式占据索引 0，
// 索引 k>0 对应 pages[k-1]。所有方法都必须在同一事件循环中调用。
// Pager owns the ordered result pages, the current index and the transition
// flag. The feed page implicitly occupies index 0; index k>0 addresses
// pages[k-1]. All methods must be called from a single event loop.
type Pager struct {
	cfg           Config
	pages         []page.Page
	current       int
	transitioning bool
	pendingTarget int
}

// New 创建空的分页器，初始停留在 feed 页
// New creates an empty pager resting on the feed page
func New(cfg Config) *Pager {
	return &Pager{cfg: cfg}
}

// Restore 从持久化状态重建分页器。索引被钳制回合法区间，
// 转场标志总是复位（持久化期间的转场不会恢复）。
// Restore rebuilds a pager from persisted state. The index is clamped back
// into range and the transition flag is always reset; a transition that was
// in flight at save time does not survive a restart.
func Restore(cfg Config, pages []page.Page, currentIndex int) *Pager {
	p := &Pager{cfg: cfg, pages: append([]page.Page(nil), pages...)}
	p.current = clamp(currentIndex, 0, len(p.pages))
	return p
}

// Pages returns a copy of the result pages in creation order.
func (p *Pager) Pages() []page.Page {
	return append([]page.Page(nil), p.pages...)
}

// PageCount returns the number of result pages (the maximum index).
func (p *Pager) PageCount() int {
	return len(p.pages)
}

// CurrentIndex returns the resting index (0 is the feed page).
func (p *Pager) CurrentIndex() int {
	return p.current
}

// InTransition reports whether a viewport transition is in flight.
func (p *Pager) InTransition() bool {
	return p.transitioning
}

// PendingIndex returns the index a running transition will land on,
// or the current index when idle.
func (p *Pager) PendingIndex() int {
	if p.transitioning {
		return p.pendingTarget
	}
	return p.current
}

// AppendPage 追加一个结果页并开始向它转场。目标锚点先使用占位值，
// 待测量回调到达后通过 CorrectTargetAnchor 修正。
// AppendPage appends a result page and starts the transition toward it.
// The target anchor starts as a placeholder and is corrected through
// CorrectTargetAnchor once the measurement callback lands.
func (p *Pager) AppendPage(question string, origin geometry.Point) (page.Page, error) {
	if p.transitioning {
		return page.Page{}, ErrTransitionInFlight
	}

	targetIndex := len(p.pages) + 1
	provisional := geometry.Point{
		X: float64(targetIndex)*p.cfg.PageWidth + p.cfg.InsetX,
		Y: p.cfg.InsetY,
	}
	pg, err := page.NewResultPage(question, origin, provisional)
	if err != nil {
		return page.Page{}, err
	}

	p.pages = append(p.pages, pg)
	p.transitioning = true
	p.pendingTarget = targetIndex
	return pg, nil
}

// NavigateTo 将索引钳制进 [0, PageCount] 并向其转场；已在目标页则为 no-op。
// 转场进行中调用只重定向待定目标，不叠加第二次转场。
// NavigateTo clamps the index into [0, PageCount] and transitions toward
// it; already being there is a no-op. Calling mid-transition retargets the
// pending transition instead of stacking a second one.
func (p *Pager) NavigateTo(index int) (target int, started bool) {
	target = clamp(index, 0, len(p.pages))
	if p.transitioning {
		p.pendingTarget = target
		return target, true
	}
	if target == p.current {
		return target, false
	}
	p.transitioning = true
	p.pendingTarget = target
	return target, true
}

// CompleteTransition 收尾转场：落位到待定索引并回到 Idle。
// 没有转场时调用是 no-op。
// CompleteTransition settles the transition: the pager lands on the pending
// index and returns to Idle. Calling while idle is a no-op.
func (p *Pager) CompleteTransition() {
	if !p.transitioning {
		return
	}
	p.current = p.pendingTarget
	p.transitioning = false
}

// CorrectTargetAnchor 按 connection id 原地修正对应页的目标锚点。
// 只改该页的 TargetAnchor，绝不影响当前索引或其他页。
// CorrectTargetAnchor corrects the target anchor of the page matching the
// connection id. It only ever touches that page's TargetAnchor, never the
// current index or any other page.
func (p *Pager) CorrectTargetAnchor(connectionID string, measured geometry.Point) (page.Page, bool) {
	for i, pg := range p.pages {
		if pg.ConnectionID == connectionID {
			p.pages[i] = pg.WithTargetAnchor(measured)
			return p.pages[i], true
		}
	}
	return page.Page{}, false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
