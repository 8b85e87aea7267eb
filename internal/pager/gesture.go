package pager

// Phase 手势事件所处的阶段
// Phase is the stage of a gesture event
type Phase string

const (
	PhaseBegin  Phase = "begin"
	PhaseUpdate Phase = "update"
	PhaseEnd    Phase = "end"
)

// GestureEvent 是呈现层上报的一次滑动事件。只有 end 阶段的事件
// 才会进入 Interpret；begin/update 仅用于视口跟手插值。
// GestureEvent is one swipe event reported by the presentation layer. Only
// end-phase events are fed into Interpret; begin/update only drive the
// viewport's finger-following interpolation.
type GestureEvent struct {
	Translation float64
	Velocity    float64
	Phase       Phase
}

// Outcome 是手势判定结果。ExitRequested 为 true 时表示在 feed 页
// 继续回滑，应当关闭/退出而不是把索引变成 -1。
// Outcome is the gesture decision. ExitRequested means the user swiped
// back while already on the feed page: the caller should close/exit
// rather than navigate to index -1.
type Outcome struct {
	TargetIndex   int
	ExitRequested bool
}

// Interpret 将一次 end 阶段的滑动翻译为目标索引。纯函数，
// 不依赖任何动画运行时：
//   - 位移超过页宽 1/4 或速度超过阈值（正方向 = 拖向更低索引）向后翻页；
//     已在 feed 页时给出 ExitRequested 信号；
//   - 反方向超阈值则向前翻页，钳制在 pageCount；
//   - 其余情况回弹到当前页。
//
// Interpret translates one end-phase swipe into a target index. Pure
// function, independent of any animation runtime:
//   - a translation beyond a quarter page width, or a fling beyond the
//     velocity threshold (positive = dragged toward lower indices), pages
//     backward; on the feed page it yields the ExitRequested signal instead;
//   - the opposite direction beyond the thresholds pages forward, clamped
//     at pageCount;
//   - anything else snaps back to the current page.
func Interpret(cfg Config, translation, velocity float64, currentIndex, pageCount int) Outcome {
	threshold := 0.25 * cfg.PageWidth

	switch {
	case translation > threshold || velocity > cfg.VelocityThreshold:
		if currentIndex == 0 {
			return Outcome{TargetIndex: 0, ExitRequested: true}
		}
		return Outcome{TargetIndex: currentIndex - 1}
	case translation < -threshold || velocity < -cfg.VelocityThreshold:
		target := currentIndex + 1
		if target > pageCount {
			target = pageCount
		}
		return Outcome{TargetIndex: target}
	default:
		return Outcome{TargetIndex: currentIndex}
	}
}
