package tui

import (
	"fmt"
	"strings"

	"tangent/internal/connection"

	"github.com/charmbracelet/glamour"
)

// RenderMarkdown 使用 Glamour 渲染 markdown 文本
// RenderMarkdown renders markdown text using Glamour
func RenderMarkdown(content string, width int) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content
	}

	return strings.TrimRight(rendered, "\n")
}

// RenderConnector 把一条连接线画成紧凑的折线摘要：
// 起点、每个拐点和终点，按路径顺序排列。
// RenderConnector draws a connector line as a compact polyline summary:
// start, every corner, and the end point in path order.
func RenderConnector(line connection.Line, theme Theme) string {
	path := line.Path()

	var b strings.Builder
	b.WriteString("●")
	for i, pt := range path.Points {
		if i > 0 {
			b.WriteString("─")
		}
		b.WriteString(fmt.Sprintf("(%.0f,%.0f)", pt.X, pt.Y))
	}
	b.WriteString("▶")

	glyph := b.String()
	if !line.Active {
		return theme.MutedStyle.Render(glyph)
	}
	return theme.ConnectorStyle.Render(glyph)
}

// RenderDots 渲染页面指示点，index 0 是 feed 页。
// RenderDots renders the page indicator dots; index 0 is the feed page.
func RenderDots(current, total int, theme Theme) string {
	if total <= 0 {
		return ""
	}
	parts := make([]string, 0, total)
	for i := 0; i < total; i++ {
		if i == current {
			parts = append(parts, theme.DotActiveStyle.Render("●"))
		} else {
			parts = append(parts, theme.DotStyle.Render("○"))
		}
	}
	return strings.Join(parts, " ")
}

// RenderTags 渲染标签列表
// RenderTags renders a tag list
func RenderTags(tags []string, theme Theme) string {
	if len(tags) == 0 {
		return ""
	}
	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		parts = append(parts, theme.TagStyle.Render("#"+tag))
	}
	return strings.Join(parts, " ")
}
