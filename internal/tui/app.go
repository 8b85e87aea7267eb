package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tangent/internal/config"
	"tangent/internal/connection"
	"tangent/internal/geometry"
	"tangent/internal/i18n"
	"tangent/internal/page"
	"tangent/internal/pager"
	"tangent/internal/provider"
	"tangent/internal/session"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// 模拟手势的按键位移占页宽的比例，超过 1/4 页宽即触发翻页。
// Key presses synthesize a swipe of this fraction of the page width,
// beyond the quarter-page threshold that forces a page turn.
const keySwipeFraction = 0.3

const answerTimeout = 60 * time.Second

// --- Tea Messages ---

// AnswerMsg 携带一次问题的回答
// AnswerMsg carries the answer to one question
type AnswerMsg struct {
	SessionID    string
	PageID       string
	ConnectionID string
	Content      string
	Err          error
}

// TransitionDoneMsg 视口转场动画结束
// TransitionDoneMsg indicates the viewport transition finished
type TransitionDoneMsg struct {
	SessionID    string
	ConnectionID string
}

// App Bubble Tea 主 Model
// App is the main Bubble Tea model
type App struct {
	// 布局 / Layout
	width  int
	height int

	// 依赖 / Dependencies
	cfg   config.Config
	store *session.Store
	prov  provider.Provider
	conn  *connection.Manager

	// Feed 状态 / Feed state
	feedItems []session.Preview
	cursor    int
	searching bool
	query     string

	// 会话状态 / Session state
	sessionID string
	answers   map[string]string
	answering bool

	// 组件 / Components
	input        textarea.Model
	pageView     viewport.Model
	spin         spinner.Model
	inputFocused bool

	// 状态 / State
	lastError string

	// 配置 / Config
	theme  Theme
	keys   KeyMap
	locale *i18n.I18n
}

// NewApp 创建 TUI 应用
// NewApp creates a new TUI application
func NewApp(cfg config.Config, store *session.Store, prov provider.Provider) App {
	ta := textarea.New()
	ta.Placeholder = i18n.T("input.placeholder")
	ta.CharLimit = 4096
	ta.SetHeight(2)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	app := App{
		cfg:     cfg,
		store:   store,
		prov:    prov,
		conn:    connection.NewManager(),
		answers: make(map[string]string),
		input:   ta,
		spin:    sp,
		theme:   DarkTheme(),
		keys:    DefaultKeyMap(),
		locale:  i18n.Global(),
	}
	app.refreshFeed()
	return app
}

func (a App) Init() tea.Cmd {
	return textarea.Blink
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "esc":
			return a.handleEscape(), nil
		case "enter":
			if a.inputFocused {
				return a.handleSubmit()
			}
			if a.sessionID == "" {
				return a.openSelected()
			}
		}

		if a.sessionID != "" {
			if a.input.Value() == "" {
				// 输入为空时，左右键合成翻页手势
				// With an empty input, arrow keys synthesize swipe gestures
				switch msg.String() {
				case "left", "h":
					return a.swipe(+1)
				case "right", "l":
					return a.swipe(-1)
				}
			}
		} else if !a.inputFocused {
			return a.handleFeedKey(msg)
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.relayout()
		return a, nil

	case AnswerMsg:
		return a.handleAnswer(msg), nil

	case TransitionDoneMsg:
		if msg.SessionID == a.sessionID {
			if err := a.store.CompleteTransition(a.sessionID); err == nil && msg.ConnectionID != "" {
				a.conn.CompleteReveal(msg.ConnectionID)
			}
			a.syncPageView()
		}
		return a, nil

	case spinner.TickMsg:
		if a.answering {
			var cmd tea.Cmd
			a.spin, cmd = a.spin.Update(msg)
			a.syncPageView()
			return a, cmd
		}
		return a, nil
	}

	// 更新输入区 / Update input area
	if a.inputFocused {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		cmds = append(cmds, cmd)
		if a.searching {
			a.query = strings.TrimSpace(a.input.Value())
			a.refreshFeed()
		}
	}

	return a, tea.Batch(cmds...)
}

// --- 按键处理 / Key handling ---

func (a App) handleEscape() App {
	switch {
	case a.searching:
		a.searching = false
		a.query = ""
		a.input.Reset()
		a.blurInput()
		a.refreshFeed()
	case a.inputFocused && a.sessionID == "":
		a.input.Reset()
		a.blurInput()
	case a.sessionID != "":
		a.leaveSession()
	}
	return a
}

func (a App) handleFeedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.CursorUp):
		if a.cursor > 0 {
			a.cursor--
		}
	case key.Matches(msg, a.keys.CursorDown):
		if a.cursor < len(a.feedItems)-1 {
			a.cursor++
		}
	case key.Matches(msg, a.keys.NewSession):
		a.focusInput(i18n.T("input.placeholder"))
	case key.Matches(msg, a.keys.Search):
		a.searching = true
		a.focusInput(i18n.T("input.search"))
	case key.Matches(msg, a.keys.Pin):
		if item, ok := a.selected(); ok {
			if _, err := a.store.TogglePinned(item.ID); err != nil {
				a.lastError = err.Error()
			}
			a.refreshFeed()
		}
	case key.Matches(msg, a.keys.Archive):
		if item, ok := a.selected(); ok {
			if _, err := a.store.ToggleArchived(item.ID); err != nil {
				a.lastError = err.Error()
			}
			a.refreshFeed()
		}
	case key.Matches(msg, a.keys.Delete):
		if item, ok := a.selected(); ok {
			a.deleteSession(item.ID)
		}
	}
	return a, nil
}

func (a App) handleSubmit() (tea.Model, tea.Cmd) {
	if a.searching {
		// 保留过滤结果，焦点交还列表 / Keep the filter, focus returns to the list
		a.blurInput()
		return a, nil
	}
	text := strings.TrimSpace(a.input.Value())
	if text == "" {
		a.lastError = i18n.T("error.empty_question")
		return a, nil
	}
	return a.ask(text)
}

func (a App) openSelected() (tea.Model, tea.Cmd) {
	item, ok := a.selected()
	if !ok {
		return a, nil
	}
	sess, err := a.store.Get(item.ID)
	if err != nil {
		a.lastError = err.Error()
		return a, nil
	}
	a.enterSession(sess)
	return a, nil
}

// swipe 把按键合成为一次 end 阶段的滑动。direction +1 拖向更低索引。
// swipe synthesizes one end-phase swipe. Direction +1 drags toward
// lower indices.
func (a App) swipe(direction float64) (tea.Model, tea.Cmd) {
	sess, err := a.store.Get(a.sessionID)
	if err != nil {
		a.lastError = err.Error()
		return a, nil
	}

	pcfg := a.cfg.PagerConfig()
	out := pager.Interpret(pcfg, direction*keySwipeFraction*pcfg.PageWidth, 0,
		sess.Pager.CurrentIndex(), sess.Pager.PageCount())
	if out.ExitRequested {
		a.leaveSession()
		return a, nil
	}
	if out.TargetIndex == sess.Pager.CurrentIndex() && !sess.Pager.InTransition() {
		return a, nil
	}

	if _, err := a.store.NavigateTo(a.sessionID, out.TargetIndex); err != nil {
		a.lastError = err.Error()
		return a, nil
	}
	a.syncPageView()
	return a, a.transitionCmd("")
}

// --- 会话流程 / Session flow ---

// ask 追加一个问题页并导航过去；回答异步到达。
// ask appends a question page and navigates to it; the answer arrives
// asynchronously.
func (a App) ask(question string) (tea.Model, tea.Cmd) {
	if a.sessionID == "" {
		sess := a.store.Create()
		a.sessionID = sess.ID
	}
	sess, err := a.store.Get(a.sessionID)
	if err != nil {
		a.lastError = err.Error()
		return a, nil
	}

	pcfg := a.cfg.PagerConfig()
	origin := geometry.ToWorld(
		geometry.Point{X: pcfg.InsetX, Y: pcfg.InsetY},
		float64(sess.Pager.CurrentIndex()), pcfg.PageWidth)

	pg, err := a.store.AddQuestion(a.sessionID, question, origin)
	if err != nil {
		if errors.Is(err, pager.ErrTransitionInFlight) {
			// 转场中提交的问题直接丢弃 / Questions submitted mid-transition are dropped
			a.lastError = i18n.T("status.transition")
			return a, nil
		}
		a.lastError = err.Error()
		return a, nil
	}
	a.conn.Register(pg)

	if _, err := a.store.NavigateTo(a.sessionID, sess.Pager.PageCount()); err != nil {
		a.lastError = err.Error()
		return a, nil
	}

	a.input.Reset()
	a.focusInput(i18n.T("input.placeholder"))
	a.answering = true
	a.lastError = ""
	a.syncPageView()
	return a, tea.Batch(
		a.answerCmd(a.sessionID, pg),
		a.transitionCmd(pg.ConnectionID),
		a.spin.Tick,
	)
}

func (a *App) handleAnswer(msg AnswerMsg) App {
	app := *a
	if msg.SessionID != app.sessionID {
		// 已离开的会话的迟到回答直接忽略 / Late answers for a left session are ignored
		return app
	}
	app.answering = false
	if msg.Err != nil {
		app.lastError = i18n.T("error.provider", msg.Err.Error())
		return app
	}

	app.answers[msg.PageID] = msg.Content
	app.correctAnchor(msg.PageID, msg.ConnectionID, msg.Content)
	app.syncPageView()
	app.refreshFeed()
	return app
}

// correctAnchor 用渲染后的真实高度修正临时目标锚点。
// correctAnchor replaces the provisional target anchor with one measured
// from the rendered answer.
func (a *App) correctAnchor(pageID, connectionID, content string) {
	sess, err := a.store.Get(a.sessionID)
	if err != nil {
		return
	}
	index := -1
	for i, pg := range sess.Pager.Pages() {
		if pg.ID == pageID {
			index = i + 1
			break
		}
	}
	if index < 0 {
		return
	}

	rendered := RenderMarkdown(content, a.contentWidth())
	pcfg := a.cfg.PagerConfig()
	measured := geometry.ToWorld(
		geometry.Point{X: pcfg.InsetX, Y: pcfg.InsetY + float64(lipgloss.Height(rendered))},
		float64(index), pcfg.PageWidth)

	if _, err := a.store.CorrectTargetAnchor(a.sessionID, connectionID, measured); err != nil {
		return
	}
	a.conn.CorrectTarget(connectionID, measured)
}

func (a *App) enterSession(sess *session.Session) {
	a.sessionID = sess.ID
	a.conn = connection.NewManager()
	for _, pg := range sess.Pager.Pages() {
		a.conn.Register(pg)
	}
	a.focusInput(i18n.T("input.placeholder"))
	a.lastError = ""
	a.syncPageView()
}

func (a *App) leaveSession() {
	a.sessionID = ""
	a.conn = connection.NewManager()
	a.answering = false
	a.input.Reset()
	a.blurInput()
	a.refreshFeed()
}

func (a *App) deleteSession(id string) {
	if id == a.sessionID {
		for _, pg := range a.sessionPages() {
			a.conn.RemoveForPage(pg.ID)
		}
		a.leaveSession()
	}
	if err := a.store.Delete(id); err != nil {
		a.lastError = err.Error()
	}
	if a.cursor >= len(a.feedItems)-1 && a.cursor > 0 {
		a.cursor--
	}
	a.refreshFeed()
}

// --- Commands ---

func (a App) answerCmd(sessionID string, pg page.Page) tea.Cmd {
	prov := a.prov
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), answerTimeout)
		defer cancel()
		content, err := prov.Answer(ctx, pg.Question)
		return AnswerMsg{
			SessionID:    sessionID,
			PageID:       pg.ID,
			ConnectionID: pg.ConnectionID,
			Content:      content,
			Err:          err,
		}
	}
}

func (a App) transitionCmd(connectionID string) tea.Cmd {
	sessionID := a.sessionID
	return tea.Tick(a.cfg.TransitionDuration(), func(time.Time) tea.Msg {
		return TransitionDoneMsg{SessionID: sessionID, ConnectionID: connectionID}
	})
}

// --- 内部方法 / Internal methods ---

func (a *App) refreshFeed() {
	if a.searching && a.query != "" {
		a.feedItems = a.store.Search(a.query)
	} else {
		seen := make(map[string]bool)
		items := make([]session.Preview, 0)
		for _, p := range a.store.ListPinned() {
			seen[p.ID] = true
			items = append(items, p)
		}
		for _, p := range a.store.ListRecent() {
			if !seen[p.ID] {
				items = append(items, p)
			}
		}
		items = append(items, a.store.ListArchived()...)
		a.feedItems = items
	}
	if a.cursor >= len(a.feedItems) {
		a.cursor = len(a.feedItems) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

func (a App) selected() (session.Preview, bool) {
	if len(a.feedItems) == 0 || a.cursor >= len(a.feedItems) {
		return session.Preview{}, false
	}
	return a.feedItems[a.cursor], true
}

func (a App) sessionPages() []page.Page {
	sess, err := a.store.Get(a.sessionID)
	if err != nil {
		return nil
	}
	return sess.Pager.Pages()
}

func (a *App) focusInput(placeholder string) {
	a.input.Placeholder = placeholder
	a.input.Focus()
	a.inputFocused = true
}

func (a *App) blurInput() {
	a.input.Blur()
	a.inputFocused = false
}

func (a *App) relayout() {
	contentHeight := a.height - 7
	if contentHeight < 3 {
		contentHeight = 3
	}
	a.pageView = viewport.New(a.width, contentHeight)
	a.input.SetWidth(a.width - 4)
	a.syncPageView()
}

func (a App) contentWidth() int {
	if a.width <= 4 {
		return 80
	}
	return a.width - 4
}

// syncPageView 把当前页内容写进视口
// syncPageView writes the current page content into the viewport
func (a *App) syncPageView() {
	if a.sessionID == "" {
		return
	}
	sess, err := a.store.Get(a.sessionID)
	if err != nil {
		return
	}
	index := sess.Pager.PendingIndex()
	if index == 0 {
		a.pageView.SetContent(a.theme.MutedStyle.Render(a.locale.T("status.feed")))
		return
	}
	pages := sess.Pager.Pages()
	if index-1 >= len(pages) {
		return
	}
	pg := pages[index-1]

	var b strings.Builder
	b.WriteString(a.theme.QuestionStyle.Render("▸ " + pg.Question))
	b.WriteString("\n\n")
	if answer, ok := a.answers[pg.ID]; ok {
		b.WriteString(RenderMarkdown(answer, a.contentWidth()))
	} else if a.answering {
		b.WriteString(a.theme.MutedStyle.Render(a.spin.View() + " " + a.locale.T("input.answering")))
	} else {
		b.WriteString(a.theme.MutedStyle.Render("…"))
	}
	a.pageView.SetContent(b.String())
	a.pageView.GotoTop()
}

// --- 渲染方法 / Render methods ---

func (a App) View() string {
	if a.width == 0 || a.height == 0 {
		return "Initializing..."
	}
	if a.sessionID != "" {
		return a.viewSession()
	}
	return a.viewFeed()
}

func (a App) viewFeed() string {
	var parts []string

	stats := a.store.Stats()
	header := a.theme.TitleStyle.Render(" "+a.locale.T("feed.title")) + "  " +
		a.theme.MutedStyle.Render(a.locale.T("stats.sessions", stats.TotalSessions, stats.ActiveSessions))
	parts = append(parts, header, "")

	if len(a.feedItems) == 0 {
		if a.searching && a.query != "" {
			parts = append(parts, a.theme.MutedStyle.Render(" "+a.locale.T("feed.search_empty", a.query)))
		} else {
			parts = append(parts, a.theme.MutedStyle.Render(" "+a.locale.T("feed.empty")))
		}
	}

	var section string
	for i, item := range a.feedItems {
		next := a.sectionOf(item)
		if next != section {
			section = next
			parts = append(parts, a.theme.SectionStyle.Render(" "+section))
		}
		parts = append(parts, a.renderFeedItem(item, i == a.cursor))
	}

	if len(stats.FavoriteTags) > 0 {
		tags := make([]string, 0, len(stats.FavoriteTags))
		for _, tc := range stats.FavoriteTags {
			tags = append(tags, fmt.Sprintf("#%s(%d)", tc.Tag, tc.Count))
		}
		parts = append(parts, "", a.theme.MutedStyle.Render(" "+a.locale.T("stats.tags")+": "+strings.Join(tags, " ")))
	}

	body := strings.Join(parts, "\n")
	return a.frame(body)
}

func (a App) sectionOf(item session.Preview) string {
	if a.searching && a.query != "" {
		return a.locale.T("feed.recent")
	}
	switch {
	case item.Archived:
		return a.locale.T("feed.archived")
	case item.Pinned:
		return a.locale.T("feed.pinned")
	default:
		return a.locale.T("feed.recent")
	}
}

func (a App) renderFeedItem(item session.Preview, selected bool) string {
	title := item.Title
	if title == "" {
		title = a.locale.T("session.untitled")
	}

	marker := "  "
	if item.Pinned {
		marker = a.theme.PinnedStyle.Render("★ ")
	}

	line := fmt.Sprintf("%s%s  %s", marker, title,
		a.theme.MutedStyle.Render(a.locale.T("session.questions", item.QuestionCount)))
	if item.Preview != "" {
		line += "\n    " + a.theme.MutedStyle.Render(item.Preview)
	}
	if len(item.Tags) > 0 {
		line += "  " + RenderTags(item.Tags, a.theme)
	}

	if selected {
		return a.theme.SelectedStyle.Render("▌") + line
	}
	return " " + line
}

func (a App) viewSession() string {
	sess, err := a.store.Get(a.sessionID)
	if err != nil {
		return a.frame(a.theme.ErrorStyle.Render(err.Error()))
	}

	index := sess.Pager.PendingIndex()
	dots := RenderDots(index, sess.Pager.PageCount()+1, a.theme)

	var parts []string
	parts = append(parts, " "+dots)
	parts = append(parts, a.pageView.View())

	if lines := a.conn.Active(); len(lines) > 0 {
		rendered := make([]string, 0, len(lines))
		for _, l := range lines {
			rendered = append(rendered, "  "+RenderConnector(l, a.theme))
		}
		parts = append(parts, strings.Join(rendered, "\n"))
	}

	return a.frame(strings.Join(parts, "\n"))
}

func (a App) frame(body string) string {
	inputBox := a.theme.InputStyle.Width(a.width).Render(a.input.View())
	status := a.renderStatusBar()
	return lipgloss.JoinVertical(lipgloss.Left, body, inputBox, status)
}

func (a App) renderStatusBar() string {
	var left string
	if a.sessionID == "" {
		left = " " + a.locale.T("status.ready")
	} else if sess, err := a.store.Get(a.sessionID); err == nil {
		title := sess.Title
		if title == "" {
			title = a.locale.T("session.untitled")
		}
		left = " " + a.locale.T("status.session", title) + " · " +
			a.locale.T("status.page", sess.Pager.PendingIndex(), sess.Pager.PageCount())
		if sess.Pager.InTransition() {
			left += " · " + a.locale.T("status.transition")
		}
	}
	if a.lastError != "" {
		left += " · " + a.theme.ErrorStyle.Render(a.lastError)
	}

	right := a.locale.T("keys.quit") + "  "
	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return a.theme.StatusBarStyle.Width(a.width).Render(left + strings.Repeat(" ", gap) + right)
}

// Run 启动 Bubble Tea TUI
// Run starts the Bubble Tea TUI application
func Run(cfg config.Config, store *session.Store, prov provider.Provider) error {
	app := NewApp(cfg, store, prov)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
