package i18n

// ZhCNMessages 中文消息目录 / Chinese message catalog
var ZhCNMessages = map[string]string{
	// Feed page
	"feed.title":        "Tangent",
	"feed.recent":       "最近",
	"feed.pinned":       "已固定",
	"feed.archived":     "已归档",
	"feed.empty":        "还没有会话。提个问题开始吧。",
	"feed.search_empty": "没有匹配 %q 的会话。",

	// Input
	"input.placeholder": "输入问题...（回车发送）",
	"input.search":      "搜索会话...",
	"input.answering":   "回答中...",

	// Status bar
	"status.ready":      "就绪",
	"status.page":       "第 %d/%d 页",
	"status.feed":       "首页",
	"status.session":    "会话：%s",
	"status.transition": "翻页中...",

	// Session views
	"session.untitled":  "未命名",
	"session.questions": "%d 个问题",
	"session.pinned":    "固定",
	"session.archived":  "归档",

	// Stats
	"stats.title":     "统计",
	"stats.sessions":  "会话：共 %d 个，活跃 %d 个",
	"stats.questions": "问题：%d 个",
	"stats.tags":      "常用标签",

	// Keybindings
	"keys.left":    "←/h 上一页",
	"keys.right":   "→/l 下一页",
	"keys.enter":   "enter 提问",
	"keys.pin":     "p 固定",
	"keys.archive": "a 归档",
	"keys.delete":  "d 删除",
	"keys.search":  "/ 搜索",
	"keys.new":     "n 新建会话",
	"keys.quit":    "ctrl+c 退出",

	// Errors
	"error.provider":       "模型服务错误：%s",
	"error.empty_question": "问题不能为空",
	"error.storage":        "存储错误：%s",
	"error.load":           "加载会话失败：%s",
}
