package i18n

// EnMessages English message catalog
var EnMessages = map[string]string{
	// Feed page
	"feed.title":        "Tangent",
	"feed.recent":       "Recent",
	"feed.pinned":       "Pinned",
	"feed.archived":     "Archived",
	"feed.empty":        "No sessions yet. Ask something to start one.",
	"feed.search_empty": "No sessions match %q.",

	// Input
	"input.placeholder":  "Ask a question... (Enter to send)",
	"input.search":       "Search sessions...",
	"input.answering":    "Answering...",

	// Status bar
	"status.ready":      "Ready",
	"status.page":       "Page %d/%d",
	"status.feed":       "Feed",
	"status.session":    "Session: %s",
	"status.transition": "Turning...",

	// Session views
	"session.untitled":  "Untitled",
	"session.questions": "%d questions",
	"session.pinned":    "pinned",
	"session.archived":  "archived",

	// Stats
	"stats.title":     "Stats",
	"stats.sessions":  "Sessions: %d total, %d active",
	"stats.questions": "Questions: %d",
	"stats.tags":      "Top tags",

	// Keybindings
	"keys.left":    "←/h prev page",
	"keys.right":   "→/l next page",
	"keys.enter":   "enter ask",
	"keys.pin":     "p pin",
	"keys.archive": "a archive",
	"keys.delete":  "d delete",
	"keys.search":  "/ search",
	"keys.new":     "n new session",
	"keys.quit":    "ctrl+c quit",

	// Errors
	"error.provider":       "Provider error: %s",
	"error.empty_question": "Question cannot be empty",
	"error.storage":        "Storage error: %s",
	"error.load":           "Failed to load sessions: %s",
}
