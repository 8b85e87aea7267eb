package session

import (
	"strings"
	"unicode"
)

const autoTitleWords = 4

// stopwords are common function words excluded from tag extraction.
var stopwords = map[string]bool{
	"about": true, "after": true, "also": true, "been": true, "before": true,
	"being": true, "between": true, "could": true, "does": true, "doing": true,
	"down": true, "each": true, "every": true, "from": true, "have": true,
	"having": true, "here": true, "into": true, "just": true, "like": true,
	"more": true, "most": true, "much": true, "only": true, "other": true,
	"over": true, "same": true, "should": true, "some": true, "such": true,
	"than": true, "that": true, "their": true, "them": true, "then": true,
	"there": true, "these": true, "they": true, "this": true, "those": true,
	"through": true, "under": true, "very": true, "we're": true, "were": true,
	"what": true, "when": true, "where": true, "which": true, "while": true,
	"will": true, "with": true, "would": true, "your": true,
}

// deriveAutoTitle 从第一条问题派生展示标题：去标点、取前四个词、
// 逐词首字母大写。只在第一条问题时计算一次。
// deriveAutoTitle builds the display title from the first question: strip
// punctuation, keep the first four words, title-case each. Computed once,
// on the first question only.
func deriveAutoTitle(question string) string {
	words := splitWords(question)
	if len(words) > autoTitleWords {
		words = words[:autoTitleWords]
	}
	for i, w := range words {
		words[i] = titleCase(w)
	}
	return strings.Join(words, " ")
}

// derivePreview 截断问题文本，超长时追加省略标记。
// derivePreview truncates the question, appending an ellipsis marker when cut.
func derivePreview(question string, maxRunes int) string {
	question = strings.TrimSpace(question)
	runes := []rune(question)
	if len(runes) <= maxRunes {
		return question
	}
	return string(runes[:maxRunes]) + "..."
}

// extractTags 从问题中提取关键词：小写、去标点、过滤短词与停用词、
// 保序去重。
// extractTags pulls keywords out of a question: lowercase, punctuation
// stripped, short words and stopwords filtered, deduplicated in order.
func extractTags(question string) []string {
	var tags []string
	seen := map[string]bool{}
	for _, w := range splitWords(question) {
		w = strings.ToLower(w)
		if len([]rune(w)) < 4 || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		tags = append(tags, w)
	}
	return tags
}

// mergeTags unions new tags into prior ones, keeping first-seen order.
func mergeTags(prior, extracted []string) []string {
	seen := make(map[string]bool, len(prior))
	merged := append([]string(nil), prior...)
	for _, t := range prior {
		seen[t] = true
	}
	for _, t := range extracted {
		if !seen[t] {
			seen[t] = true
			merged = append(merged, t)
		}
	}
	return merged
}

// splitWords splits on whitespace and strips leading/trailing punctuation
// from each word; words that were pure punctuation disappear.
func splitWords(s string) []string {
	var words []string
	for _, field := range strings.Fields(s) {
		w := strings.TrimFunc(field, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

func titleCase(w string) string {
	runes := []rune(strings.ToLower(w))
	if len(runes) == 0 {
		return w
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
