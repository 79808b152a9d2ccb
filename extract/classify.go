package extract

import (
	"regexp"
	"sort"
	"strings"
)

// categoryBuckets are tried in order; the first bucket with a keyword hit wins.
var categoryBuckets = []struct {
	category string
	keywords []string
}{
	{"template", []string{"template", "theme", "ui kit", "mockup"}},
	{"course", []string{"course", "tutorial", "lesson", "masterclass", "curriculum"}},
	{"ebook", []string{"ebook", "e-book", "book", "guide", "pdf"}},
	{"software", []string{"software", "app", "saas", "plugin", "tool", "api"}},
	{"graphics", []string{"graphic", "icon", "illustration", "vector", "design asset"}},
	{"font", []string{"font", "typeface", "typography"}},
	{"music", []string{"music", "audio", "sound", "beat", "sample pack"}},
	{"video", []string{"video", "footage", "animation", "motion"}},
}

var hashtagPattern = regexp.MustCompile(`#(\w+)`)

var stopwords = map[string]struct{}{
	"this": {}, "that": {}, "with": {}, "from": {}, "your": {}, "have": {},
	"will": {}, "more": {}, "what": {}, "when": {}, "where": {}, "which": {},
	"their": {}, "about": {}, "into": {}, "them": {}, "then": {}, "than": {},
	"they": {}, "only": {}, "also": {}, "been": {}, "were": {}, "some": {},
	"over": {}, "such": {}, "most": {}, "each": {}, "just": {}, "like": {},
	"make": {}, "made": {}, "very": {}, "here": {}, "there": {}, "these": {},
	"those": {}, "other": {}, "after": {}, "before": {}, "while": {}, "every": {},
}

const (
	maxTags          = 15
	topFrequentWords = 10
)

// classifyCategory buckets combined page text by keyword groups, falling
// back to the profile's first declared category, then a generic label.
func classifyCategory(text string, profileCategories []string) string {
	lower := strings.ToLower(text)
	for _, bucket := range categoryBuckets {
		for _, kw := range bucket.keywords {
			if strings.Contains(lower, kw) {
				return bucket.category
			}
		}
	}
	if len(profileCategories) > 0 {
		return profileCategories[0]
	}
	return "digital-product"
}

// extractTags merges hashtag tokens with the most frequent long words.
func extractTags(text string) []string {
	seen := make(map[string]struct{})
	var tags []string
	add := func(tag string) {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			return
		}
		if _, dup := seen[tag]; dup {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	for _, m := range hashtagPattern.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}

	for _, word := range topWords(text, topFrequentWords) {
		add(word)
	}

	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	return tags
}

// topWords returns the n most frequent non-stopword tokens longer than
// three characters, ties broken alphabetically for determinism.
func topWords(text string, n int) []string {
	freq := make(map[string]int)
	for _, raw := range strings.Fields(strings.ToLower(text)) {
		word := strings.Trim(raw, ".,!?:;()[]{}\"'#*-_")
		if len(word) <= 3 {
			continue
		}
		if _, stop := stopwords[word]; stop {
			continue
		}
		if !isAlphanumeric(word) {
			continue
		}
		freq[word]++
	}

	words := make([]string, 0, len(freq))
	for word := range freq {
		words = append(words, word)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] != freq[words[j]] {
			return freq[words[i]] > freq[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > n {
		words = words[:n]
	}
	return words
}

func isAlphanumeric(word string) bool {
	for _, r := range word {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return len(word) > 0
}
