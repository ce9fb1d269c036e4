// Package search ranks generation prompts against a free-text query. It is
// deterministic, stateless, and dependency-free:
//
//   - No logging in the library (callers decide how/what to log)
//   - Unicode-aware tokenization with optional stop-word removal
//   - Deterministic scoring and sorting (stable order for ties)
//
// Scoring uses Jaccard similarity between the query token set and each
// prompt's token set: score = |Q ∩ P| / |Q ∪ P|.
package search

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Item is a candidate to rank: an opaque identifier plus the prompt text it
// was generated from.
type Item struct {
	ID     string
	Prompt string
}

// Match is a ranked item with its similarity score.
type Match struct {
	ID    string
	Score float64
}

// Ranker scores items against queries. Construct with NewRanker.
type Ranker struct {
	stopwords map[string]struct{}
}

type Option func(*Ranker)

// WithStopwords drops the given words from both query and prompt token sets.
func WithStopwords(words []string) Option {
	return func(r *Ranker) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			r.stopwords = m
		}
	}
}

func NewRanker(opts ...Option) *Ranker {
	r := &Ranker{}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Rank returns up to k best-matching items by Jaccard similarity, best first.
// Items with no token overlap are omitted. Ties break by shorter prompt,
// then by ID, so the order is stable across calls.
func (r *Ranker) Rank(query string, items []Item, k int) []Match {
	if len(items) == 0 || strings.TrimSpace(query) == "" {
		return nil
	}
	if k <= 0 {
		k = 10
	}
	qTokens := tokenize(query, r.stopwords)
	if len(qTokens) == 0 {
		return nil
	}
	qLen := len(qTokens)

	type scored struct {
		id       string
		score    float64
		lenRunes int
	}

	buf := make([]scored, 0, len(items))
	for _, item := range items {
		pTokens := tokenize(item.Prompt, r.stopwords)
		over := overlap(qTokens, pTokens)
		if over == 0 {
			continue
		}
		union := float64(qLen + len(pTokens) - over)
		if union <= 0 {
			continue
		}
		buf = append(buf, scored{
			id:       item.ID,
			score:    float64(over) / union,
			lenRunes: utf8.RuneCountInString(item.Prompt),
		})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].score != buf[b].score {
			return buf[a].score > buf[b].score
		}
		if buf[a].lenRunes != buf[b].lenRunes {
			return buf[a].lenRunes < buf[b].lenRunes
		}
		return buf[a].id < buf[b].id
	})

	if k > len(buf) {
		k = len(buf)
	}
	out := make([]Match, k)
	for i := 0; i < k; i++ {
		out[i] = Match{ID: buf[i].id, Score: buf[i].score}
	}
	return out
}

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	s = strings.ToLower(s)
	words := wordRE.FindAllString(s, -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := 0
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}
