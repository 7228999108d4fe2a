// Package classifier detects human-escalation intent in inbound
// customer messages. Classification is pure and deterministic: no I/O,
// no error path.
package classifier

import (
	"regexp"
	"strings"
)

// Tier is the escalation priority class assigned to a match.
type Tier string

const (
	// TierOwner covers requests naming the owner or a manager role.
	TierOwner Tier = "A"
	// TierHuman covers generic human hand-off requests.
	TierHuman Tier = "B"
	// TierStandalone covers strong stand-alone phrases that need no
	// action-verb structure. Safety net behind the tier B complaint scan.
	TierStandalone Tier = "C"
)

// Match describes which phrase fired and in which sentence.
type Match struct {
	Tier     Tier
	Phrase   string
	Sentence string
}

var (
	punctToPeriod = strings.NewReplacer("?", ".", "!", ".")
	nonWordRe     = regexp.MustCompile(`[^a-z0-9\s.]+`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// splitSentences normalizes raw message text and splits it into
// sentences. Sentence boundaries keep an exclusion phrase in one clause
// from defeating a trigger in another.
func splitSentences(text string) []string {
	s := strings.ToLower(text)
	s = punctToPeriod.Replace(s)
	s = nonWordRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")

	raw := strings.Split(s, ".")
	sentences := make([]string, 0, len(raw))
	for _, part := range raw {
		part = strings.TrimSpace(part)
		if part != "" {
			sentences = append(sentences, part)
		}
	}
	return sentences
}

// isExcluded reports whether the sentence contains any exclusion phrase.
// An excluded sentence cannot match any tier, even if it also contains a
// trigger word: "I need to speak to my wife" must never escalate.
// Callback phrases exclude only target-free sentences, so the
// owner-callback shapes ("jody needs to call me back") still fire.
func isExcluded(sentence string) bool {
	for _, phrase := range exclusionPhrases {
		if strings.Contains(sentence, phrase) {
			return true
		}
	}
	for _, phrase := range callbackPhrases {
		if strings.Contains(sentence, phrase) && !mentionsEscalationTarget(sentence) {
			return true
		}
	}
	return false
}

// Classify returns the first escalation match in the message, or nil.
// Sentences are evaluated in order; within a sentence tiers are tried
// highest priority first (A, then B, then C).
func Classify(text string) *Match {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	for _, sentence := range splitSentences(text) {
		if isExcluded(sentence) {
			continue
		}
		for _, rule := range tierRules {
			if phrase, ok := rule.match(sentence); ok {
				return &Match{
					Tier:     rule.tier,
					Phrase:   phrase,
					Sentence: sentence,
				}
			}
		}
	}
	return nil
}
