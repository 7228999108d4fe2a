package classifier

import (
	"fmt"
	"regexp"
	"strings"
)

// exclusionPhrases disqualify a whole sentence. Family and third-party
// references dominate this list; "talk about" keeps topic requests
// ("talk about pricing") from reading as hand-off requests.
var exclusionPhrases = []string{
	"my wife", "my husband", "my mom", "my mother", "my dad", "my father",
	"my son", "my daughter", "my brother", "my sister", "my family",
	"my friend", "my partner", "my lawyer", "my insurance",
	"talk about", "speak about", "talking about", "speaking about",
}

// callbackPhrases disqualify a sentence only when it names no owner or
// human target: "call me back tomorrow" is scheduling talk, but
// "have jody call me back" is the owner-callback shape and must reach
// the tier rules.
var callbackPhrases = []string{
	"call me later", "call me back", "text me later",
}

// ownerTargets are tier A names and roles. Matching is existential, so
// order within this list does not matter.
var ownerTargets = []string{
	"jody", "owner", "manager", "supervisor", "boss",
}

// botComplaintPhrases match tier B unconditionally, no action verb
// required. tierStandalonePhrases (tier C) shares this list as the
// fallback safety net behind the structured tier B rules.
var botComplaintPhrases = []string{
	"not a bot", "not a robot", "no bots", "stop the bot",
	"human please", "real human", "live human", "actual human",
}

var tierStandalonePhrases = botComplaintPhrases

// Single-word human targets for the structured tier B patterns.
var humanSingleTargets = []string{"human", "representative", "receptionist"}

// Multi-word human targets, matched with an optional article.
var humanMultiTargets = []string{
	"real person", "live agent", "actual person", "live person",
}

// Soft targets require a qualifier elsewhere in the sentence; a bare
// "someone" must never match.
var humanSoftTargets = []string{"someone", "somebody", "person"}

// escalationTargets is the union of owner and explicit human targets,
// used to decide whether a callback phrase is scheduling talk or part
// of a hand-off request.
var escalationTargets = func() []string {
	targets := make([]string, 0, len(ownerTargets)+len(humanSingleTargets)+len(humanMultiTargets))
	targets = append(targets, ownerTargets...)
	targets = append(targets, humanSingleTargets...)
	targets = append(targets, humanMultiTargets...)
	return targets
}()

func mentionsEscalationTarget(sentence string) bool {
	for _, target := range escalationTargets {
		if strings.Contains(sentence, target) {
			return true
		}
	}
	return false
}

var softQualifiers = []string{
	"there", "on your team", "at your company", "at the shop", "who works",
}

const (
	actionVerbs   = `(?:speak|talk|transfer|connect|switch)`
	reachVerbs    = `(?:get|reach|contact)`
	callbackVerbs = `(?:call|contact|reach|speak|talk)`
	optPronoun    = `(?:(?:me|us)\s+)?`
	optPrep       = `(?:(?:to|with)\s+)?`
	optArticle    = `(?:(?:a|an|the)\s+)?`
)

// filler builds an inline pattern for 0..n filler words.
func filler(n int) string {
	return fmt.Sprintf(`(?:\w+\s+){0,%d}`, n)
}

// tierRule is one entry in the data-driven rule table: a tier plus a
// matcher returning the phrase that fired.
type tierRule struct {
	tier  Tier
	match func(sentence string) (string, bool)
}

// tierRules is evaluated in order per sentence; A outranks B outranks C.
var tierRules = buildTierRules()

func buildTierRules() []tierRule {
	return []tierRule{
		{tier: TierOwner, match: matchRegexAny(ownerPatterns())},
		{tier: TierHuman, match: matchPhraseAny(botComplaintPhrases)},
		{tier: TierHuman, match: matchRegexAny(humanPatterns())},
		{tier: TierHuman, match: matchSoftTarget},
		{tier: TierStandalone, match: matchPhraseAny(tierStandalonePhrases)},
	}
}

// ownerPatterns compiles the four owner-escalation shapes for every
// owner target:
//  1. action verb .. target ("talk to the owner")
//  2. get/reach/contact .. target ("reach the manager for me")
//  3. target .. callback verb ("jody needs to call me")
//  4. have/let/get .. target .. callback verb ("have jody call me")
func ownerPatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(ownerTargets)*4)
	for _, target := range ownerTargets {
		t := regexp.QuoteMeta(target)
		patterns = append(patterns,
			regexp.MustCompile(`\b`+actionVerbs+`\s+`+optPronoun+optPrep+filler(2)+t+`\b`),
			regexp.MustCompile(`\b`+reachVerbs+`\s+`+optPronoun+filler(2)+t+`\b`),
			regexp.MustCompile(`\b`+t+`\s+`+filler(3)+callbackVerbs+`\b`),
			regexp.MustCompile(`\b(?:have|let|get)\s+`+optPronoun+filler(2)+t+`\s+`+filler(2)+callbackVerbs+`\b`),
		)
	}
	return patterns
}

// humanPatterns compiles the structured tier B shapes for single-word
// and multi-word human targets.
func humanPatterns() []*regexp.Regexp {
	single := strings.Join(humanSingleTargets, "|")
	multi := make([]string, len(humanMultiTargets))
	for i, t := range humanMultiTargets {
		multi[i] = strings.ReplaceAll(regexp.QuoteMeta(t), " ", `\s+`)
	}
	return []*regexp.Regexp{
		regexp.MustCompile(`\b` + actionVerbs + `\s+` + optPronoun + optPrep + filler(2) + optArticle + `(?:` + single + `)\b`),
		regexp.MustCompile(`\b` + reachVerbs + `\s+` + optPronoun + optPrep + filler(2) + optArticle + `(?:` + single + `)\b`),
		regexp.MustCompile(`\b` + actionVerbs + `\s+` + optPronoun + optPrep + optArticle + `(?:` + strings.Join(multi, "|") + `)\b`),
		regexp.MustCompile(`\b` + reachVerbs + `\s+` + optPronoun + optPrep + optArticle + `(?:` + strings.Join(multi, "|") + `)\b`),
	}
}

var softTargetPatterns = func() []*regexp.Regexp {
	soft := strings.Join(humanSoftTargets, "|")
	return []*regexp.Regexp{
		regexp.MustCompile(`\b` + actionVerbs + `\s+` + optPronoun + optPrep + filler(2) + optArticle + `(?:` + soft + `)\b`),
		regexp.MustCompile(`\b` + reachVerbs + `\s+` + optPronoun + optPrep + filler(2) + optArticle + `(?:` + soft + `)\b`),
	}
}()

// matchSoftTarget matches soft human targets only when a qualifier
// co-occurs in the sentence ("talk to someone there", "speak with
// someone on your team"). The action verb is still required; a
// qualified sentence without one ("is someone there") does not match.
func matchSoftTarget(sentence string) (string, bool) {
	qualified := false
	for _, q := range softQualifiers {
		if strings.Contains(sentence, q) {
			qualified = true
			break
		}
	}
	if !qualified {
		return "", false
	}
	for _, re := range softTargetPatterns {
		if m := re.FindString(sentence); m != "" {
			return strings.TrimSpace(m), true
		}
	}
	return "", false
}

func matchRegexAny(patterns []*regexp.Regexp) func(string) (string, bool) {
	return func(sentence string) (string, bool) {
		for _, re := range patterns {
			if m := re.FindString(sentence); m != "" {
				return strings.TrimSpace(m), true
			}
		}
		return "", false
	}
}

func matchPhraseAny(phrases []string) func(string) (string, bool) {
	return func(sentence string) (string, bool) {
		for _, phrase := range phrases {
			if strings.Contains(sentence, phrase) {
				return phrase, true
			}
		}
		return "", false
	}
}
