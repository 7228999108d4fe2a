package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_TierA_OwnerRequests(t *testing.T) {
	cases := []string{
		"I want to talk to Jody",
		"Can you transfer me to the owner?",
		"please have the manager call me",
		"get me the supervisor",
		"Jody needs to call me back today",
		"let the owner contact me",
	}

	for _, text := range cases {
		t.Run(text, func(t *testing.T) {
			m := Classify(text)
			require.NotNil(t, m, "expected a match for %q", text)
			assert.Equal(t, TierOwner, m.Tier)
			assert.NotEmpty(t, m.Phrase)
		})
	}
}

func TestClassify_TierB_HumanHandoff(t *testing.T) {
	cases := []string{
		"Transfer me to a human",
		"can I speak with a representative",
		"connect me to a real person please",
		"I want to talk to a live agent",
		"get me an actual person",
	}

	for _, text := range cases {
		t.Run(text, func(t *testing.T) {
			m := Classify(text)
			require.NotNil(t, m, "expected a match for %q", text)
			assert.Equal(t, TierHuman, m.Tier)
		})
	}
}

func TestClassify_BotComplaints_MatchWithoutActionVerb(t *testing.T) {
	cases := []string{
		"not a bot please",
		"you are not a robot right? human please",
		"stop the bot",
	}

	for _, text := range cases {
		t.Run(text, func(t *testing.T) {
			m := Classify(text)
			require.NotNil(t, m, "expected a match for %q", text)
			// Complaint phrases are claimed by tier B first; tier C is the
			// fallback if the tier B rule list is ever narrowed.
			assert.Contains(t, []Tier{TierHuman, TierStandalone}, m.Tier)
		})
	}
}

func TestClassify_ExclusionsDefeatTriggers(t *testing.T) {
	cases := []string{
		"I need to speak to my wife",
		"I have to talk to my lawyer first",
		"let me speak to my husband about the quote",
		"I want to talk about pricing",
		"can we talk about the ceramic coating",
		"call me later to discuss",
	}

	for _, text := range cases {
		t.Run(text, func(t *testing.T) {
			assert.Nil(t, Classify(text), "expected no match for %q", text)
		})
	}
}

func TestClassify_CallbackPhrasesSpareOwnerRequests(t *testing.T) {
	// A callback phrase without a target is scheduling talk.
	assert.Nil(t, Classify("just call me back tomorrow"))
	assert.Nil(t, Classify("text me later with the quote"))

	// With an owner target the callback shape is the escalation itself.
	m := Classify("have Jody call me back")
	require.NotNil(t, m)
	assert.Equal(t, TierOwner, m.Tier)

	m = Classify("the owner should call me back when he can")
	require.NotNil(t, m)
	assert.Equal(t, TierOwner, m.Tier)
}

func TestClassify_ExclusionIsPerSentence(t *testing.T) {
	// The exclusion in the first sentence must not defeat the trigger in
	// the second.
	m := Classify("I talked to my wife. Now transfer me to a human.")
	require.NotNil(t, m)
	assert.Equal(t, TierHuman, m.Tier)
}

func TestClassify_SoftTargetsNeedQualifier(t *testing.T) {
	// Bare "someone" never matches.
	assert.Nil(t, Classify("can someone help with my invoice"))
	assert.Nil(t, Classify("I want to talk to someone"))

	m := Classify("can I talk to someone on your team")
	require.NotNil(t, m)
	assert.Equal(t, TierHuman, m.Tier)

	m = Classify("can I speak with someone there")
	require.NotNil(t, m)
	assert.Equal(t, TierHuman, m.Tier)
}

func TestClassify_TierOrdering_OwnerBeatsHuman(t *testing.T) {
	// A request naming the owner must never downgrade to a generic
	// hand-off, whatever else the sentence contains.
	m := Classify("connect me with the owner or some human")
	require.NotNil(t, m)
	assert.Equal(t, TierOwner, m.Tier)
}

func TestClassify_FirstMatchingSentenceWins(t *testing.T) {
	m := Classify("Transfer me to a human. Also have Jody call me.")
	require.NotNil(t, m)
	assert.Equal(t, TierHuman, m.Tier)
	assert.Contains(t, m.Sentence, "human")
}

func TestClassify_NoMatch(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"what time do you open tomorrow",
		"thanks, the car looks great!",
		"how much is a full detail for an suv",
	}

	for _, text := range cases {
		assert.Nil(t, Classify(text), "expected no match for %q", text)
	}
}

func TestClassify_NormalizationHandlesPunctuation(t *testing.T) {
	m := Classify("TALK TO THE OWNER!!!")
	require.NotNil(t, m)
	assert.Equal(t, TierOwner, m.Tier)

	m = Classify("hey! can you connect me to a (human)?")
	require.NotNil(t, m)
	assert.Equal(t, TierHuman, m.Tier)
}

func TestClassify_IsDeterministic(t *testing.T) {
	text := "please have the manager call me"
	first := Classify(text)
	require.NotNil(t, first)
	for i := 0; i < 10; i++ {
		next := Classify(text)
		require.NotNil(t, next)
		assert.Equal(t, *first, *next)
	}
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("Hello there! Are you real? ok.")
	assert.Equal(t, []string{"hello there", "are you real", "ok"}, got)

	assert.Empty(t, splitSentences("..."))
}
