package features

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/voice-retrieval/internal/core"
)

func TestExtractIntimateEmail(t *testing.T) {
	extractor := NewExtractor()

	text := "Hey honey!\n\nMiss you so much. Can't wait to see you tonight 💕\n\nLove you,\nSam"
	features := extractor.Extract(text, nil)
	require.NotNil(t, features)

	assert.Equal(t, core.FamiliarityIntimate, features.RelationshipHints.FamiliarityLevel)
	assert.Contains(t, features.RelationshipHints.LinguisticMarkers.Endearments, "honey")
	assert.Greater(t, features.TonalQualities.Warmth, 0.5)
	assert.Less(t, features.TonalQualities.Formality, 0.5)
	assert.Contains(t, features.Sentiment.Emojis, "💕")
	assert.Greater(t, features.Sentiment.Score, 0.0)
}

func TestExtractFormalEmail(t *testing.T) {
	extractor := NewExtractor()

	text := "Dear Dr. Smith,\n\nI am writing to follow up regarding the quarterly report. Please find attached the revised document.\n\nBest regards,\nJohn"
	features := extractor.Extract(text, nil)
	require.NotNil(t, features)

	assert.Greater(t, features.TonalQualities.Formality, 0.6)
	assert.Equal(t, core.FamiliarityProfessional, features.RelationshipHints.FamiliarityLevel)
	assert.True(t, features.RelationshipHints.FormalityIndicators.HasTitle)
	assert.Equal(t, "formal", features.RelationshipHints.LinguisticMarkers.GreetingStyle)
	assert.Equal(t, "formal", features.RelationshipHints.LinguisticMarkers.ClosingStyle)
	assert.NotEmpty(t, features.RelationshipHints.LinguisticMarkers.ProfessionalPhrases)
	assert.Empty(t, features.Sentiment.Emojis)
}

func TestExtractEmptyInput(t *testing.T) {
	extractor := NewExtractor()

	for _, text := range []string{"", "   ", "\n\t  \n"} {
		features := extractor.Extract(text, nil)
		require.NotNil(t, features)

		assert.Equal(t, 0, features.Stats.WordCount)
		assert.Equal(t, 0, features.Stats.SentenceCount)
		assert.Equal(t, core.SentimentNeutral, features.Sentiment.Primary)
		assert.Equal(t, core.ContextOther, features.ContextType)
		assert.Empty(t, features.Questions)
		assert.Empty(t, features.ActionItems)
	}
}

func TestExtractSingleWord(t *testing.T) {
	extractor := NewExtractor()

	features := extractor.Extract("Thanks", nil)

	assert.Equal(t, 1, features.Stats.WordCount)
	assert.Equal(t, 1, features.Stats.SentenceCount)
	assert.Greater(t, features.Sentiment.Score, 0.0)
	assert.Contains(t, features.Sentiment.Emotions, "grateful")
}

func TestExtractScoresBounded(t *testing.T) {
	extractor := NewExtractor()

	texts := []string{
		"URGENT!!! Call me ASAP! This is a huge problem and I am extremely frustrated!!!",
		"thanks thanks thanks amazing awesome fantastic wonderful love love love!!!",
		"Dear Sir, pursuant to our agreement, please find attached the documentation.",
		"hey lol yeah gonna grab lunch wanna come",
		"a",
		strings.Repeat("word ", 500),
	}

	for _, text := range texts {
		features := extractor.Extract(text, nil)

		tones := []float64{
			features.TonalQualities.Warmth,
			features.TonalQualities.Formality,
			features.TonalQualities.Urgency,
			features.TonalQualities.Directness,
			features.TonalQualities.Enthusiasm,
			features.TonalQualities.Politeness,
		}
		for _, v := range tones {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
		assert.GreaterOrEqual(t, features.Sentiment.Score, -1.0)
		assert.LessOrEqual(t, features.Sentiment.Score, 1.0)
		assert.GreaterOrEqual(t, features.Sentiment.Intensity, 0.0)
		assert.LessOrEqual(t, features.Sentiment.Intensity, 1.0)
		assert.GreaterOrEqual(t, features.Sentiment.Confidence, 0.0)
		assert.LessOrEqual(t, features.Sentiment.Confidence, 1.0)
		assert.GreaterOrEqual(t, features.Stats.FormalityScore, 0.0)
		assert.LessOrEqual(t, features.Stats.FormalityScore, 1.0)
	}
}

func TestExtractDeterministic(t *testing.T) {
	extractor := NewExtractor()

	text := "Hey! Can you review the doc? I'll send notes tomorrow. Thanks!"
	first := extractor.Extract(text, nil)
	second := extractor.Extract(text, nil)

	assert.Equal(t, first, second)
}

func TestExtractActionItemsAndQuestions(t *testing.T) {
	extractor := NewExtractor()

	text := "Can you send me the deck? I'll review it by Friday. Maybe we should loop in legal."
	features := extractor.Extract(text, nil)

	require.Len(t, features.ActionItems, 3)
	assert.Equal(t, core.ActionRequest, features.ActionItems[0].Type)
	assert.Equal(t, core.ActionCommitment, features.ActionItems[1].Type)
	assert.Equal(t, core.ActionSuggestion, features.ActionItems[2].Type)

	require.Len(t, features.Questions, 1)
	assert.Equal(t, "Can you send me the deck?", features.Questions[0])
}

func TestClassifyContext(t *testing.T) {
	extractor := NewExtractor()

	tests := []struct {
		name string
		text string
		want core.ContextType
	}{
		{
			name: "questions dominate",
			text: "Are you free tomorrow? What time works?",
			want: core.ContextQuestion,
		},
		{
			name: "update markers",
			text: "Quick update on the launch. Everything is on track.",
			want: core.ContextUpdate,
		},
		{
			name: "scheduling markers",
			text: "Let's plan to meet on Friday. The meeting room is booked already.",
			want: core.ContextScheduling,
		},
		{
			name: "reply markers",
			text: "Thanks for reaching out. The numbers you wanted are attached.",
			want: core.ContextAnswer,
		},
		{
			name: "no markers",
			text: "The weather has been nice lately.",
			want: core.ContextOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			features := extractor.Extract(tt.text, nil)
			assert.Equal(t, tt.want, features.ContextType)
		})
	}
}

func TestFamiliarityLadder(t *testing.T) {
	extractor := NewExtractor()

	tests := []struct {
		name string
		text string
		want core.FamiliarityLevel
	}{
		{
			name: "endearment wins over casual",
			text: "hey babe lol yeah gonna be late",
			want: core.FamiliarityIntimate,
		},
		{
			name: "heavy slang",
			text: "lol yeah dude that was great haha",
			want: core.FamiliarityVeryFamiliar,
		},
		{
			name: "light slang",
			text: "Wanna grab lunch on me today? My treat.",
			want: core.FamiliarityFamiliar,
		},
		{
			name: "plain prose defaults to professional",
			text: "The report is finished and the results look stable.",
			want: core.FamiliarityProfessional,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			features := extractor.Extract(tt.text, nil)
			assert.Equal(t, tt.want, features.RelationshipHints.FamiliarityLevel)
		})
	}
}

func TestCompanyReferenceFromRecipientDomain(t *testing.T) {
	extractor := NewExtractor()

	text := "The numbers look fine to me."

	corporate := extractor.Extract(text, &core.RecipientHint{Email: "pat@acme-widgets.com"})
	assert.True(t, corporate.RelationshipHints.FormalityIndicators.HasCompanyReference)

	freemail := extractor.Extract(text, &core.RecipientHint{Email: "pat@gmail.com"})
	assert.False(t, freemail.RelationshipHints.FormalityIndicators.HasCompanyReference)
}
