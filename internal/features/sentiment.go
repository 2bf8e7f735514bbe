package features

import (
	"math"
	"sort"

	"github.com/mikey/voice-retrieval/internal/core"
)

// extractSentiment scores tokens against the polarity lexicon and derives
// the primary class from threshold bands over score and intensity.
func extractSentiment(a *analysis) core.Sentiment {
	var sum, absSum float64
	matched := 0
	for _, w := range a.words {
		if contribution, ok := polarityLexicon[w]; ok {
			sum += contribution
			absSum += math.Abs(contribution)
			matched++
		}
	}

	var score, intensity float64
	if matched > 0 {
		score = clampSigned(sum / float64(matched))
		intensity = absSum / float64(matched)
	}

	emojis := extractEmojis(a.raw)

	// punctuation emphasis raises intensity regardless of polarity
	intensity = clamp01(intensity + 0.05*math.Min(float64(a.exclamations), 4))

	emotions := detectEmotions(a)

	return core.Sentiment{
		Primary:    classifySentiment(score, intensity),
		Score:      score,
		Intensity:  intensity,
		Confidence: sentimentConfidence(a, score, matched, emojis),
		Emotions:   emotions,
		Emojis:     emojis,
	}
}

func classifySentiment(score, intensity float64) core.SentimentPrimary {
	switch {
	case score >= enthusiasticScoreBand && intensity >= enthusiasticIntensityBand:
		return core.SentimentEnthusiastic
	case score >= positiveScoreBand:
		return core.SentimentPositive
	case score <= frustratedScoreBand:
		return core.SentimentFrustrated
	case score <= concernedScoreBand:
		return core.SentimentConcerned
	default:
		return core.SentimentNeutral
	}
}

// detectEmotions reports every named emotion whose markers reach the
// presence threshold, independent of overall polarity. Output is sorted for
// determinism.
func detectEmotions(a *analysis) []string {
	emotions := []string{}
	for name, markers := range emotionMarkers {
		hits := 0
		for _, m := range markers {
			hits += a.countPhrase(m)
		}
		if hits >= emotionPresenceThreshold {
			emotions = append(emotions, name)
		}
	}
	sort.Strings(emotions)
	return emotions
}

// sentimentConfidence rises with the count and agreement of independent
// signals: lexical matches, emoji polarity agreement and punctuation
// emphasis.
func sentimentConfidence(a *analysis, score float64, matched int, emojis []string) float64 {
	if matched == 0 && len(emojis) == 0 && a.exclamations == 0 {
		return 0
	}
	confidence := 0.3 + 0.1*math.Min(float64(matched), 4)
	if len(emojis) > 0 && score >= 0 {
		confidence += 0.15
	}
	if a.exclamations >= 2 && math.Abs(score) >= positiveScoreBand {
		confidence += 0.1
	}
	return clamp01(confidence)
}

// extractEmojis collects all emoji code points in order, duplicates kept
func extractEmojis(text string) []string {
	emojis := []string{}
	for _, r := range text {
		if isEmoji(r) {
			emojis = append(emojis, string(r))
		}
	}
	return emojis
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1FAFF: // pictographs, emoticons, symbols
		return true
	case r >= 0x2600 && r <= 0x27BF: // misc symbols and dingbats
		return true
	case r == 0x2B50: // star, outside the ranges above
		return true
	default:
		return false
	}
}
