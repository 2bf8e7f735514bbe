package features

import (
	"math"
	"strings"

	"github.com/mikey/voice-retrieval/internal/core"
)

// Tone weights. Each quality is a weighted combination of surface-pattern
// counts normalized by sentence/word count and clamped to [0, 1].
const (
	warmthBase           = 0.20
	warmthGreetingWeight = 0.25
	warmthEndearment     = 0.15
	warmthClosingWeight  = 0.20
	warmthTransactional  = 0.25

	formalityBase          = 0.30
	formalitySalutation    = 0.25
	formalityTitle         = 0.15
	formalityProPhrase     = 0.10
	formalityContraction   = 0.05
	formalityCasualPenalty = 0.15

	urgencyWordWeight    = 0.20
	urgencyExclaimWeight = 0.10
	urgencyCapsWeight    = 0.10

	directnessBase       = 0.20
	directnessImperative = 0.35
	directnessShort      = 0.15
	directnessHedge      = 0.25

	enthusiasmExclaim     = 0.30
	enthusiasmSuperlative = 0.15
	enthusiasmSentiment   = 0.20

	politenessBase      = 0.25
	politenessHedge     = 0.20
	politenessGratitude = 0.15
	politenessBareCmd   = 0.20
)

func extractTonalQualities(a *analysis, sentiment core.Sentiment) core.TonalQualities {
	sentenceCount := float64(len(a.sentences))
	if sentenceCount == 0 {
		sentenceCount = 1
	}
	exclaimDensity := math.Min(1, float64(a.exclamations)/sentenceCount)

	imperativeRatio, bareImperativeRatio := imperativeRatios(a)

	return core.TonalQualities{
		Warmth:     warmth(a),
		Formality:  formality(a),
		Urgency:    urgency(a, exclaimDensity),
		Directness: directness(a, imperativeRatio, sentenceCount),
		Enthusiasm: enthusiasm(a, sentiment, exclaimDensity),
		Politeness: politeness(a, bareImperativeRatio),
	}
}

func warmth(a *analysis) float64 {
	v := warmthBase
	if hasGreeting(a.firstLine, warmGreetings) {
		v += warmthGreetingWeight
	}
	v += warmthEndearment * math.Min(float64(a.countAny(endearmentMarkers)), 2)
	if a.countAny(warmClosings) > 0 || a.countAny(wellWishes) > 0 {
		v += warmthClosingWeight
	}
	v -= warmthTransactional * math.Min(float64(a.countAny(transactionalPhrases)), 2)
	return clamp01(v)
}

func formality(a *analysis) float64 {
	v := formalityBase
	if hasGreeting(a.firstLine, formalSalutations) {
		v += formalitySalutation
	}
	if hasTitleMarker(a) {
		v += formalityTitle
	}
	v += formalityProPhrase * math.Min(float64(a.countAny(professionalPhrases)), 2)
	v -= formalityContraction * math.Min(float64(a.contractions), 4)
	if a.countAny(casualMarkers) > 0 {
		v -= formalityCasualPenalty
	}
	return clamp01(v)
}

func urgency(a *analysis, exclaimDensity float64) float64 {
	v := urgencyWordWeight * math.Min(float64(a.countAny(urgencyWords)), 3)
	v += urgencyExclaimWeight * exclaimDensity
	v += urgencyCapsWeight * math.Min(float64(a.capsWords), 2)
	return clamp01(v)
}

func directness(a *analysis, imperativeRatio, sentenceCount float64) float64 {
	short := 0
	for _, s := range a.sentences {
		if len(strings.Fields(s)) < 6 {
			short++
		}
	}
	hedgeDensity := math.Min(1, float64(a.countAny(hedgePhrases))/sentenceCount)

	v := directnessBase
	v += directnessImperative * imperativeRatio
	v += directnessShort * (float64(short) / sentenceCount)
	v -= directnessHedge * hedgeDensity
	return clamp01(v)
}

func enthusiasm(a *analysis, sentiment core.Sentiment, exclaimDensity float64) float64 {
	v := enthusiasmExclaim * exclaimDensity
	v += enthusiasmSuperlative * math.Min(float64(a.countAny(superlativeWords)), 3)
	if sentiment.Score >= enthusiasticScoreBand {
		v += enthusiasmSentiment
	}
	return clamp01(v)
}

func politeness(a *analysis, bareImperativeRatio float64) float64 {
	v := politenessBase
	v += politenessHedge * math.Min(float64(a.countAny(hedgePhrases))+float64(a.countPhrase("please")), 2)
	if a.countAny(gratitudeWords) > 0 {
		v += politenessGratitude
	}
	v -= politenessBareCmd * bareImperativeRatio
	return clamp01(v)
}

// imperativeRatios returns the fraction of sentences opening with a command
// verb, and the fraction doing so without any softener ("please", hedges).
func imperativeRatios(a *analysis) (all, bare float64) {
	if len(a.sentences) == 0 {
		return 0, 0
	}
	imperative, bareCount := 0, 0
	for _, s := range a.sentences {
		lower := lowerCaser.String(strings.TrimSpace(s))
		first := firstWord(lower)
		softened := strings.Contains(lower, "please")
		if !softened {
			for _, h := range hedgePhrases {
				if strings.Contains(lower, h) {
					softened = true
					break
				}
			}
		}
		isImperative := false
		for _, verb := range imperativeStarters {
			if first == verb {
				isImperative = true
				break
			}
		}
		if isImperative {
			imperative++
			if !softened {
				bareCount++
			}
		}
	}
	n := float64(len(a.sentences))
	return float64(imperative) / n, float64(bareCount) / n
}

func firstWord(lower string) string {
	fields := strings.Fields(lower)
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], ",.!?:;")
}

// hasGreeting reports whether the first line opens with one of the markers
func hasGreeting(firstLine string, markers []string) bool {
	for _, m := range markers {
		if strings.HasPrefix(firstLine, m+" ") || strings.HasPrefix(firstLine, m+",") ||
			strings.HasPrefix(firstLine, m+"!") || firstLine == m {
			return true
		}
	}
	return false
}

func hasTitleMarker(a *analysis) bool {
	for _, t := range titleMarkers {
		if strings.Contains(a.lower, t) {
			return true
		}
	}
	return false
}
