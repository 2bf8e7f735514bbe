package features

import (
	"github.com/mikey/voice-retrieval/internal/core"
)

// extractLinguisticStyle buckets vocabulary and sentence-length scores and
// collects discourse fillers. It also returns the raw complexity score so
// the relationship analyzer can reuse it as vocabulary sophistication.
func extractLinguisticStyle(a *analysis) (core.LinguisticStyle, float64) {
	complexity := complexityScore(a)

	return core.LinguisticStyle{
		VocabularyComplexity:  bucketVocabulary(complexity),
		SentenceStructure:     bucketSentences(avgWordsPerSentence(a)),
		ConversationalMarkers: a.foundPhrases(conversationalFillers),
	}, complexity
}

// complexityScore combines lexical diversity with average word length
func complexityScore(a *analysis) float64 {
	if len(a.words) == 0 {
		return 0
	}
	diversity := lexicalDiversity(a)

	totalLen := 0
	for _, w := range a.words {
		totalLen += len([]rune(w))
	}
	avgLen := float64(totalLen) / float64(len(a.words))

	return clamp01(0.6*diversity + 0.4*clamp01(avgLen/8))
}

// lexicalDiversity is the unique-to-total word ratio
func lexicalDiversity(a *analysis) float64 {
	if len(a.words) == 0 {
		return 0
	}
	unique := make(map[string]struct{}, len(a.words))
	for _, w := range a.words {
		unique[w] = struct{}{}
	}
	return float64(len(unique)) / float64(len(a.words))
}

func avgWordsPerSentence(a *analysis) float64 {
	if len(a.sentences) == 0 {
		return 0
	}
	return float64(len(a.words)) / float64(len(a.sentences))
}

func bucketVocabulary(score float64) core.VocabularyComplexity {
	switch {
	case score < vocabSimpleCutoff:
		return core.VocabularySimple
	case score < vocabSophisticatedCutoff:
		return core.VocabularyModerate
	default:
		return core.VocabularySophisticated
	}
}

func bucketSentences(avg float64) core.SentenceStructure {
	switch {
	case avg < sentenceConciseCutoff:
		return core.SentenceConcise
	case avg <= sentenceElaborateCutoff:
		return core.SentenceModerate
	default:
		return core.SentenceElaborate
	}
}

// extractStats computes counting statistics. FormalityScore is a separate
// aggregate from TonalQualities.Formality: it only weighs salutation and
// closing style against contraction density.
func extractStats(a *analysis) core.TextStats {
	wordCount := len(a.words)
	sentenceCount := len(a.sentences)
	if wordCount == 0 {
		sentenceCount = 0
	}

	avg := 0.0
	if sentenceCount > 0 {
		avg = float64(wordCount) / float64(sentenceCount)
	}

	formalityScore := 0.3
	if hasGreeting(a.firstLine, formalSalutations) {
		formalityScore += 0.3
	}
	for _, c := range formalClosings {
		if a.hasPhrase(c) {
			formalityScore += 0.2
			break
		}
	}
	if wordCount > 0 {
		contractionDensity := float64(a.contractions) / float64(wordCount)
		formalityScore -= clamp01(contractionDensity*5) * 0.3
	}

	return core.TextStats{
		WordCount:            wordCount,
		SentenceCount:        sentenceCount,
		AvgWordsPerSentence:  avg,
		FormalityScore:       clamp01(formalityScore),
		VocabularyComplexity: lexicalDiversity(a),
	}
}
