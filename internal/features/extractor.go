// Package features converts raw email text into a structured, numerically
// comparable feature set: sentiment, tonal qualities, linguistic style,
// relationship hints, action items and counting stats.
//
// Extraction is pure and deterministic: no I/O, no randomness, and no
// failure mode. Malformed or empty input degrades to a well-formed neutral
// feature set rather than an error, because extraction sits in the
// ingestion hot path.
package features

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/mikey/voice-retrieval/internal/core"
)

// lowerCaser folds text with English rules rather than byte-wise ASCII
var lowerCaser = cases.Lower(language.English)

var contractionPattern = regexp.MustCompile(`[a-z]+'(t|s|ll|re|ve|d|m)\b`)

// Extractor computes EmailFeatures from raw text
type Extractor struct{}

// NewExtractor creates a new feature extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract analyzes text and returns its full feature set. It never returns
// an error; empty or garbage input yields a neutral, all-zero feature set.
func (e *Extractor) Extract(text string, hint *core.RecipientHint) *core.EmailFeatures {
	if strings.TrimSpace(text) == "" {
		return neutralFeatures()
	}

	a := analyze(text)

	sentiment := extractSentiment(a)
	style, complexityScore := extractLinguisticStyle(a)
	tones := extractTonalQualities(a, sentiment)
	relationship := extractRelationshipHints(a, hint, complexityScore, tones.Formality)
	actions := extractActionItems(a)
	questions := extractQuestions(a)

	return &core.EmailFeatures{
		Sentiment:         sentiment,
		TonalQualities:    tones,
		LinguisticStyle:   style,
		RelationshipHints: relationship,
		ActionItems:       actions,
		ContextType:       classifyContext(a, questions),
		Questions:         questions,
		Stats:             extractStats(a),
	}
}

// neutralFeatures is the degenerate feature set for empty input
func neutralFeatures() *core.EmailFeatures {
	return &core.EmailFeatures{
		Sentiment: core.Sentiment{
			Primary:  core.SentimentNeutral,
			Emotions: []string{},
			Emojis:   []string{},
		},
		LinguisticStyle: core.LinguisticStyle{
			VocabularyComplexity:  core.VocabularySimple,
			SentenceStructure:     core.SentenceConcise,
			ConversationalMarkers: []string{},
		},
		RelationshipHints: core.RelationshipHints{
			FamiliarityLevel: core.FamiliarityProfessional,
			LinguisticMarkers: core.LinguisticMarkers{
				Endearments:         []string{},
				ProfessionalPhrases: []string{},
				InformalLanguage:    []string{},
			},
		},
		ActionItems: []core.ActionItem{},
		ContextType: core.ContextOther,
		Questions:   []string{},
	}
}

// analysis is the tokenized view of one email, computed once and shared by
// every sub-analyzer.
type analysis struct {
	raw       string
	lower     string
	padded    string // lowercased with punctuation collapsed to spaces
	words     []string
	sentences []string // original casing, trimmed
	firstLine string   // lowercased first non-empty line
	lastLines string   // lowercased last two non-empty lines

	exclamations int
	capsWords    int
	contractions int
}

func analyze(text string) *analysis {
	raw := norm.NFC.String(text)
	lower := lowerCaser.String(raw)

	a := &analysis{
		raw:       raw,
		lower:     lower,
		padded:    padForSearch(lower),
		words:     splitWords(lower),
		sentences: splitSentences(raw),
	}

	lines := nonEmptyLines(lower)
	if len(lines) > 0 {
		a.firstLine = lines[0]
		a.lastLines = lines[len(lines)-1]
		if len(lines) > 1 {
			a.lastLines = lines[len(lines)-2] + "\n" + a.lastLines
		}
	}

	a.exclamations = strings.Count(raw, "!")
	a.contractions = len(contractionPattern.FindAllString(lower, -1))
	for _, w := range strings.Fields(raw) {
		if len(w) >= 3 && w == strings.ToUpper(w) && strings.ContainsFunc(w, unicode.IsLetter) {
			a.capsWords++
		}
	}

	return a
}

// splitWords tokenizes on anything that is not a letter, digit or an
// in-word apostrophe
func splitWords(lower string) []string {
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if f != "" {
			words = append(words, f)
		}
	}
	return words
}

// splitSentences splits on terminal punctuation runs and newlines. A single
// word with no terminal punctuation still counts as one sentence.
func splitSentences(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
	sentences := make([]string, 0, len(parts))
	offset := 0
	for _, p := range parts {
		idx := strings.Index(text[offset:], p)
		end := offset + idx + len(p)
		// carry the terminal punctuation so question detection can see it
		for end < len(text) {
			r := text[end]
			if r == '.' || r == '!' || r == '?' {
				end++
				continue
			}
			break
		}
		s := strings.TrimSpace(text[offset+idx : end])
		offset = end
		if strings.Trim(s, ".!?") == "" {
			continue
		}
		if strings.TrimFunc(s, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		}) == "" {
			continue
		}
		sentences = append(sentences, s)
	}
	if len(sentences) == 0 {
		if t := strings.TrimSpace(text); t != "" {
			sentences = append(sentences, t)
		}
	}
	return sentences
}

func nonEmptyLines(lower string) []string {
	var lines []string
	for _, l := range strings.Split(lower, "\n") {
		if t := strings.TrimSpace(l); t != "" {
			lines = append(lines, t)
		}
	}
	return lines
}

// padForSearch rewrites text so multi-word phrases can be matched with
// whole-word boundaries via a plain substring search
func padForSearch(lower string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '\'' {
			return r
		}
		return ' '
	}, lower)
	return " " + strings.Join(strings.Fields(mapped), " ") + " "
}

// hasPhrase reports whether the phrase occurs as whole words
func (a *analysis) hasPhrase(phrase string) bool {
	return strings.Contains(a.padded, " "+phrase+" ")
}

func (a *analysis) countPhrase(phrase string) int {
	return strings.Count(a.padded, " "+phrase+" ")
}

// foundPhrases returns the subset of phrases present in the text, in
// lexicon order
func (a *analysis) foundPhrases(phrases []string) []string {
	found := []string{}
	for _, p := range phrases {
		if a.hasPhrase(p) {
			found = append(found, p)
		}
	}
	return found
}

func (a *analysis) countAny(phrases []string) int {
	n := 0
	for _, p := range phrases {
		n += a.countPhrase(p)
	}
	return n
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampSigned(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
