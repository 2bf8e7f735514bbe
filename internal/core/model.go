package core

import (
	"time"
)

// SentEmail represents a normalized historical email handed over by the
// ingestion pipeline
type SentEmail struct {
	ID             string
	UserID         string
	RecipientEmail string
	Subject        string
	SentDate       time.Time
	ExtractedText  string
}

// RecipientHint carries optional recipient information for feature extraction
type RecipientHint struct {
	Name  string
	Email string
}

// SentimentPrimary is the dominant sentiment class of an email
type SentimentPrimary string

const (
	SentimentEnthusiastic SentimentPrimary = "enthusiastic"
	SentimentPositive     SentimentPrimary = "positive"
	SentimentNeutral      SentimentPrimary = "neutral"
	SentimentConcerned    SentimentPrimary = "concerned"
	SentimentFrustrated   SentimentPrimary = "frustrated"
)

// VocabularyComplexity buckets the lexical sophistication of an email
type VocabularyComplexity string

const (
	VocabularySimple        VocabularyComplexity = "simple"
	VocabularyModerate      VocabularyComplexity = "moderate"
	VocabularySophisticated VocabularyComplexity = "sophisticated"
)

// SentenceStructure buckets the average sentence length of an email
type SentenceStructure string

const (
	SentenceConcise   SentenceStructure = "concise"
	SentenceModerate  SentenceStructure = "moderate"
	SentenceElaborate SentenceStructure = "elaborate"
)

// FamiliarityLevel is the relationship closeness signal derived from
// linguistic style, distinct from the free-form relationship category tag
type FamiliarityLevel string

const (
	FamiliarityIntimate     FamiliarityLevel = "intimate"
	FamiliarityVeryFamiliar FamiliarityLevel = "very_familiar"
	FamiliarityFamiliar     FamiliarityLevel = "familiar"
	FamiliarityProfessional FamiliarityLevel = "professional"
	FamiliarityFormal       FamiliarityLevel = "formal"
)

// ActionItemType classifies an actionable sentence
type ActionItemType string

const (
	ActionRequest    ActionItemType = "request"
	ActionCommitment ActionItemType = "commitment"
	ActionSuggestion ActionItemType = "suggestion"
)

// ContextType is the high-level communicative purpose of an email
type ContextType string

const (
	ContextQuestion   ContextType = "question"
	ContextAnswer     ContextType = "answer"
	ContextUpdate     ContextType = "update"
	ContextScheduling ContextType = "scheduling"
	ContextOther      ContextType = "other"
)

// Sentiment represents the emotional signal extracted from an email
type Sentiment struct {
	Primary    SentimentPrimary
	Score      float64 // [-1, 1]
	Intensity  float64 // [0, 1]
	Confidence float64 // [0, 1]
	Emotions   []string
	Emojis     []string
}

// TonalQualities are surface-pattern tone scores, each in [0, 1]
type TonalQualities struct {
	Warmth     float64
	Formality  float64
	Urgency    float64
	Directness float64
	Enthusiasm float64
	Politeness float64
}

// LinguisticStyle describes vocabulary and sentence-level writing style
type LinguisticStyle struct {
	VocabularyComplexity  VocabularyComplexity
	SentenceStructure     SentenceStructure
	ConversationalMarkers []string
}

// LinguisticMarkers are the raw relationship markers found in the text
type LinguisticMarkers struct {
	GreetingStyle       string
	ClosingStyle        string
	Endearments         []string
	ProfessionalPhrases []string
	InformalLanguage    []string
}

// FormalityIndicators are structural formality signals
type FormalityIndicators struct {
	HasTitle                 bool
	HasCompanyReference      bool
	VocabularySophistication float64 // [0, 1]
}

// RelationshipHints is the linguistic relationship signal of an email
type RelationshipHints struct {
	FamiliarityLevel    FamiliarityLevel
	LinguisticMarkers   LinguisticMarkers
	FormalityIndicators FormalityIndicators
}

// ActionItem is a single actionable sentence with its classification
type ActionItem struct {
	Type ActionItemType
	Text string
}

// TextStats are basic counting statistics over the email body
type TextStats struct {
	WordCount            int
	SentenceCount        int
	AvgWordsPerSentence  float64
	FormalityScore       float64 // [0, 1]
	VocabularyComplexity float64 // [0, 1] raw diversity ratio
}

// EmailFeatures is the full structured feature set extracted from one email.
// It is immutable once computed.
type EmailFeatures struct {
	Sentiment         Sentiment
	TonalQualities    TonalQualities
	LinguisticStyle   LinguisticStyle
	RelationshipHints RelationshipHints
	ActionItems       []ActionItem
	ContextType       ContextType
	Questions         []string
	Stats             TextStats
}

// RelationshipTag is the free-form relationship category attached to a
// stored example (e.g. "spouse", "colleagues")
type RelationshipTag struct {
	Type            string
	Confidence      float64 // [0, 1]
	DetectionMethod string
}

// FeatureSnapshot is the reduced feature view persisted with each example
type FeatureSnapshot struct {
	SentimentPrimary     SentimentPrimary
	SentimentScore       float64
	Warmth               float64
	Formality            float64
	Urgency              float64
	FamiliarityLevel     FamiliarityLevel
	ContextType          ContextType
	VocabularyComplexity VocabularyComplexity
}

// UsageStats is the mutable usage sub-record of a stored example. It is the
// only part of an example that changes after ingestion, and only through
// VectorIndex.UpdateUsageStats.
type UsageStats struct {
	TimesUsed          int
	LastUsedAt         *time.Time
	EffectivenessScore *float64 // [0, 1]
}

// ExampleMetadata is the metadata persisted alongside an example's vector
type ExampleMetadata struct {
	ExtractedText  string
	RecipientEmail string
	Subject        string
	SentDate       time.Time
	Features       FeatureSnapshot
	Relationship   RelationshipTag
	FrequencyScore float64
	WordCount      int
	Usage          UsageStats
}

// StoredExample is the persisted unit owned by the vector index, keyed by
// (UserID, ID)
type StoredExample struct {
	ID       string
	UserID   string
	Vector   []float32
	Metadata ExampleMetadata
}

// DateRange bounds SentDate in a search, inclusive on both ends
type DateRange struct {
	Start time.Time
	End   time.Time
}

// SearchQuery describes a filtered nearest-neighbor search. All supplied
// filters are intersected. A zero Limit falls back to the index default.
type SearchQuery struct {
	UserID         string
	QueryVector    []float32
	Relationship   string
	DateRange      *DateRange
	ExcludeIDs     []string
	ScoreThreshold *float64
	Limit          int
}

// RetrievedExample is a single ranked search result. Score is cosine
// similarity in [-1, 1] where 1.0 is a self-match.
type RetrievedExample struct {
	ID       string
	Score    float64
	Metadata ExampleMetadata
}

// UsageUpdate merges usage feedback into one stored example
type UsageUpdate struct {
	VectorID     string
	WasUsed      bool
	WasEdited    bool
	EditDistance *float64
	UserRating   *float64 // [0, 1]
}

// DraftFeedback is the edit/acceptance signal reported for a generated draft
type DraftFeedback struct {
	Edited       bool
	EditDistance float64 // [0, 1] normalized
	Accepted     bool
	UserRating   int // 1-5, 0 when not provided
}

// BatchError reports a single failed item inside a batch operation
type BatchError struct {
	Index  int
	Reason string
}

// BatchEmbeddingResult carries per-text embeddings plus per-item failures.
// A failed text leaves a nil entry at its index and an entry in Errors.
// Incomplete is set when the batch was cut short by the caller's deadline.
type BatchEmbeddingResult struct {
	Embeddings [][]float32
	Errors     []BatchError
	Incomplete bool
}

// BatchUpsertResult carries the outcome of a chunked batch upsert
type BatchUpsertResult struct {
	UpsertedIDs []string
	Errors      []BatchError
	Incomplete  bool
}

// EffectivenessNoData is the sentinel effectiveness value for example IDs
// with no recorded feedback
const EffectivenessNoData = -1.0
