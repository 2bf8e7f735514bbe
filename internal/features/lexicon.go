package features

// Marker lists and thresholds used by the extractor. They are process-wide
// immutable configuration: loaded once, never mutated per call. Keeping them
// as data rather than inline literals keeps the rule set unit-testable and
// tunable in one place.

// polarityLexicon maps lowercased words to per-word sentiment contributions
// in [-1, 1].
var polarityLexicon = map[string]float64{
	// positive
	"thanks":     0.6,
	"thank":      0.6,
	"great":      0.7,
	"good":       0.5,
	"awesome":    0.9,
	"amazing":    0.9,
	"fantastic":  0.9,
	"wonderful":  0.8,
	"excellent":  0.8,
	"love":       0.9,
	"loved":      0.8,
	"happy":      0.7,
	"glad":       0.6,
	"excited":    0.8,
	"appreciate": 0.7,
	"perfect":    0.8,
	"nice":       0.5,
	"best":       0.6,
	"congrats":   0.8,
	"welcome":    0.4,
	"pleased":    0.6,
	"delighted":  0.8,
	"helpful":    0.5,
	"brilliant":  0.8,
	"yay":        0.9,

	// negative
	"sorry":         -0.4,
	"unfortunately": -0.5,
	"problem":       -0.5,
	"issue":         -0.4,
	"concern":       -0.5,
	"concerned":     -0.6,
	"worried":       -0.7,
	"worry":         -0.6,
	"frustrated":    -0.8,
	"frustrating":   -0.8,
	"annoyed":       -0.7,
	"annoying":      -0.7,
	"angry":         -0.9,
	"upset":         -0.7,
	"disappointed":  -0.7,
	"bad":           -0.5,
	"terrible":      -0.9,
	"awful":         -0.9,
	"horrible":      -0.9,
	"wrong":         -0.5,
	"fail":          -0.6,
	"failed":        -0.6,
	"delay":         -0.4,
	"delayed":       -0.4,
	"broken":        -0.6,
	"urgent":        -0.3,
	"confused":      -0.4,
}

// emotionMarkers maps named emotions to their lexical triggers. An emotion
// is reported when at least emotionPresenceThreshold of its markers appear,
// independent of overall polarity.
var emotionMarkers = map[string][]string{
	"grateful":   {"thanks", "thank", "appreciate", "grateful", "thankful"},
	"frustrated": {"frustrated", "frustrating", "annoyed", "annoying", "fed", "ridiculous"},
	"excited":    {"excited", "exciting", "thrilled", "yay", "awesome", "amazing"},
	"worried":    {"worried", "worry", "concerned", "concern", "anxious", "nervous"},
	"apologetic": {"sorry", "apologies", "apologize", "apology"},
}

const emotionPresenceThreshold = 1

// endearmentMarkers immediately signal an intimate relationship.
var endearmentMarkers = []string{
	"honey", "sweetheart", "babe", "baby", "darling", "dear heart",
	"my love", "love you", "sweetie", "hun", "xoxo", "miss you",
}

// casualMarkers are slang, fragments and chat tokens counting toward the
// familiar / very_familiar levels.
var casualMarkers = []string{
	"lol", "haha", "hehe", "omg", "btw", "gonna", "wanna", "gotta",
	"yeah", "yep", "nope", "dude", "cool", "kinda", "sorta", "hey",
	"sup", "thx", "pls", "ur", "u",
}

// professionalPhrases signal a working relationship when paired with
// moderate formality.
var professionalPhrases = []string{
	"per our conversation", "pursuant to", "as discussed", "as per",
	"please find attached", "i am writing to", "at your earliest convenience",
	"per my last email", "follow up", "following up", "with regard to",
	"regarding the", "please advise", "looking forward to working",
}

// conversationalFillers are the discourse markers reported verbatim under
// LinguisticStyle.ConversationalMarkers.
var conversationalFillers = []string{
	"anyway", "you know", "i mean", "honestly", "actually",
}

var warmGreetings = []string{"hey", "hi", "hiya", "hello there", "good morning", "morning"}

var formalSalutations = []string{"dear", "to whom it may concern", "greetings"}

var warmClosings = []string{
	"love", "love you", "hugs", "xoxo", "take care", "talk soon",
	"miss you", "cheers",
}

var formalClosings = []string{
	"sincerely", "best regards", "kind regards", "regards",
	"respectfully", "yours truly", "best wishes",
}

var wellWishes = []string{
	"hope you are well", "hope this email finds you well", "hope all is well",
	"have a great", "have a good", "enjoy your", "get well",
}

// transactionalPhrases are terse, cold phrasings that pull warmth down.
var transactionalPhrases = []string{
	"per my last email", "as previously stated", "as stated below",
	"please advise", "kindly revert",
}

var titleMarkers = []string{"dr.", "dr ", "mr.", "mrs.", "ms.", "prof.", "professor", "director", "president"}

var companyMarkers = []string{
	"inc", "llc", "ltd", "corp", "corporation", "company", "department",
	"team", "board", "committee", "office of",
}

var urgencyWords = []string{
	"urgent", "urgently", "asap", "immediately", "deadline", "eod",
	"right away", "as soon as possible", "time sensitive", "today",
}

var hedgePhrases = []string{
	"would you kindly", "i would appreciate", "if possible", "if you could",
	"when you get a chance", "no rush", "whenever you can", "would it be possible",
	"i was wondering",
}

var gratitudeWords = []string{"thanks", "thank you", "appreciate"}

var superlativeWords = []string{
	"amazing", "fantastic", "incredible", "awesome", "wonderful",
	"brilliant", "excellent", "best", "unbelievable", "outstanding",
}

// imperativeStarters are bare-command verbs that open a direct sentence.
var imperativeStarters = []string{
	"send", "call", "review", "check", "confirm", "make", "update",
	"schedule", "let", "see", "read", "fix", "complete", "submit", "forward",
}

var requestMarkers = []string{
	"can you", "could you", "would you", "will you", "can we", "could we",
	"would you mind", "are you able to",
}

var commitmentMarkers = []string{
	"i will", "i'll", "i am going to", "i'm going to", "i plan to",
	"i can take", "i intend to", "i shall",
}

var suggestionMarkers = []string{
	"maybe we should", "how about", "what if", "we could", "perhaps we",
	"it might be worth", "we should consider",
}

var replyMarkers = []string{
	"in response to", "to answer your question", "thanks for your email",
	"thanks for reaching out", "regarding your question", "you asked",
}

var updateMarkers = []string{
	"quick update", "fyi", "heads up", "just letting you know",
	"status update", "just wanted to let you know", "just an update",
	"wanted to give you an update",
}

var schedulingMarkers = []string{
	"schedule", "reschedule", "meeting", "appointment", "calendar",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
	"sunday", "tomorrow", "tonight", "next week", "this week", "what time",
	"are you free", "available at", "at noon",
}

// Bucketing cut points.
const (
	vocabSimpleCutoff        = 0.35 // below: simple
	vocabSophisticatedCutoff = 0.60 // at or above: sophisticated

	sentenceConciseCutoff   = 8.0  // below: concise
	sentenceElaborateCutoff = 18.0 // above: elaborate
)

// Familiarity ladder thresholds.
const (
	veryFamiliarCasualCount = 3
	familiarCasualCount     = 1
)

// Sentiment classification bands.
const (
	enthusiasticScoreBand     = 0.45
	enthusiasticIntensityBand = 0.40
	positiveScoreBand         = 0.15
	frustratedScoreBand       = -0.45
	concernedScoreBand        = -0.15
)
