package features

import (
	"strings"

	"github.com/mikey/voice-retrieval/internal/core"
)

// extractRelationshipHints decides the familiarity level with a priority
// ladder, most specific rule first:
//
//  1. any endearment               -> intimate
//  2. three or more casual markers -> very_familiar
//  3. one or two casual markers    -> familiar
//  4. professional phrases with moderate formality -> professional
//  5. formal salutation + closing + title/company  -> formal
//  6. default                      -> professional
func extractRelationshipHints(a *analysis, hint *core.RecipientHint, complexity, formality float64) core.RelationshipHints {
	endearments := a.foundPhrases(endearmentMarkers)
	informal := a.foundPhrases(casualMarkers)
	professional := a.foundPhrases(professionalPhrases)

	hasTitle := hasTitleMarker(a)
	hasCompany := hasCompanyReference(a, hint)

	formalSalutation := hasGreeting(a.firstLine, formalSalutations)
	formalClosing := false
	for _, c := range formalClosings {
		if strings.Contains(a.lastLines, c) {
			formalClosing = true
			break
		}
	}

	casualCount := a.countAny(casualMarkers)

	var level core.FamiliarityLevel
	switch {
	case len(endearments) > 0:
		level = core.FamiliarityIntimate
	case casualCount >= veryFamiliarCasualCount:
		level = core.FamiliarityVeryFamiliar
	case casualCount >= familiarCasualCount:
		level = core.FamiliarityFamiliar
	case len(professional) > 0 && formality >= 0.4:
		level = core.FamiliarityProfessional
	case formalSalutation && formalClosing && (hasTitle || hasCompany):
		level = core.FamiliarityFormal
	default:
		level = core.FamiliarityProfessional
	}

	return core.RelationshipHints{
		FamiliarityLevel: level,
		LinguisticMarkers: core.LinguisticMarkers{
			GreetingStyle:       greetingStyle(a),
			ClosingStyle:        closingStyle(a),
			Endearments:         endearments,
			ProfessionalPhrases: professional,
			InformalLanguage:    informal,
		},
		FormalityIndicators: core.FormalityIndicators{
			HasTitle:                 hasTitle,
			HasCompanyReference:      hasCompany,
			VocabularySophistication: complexity,
		},
	}
}

func greetingStyle(a *analysis) string {
	switch {
	case hasGreeting(a.firstLine, formalSalutations):
		return "formal"
	case hasGreeting(a.firstLine, warmGreetings):
		return "warm"
	default:
		return "none"
	}
}

func closingStyle(a *analysis) string {
	for _, c := range formalClosings {
		if strings.Contains(a.lastLines, c) {
			return "formal"
		}
	}
	for _, c := range warmClosings {
		if strings.Contains(a.lastLines, c) {
			return "warm"
		}
	}
	return "none"
}

func hasCompanyReference(a *analysis, hint *core.RecipientHint) bool {
	for _, m := range companyMarkers {
		if a.hasPhrase(m) {
			return true
		}
	}
	// a corporate recipient domain counts as a company reference
	if hint != nil && hint.Email != "" {
		if at := strings.LastIndex(hint.Email, "@"); at >= 0 {
			domain := strings.ToLower(hint.Email[at+1:])
			switch domain {
			case "gmail.com", "yahoo.com", "hotmail.com", "outlook.com", "icloud.com", "aol.com", "":
			default:
				return true
			}
		}
	}
	return false
}
