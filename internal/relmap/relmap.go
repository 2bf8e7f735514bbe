// Package relmap assigns relationship categories to recipients. Configured
// overrides win; otherwise the category is derived from the linguistic
// familiarity signal.
package relmap

import (
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/voice-retrieval/internal/core"
)

// detection methods recorded on the resulting tag
const (
	methodOverride   = "override"
	methodLinguistic = "linguistic"
)

// familiarityCategories maps the linguistic familiarity ladder onto default
// relationship categories with the confidence of each mapping
var familiarityCategories = map[core.FamiliarityLevel]core.RelationshipTag{
	core.FamiliarityIntimate:     {Type: "personal", Confidence: 0.8, DetectionMethod: methodLinguistic},
	core.FamiliarityVeryFamiliar: {Type: "friends", Confidence: 0.7, DetectionMethod: methodLinguistic},
	core.FamiliarityFamiliar:     {Type: "friends", Confidence: 0.6, DetectionMethod: methodLinguistic},
	core.FamiliarityProfessional: {Type: "colleagues", Confidence: 0.6, DetectionMethod: methodLinguistic},
	core.FamiliarityFormal:       {Type: "formal", Confidence: 0.7, DetectionMethod: methodLinguistic},
}

// Resolver resolves recipient addresses to relationship tags
type Resolver struct {
	// exact address -> relationship type
	addresses map[string]string
	// domain -> relationship type
	domains map[string]string
	logger  *zap.Logger
}

// NewResolver creates a resolver from configured override entries. Each
// entry is "address-or-domain=type", e.g. "sam@example.com=spouse" or
// "acme.com=colleagues". Malformed entries are logged and skipped.
func NewResolver(overrides []string, logger *zap.Logger) *Resolver {
	r := &Resolver{
		addresses: make(map[string]string),
		domains:   make(map[string]string),
		logger:    logger,
	}

	for _, entry := range overrides {
		key, relType, ok := strings.Cut(entry, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		relType = strings.TrimSpace(relType)
		if !ok || key == "" || relType == "" {
			logger.Warn("Ignoring malformed relationship override", zap.String("entry", entry))
			continue
		}
		if strings.Contains(key, "@") {
			r.addresses[key] = relType
		} else {
			r.domains[key] = relType
		}
	}

	if len(r.addresses)+len(r.domains) > 0 {
		logger.Info("Loaded relationship overrides",
			zap.Int("addresses", len(r.addresses)),
			zap.Int("domains", len(r.domains)))
	}

	return r
}

// Resolve returns the relationship tag for a recipient. A configured
// override yields full confidence; otherwise the familiarity level decides.
func (r *Resolver) Resolve(recipientEmail string, level core.FamiliarityLevel) core.RelationshipTag {
	addr := strings.ToLower(strings.TrimSpace(recipientEmail))

	if relType, ok := r.addresses[addr]; ok {
		return core.RelationshipTag{Type: relType, Confidence: 1.0, DetectionMethod: methodOverride}
	}
	if at := strings.LastIndex(addr, "@"); at >= 0 {
		if relType, ok := r.domains[addr[at+1:]]; ok {
			return core.RelationshipTag{Type: relType, Confidence: 1.0, DetectionMethod: methodOverride}
		}
	}

	if tag, ok := familiarityCategories[level]; ok {
		return tag
	}
	return core.RelationshipTag{Type: "colleagues", Confidence: 0.5, DetectionMethod: methodLinguistic}
}
