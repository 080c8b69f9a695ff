package service

import (
	"studywat/internal/catalog"
	"studywat/internal/domain"
)

// Phase es la fase de la conversación, derivada del perfil en cada turno.
type Phase string

const (
	PhaseExploration    Phase = "exploration"
	PhaseConsolidation  Phase = "consolidation"
	PhaseRecommendation Phase = "recommendation"
)

// DefaultConfidenceThreshold es el umbral para considerar un rasgo consolidado.
const DefaultConfidenceThreshold = 0.8

// ClassifyPhase recalcula la fase desde cero: sin estado, sin tabla de
// transiciones. Un rasgo del catálogo cuenta como satisfecho si CUALQUIERA de
// sus observaciones supera el umbral (lectura conservadora que favorece el
// avance; decisión registrada en DESIGN.md).
func ClassifyPhase(cat *catalog.TraitCatalog, traits []domain.TraitObservation, threshold float64) Phase {
	observed := make(map[string]bool)
	satisfied := make(map[string]bool)
	for _, t := range traits {
		observed[t.Trait] = true
		if t.Confidence >= threshold {
			satisfied[t.Trait] = true
		}
	}

	for _, key := range cat.Keys() {
		if !observed[key] {
			return PhaseExploration
		}
	}
	for _, key := range cat.Keys() {
		if !satisfied[key] {
			return PhaseConsolidation
		}
	}
	return PhaseRecommendation
}

// MissingTraits devuelve las claves del catálogo sin ninguna observación,
// en orden de manifiesto.
func MissingTraits(cat *catalog.TraitCatalog, traits []domain.TraitObservation) []string {
	observed := make(map[string]bool, len(traits))
	for _, t := range traits {
		observed[t.Trait] = true
	}
	var missing []string
	for _, key := range cat.Keys() {
		if !observed[key] {
			missing = append(missing, key)
		}
	}
	return missing
}

// firstLowConfidenceTrait devuelve la primera observación bajo el umbral cuyo
// rasgo no tiene otra observación que lo satisfaga.
func firstLowConfidenceTrait(cat *catalog.TraitCatalog, traits []domain.TraitObservation, threshold float64) (domain.TraitObservation, bool) {
	satisfied := make(map[string]bool)
	for _, t := range traits {
		if t.Confidence >= threshold {
			satisfied[t.Trait] = true
		}
	}
	for _, t := range traits {
		if !satisfied[t.Trait] && cat.Contains(t.Trait) {
			return t, true
		}
	}
	return domain.TraitObservation{}, false
}
