package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// TraitDefinition define un rasgo requerido del perfil y su descripción.
type TraitDefinition struct {
	Trait       string `json:"trait"`
	Description string `json:"description"`
}

// ProbeStrategy es una estrategia de sondeo de ejemplo; solo contexto de prompt.
type ProbeStrategy struct {
	Strategy    string `json:"strategy"`
	Description string `json:"description"`
}

// Enhancement es una mejora conversacional sugerida; solo contexto de prompt.
type Enhancement struct {
	Name        string `json:"name"`
	Instruction string `json:"instruction"`
}

var ErrEmptyCatalog = errors.New("catalog: empty trait manifest")

// TraitCatalog es el conjunto ordenado de rasgos requeridos.
// Inmutable después de cargar; seguro para lecturas concurrentes.
type TraitCatalog struct {
	defs []TraitDefinition
	keys map[string]int
}

func NewTraitCatalog(defs []TraitDefinition) (*TraitCatalog, error) {
	if len(defs) == 0 {
		return nil, ErrEmptyCatalog
	}
	keys := make(map[string]int, len(defs))
	for i, d := range defs {
		if strings.TrimSpace(d.Trait) == "" {
			return nil, fmt.Errorf("catalog: trait %d has empty key", i)
		}
		keys[d.Trait] = i
	}
	return &TraitCatalog{defs: defs, keys: keys}, nil
}

// Keys devuelve las claves de rasgos en orden de manifiesto.
func (c *TraitCatalog) Keys() []string {
	out := make([]string, len(c.defs))
	for i, d := range c.defs {
		out[i] = d.Trait
	}
	return out
}

// Contains informa si la clave pertenece al catálogo.
func (c *TraitCatalog) Contains(key string) bool {
	_, ok := c.keys[key]
	return ok
}

// Describe devuelve la descripción del rasgo, o la clave misma si no existe.
func (c *TraitCatalog) Describe(key string) string {
	if i, ok := c.keys[key]; ok {
		return c.defs[i].Description
	}
	return key
}

// Definitions devuelve una copia de las definiciones en orden.
func (c *TraitCatalog) Definitions() []TraitDefinition {
	out := make([]TraitDefinition, len(c.defs))
	copy(out, c.defs)
	return out
}

func (c *TraitCatalog) Len() int { return len(c.defs) }

// LoadTraitCatalog lee el manifiesto JSON de rasgos desde disco.
func LoadTraitCatalog(path string) (*TraitCatalog, error) {
	var defs []TraitDefinition
	if err := loadJSONFile(path, &defs); err != nil {
		return nil, err
	}
	return NewTraitCatalog(defs)
}

// LoadProbes lee el corpus de estrategias de sondeo.
func LoadProbes(path string) ([]ProbeStrategy, error) {
	var probes []ProbeStrategy
	if err := loadJSONFile(path, &probes); err != nil {
		return nil, err
	}
	return probes, nil
}

// LoadEnhancements lee el corpus de mejoras conversacionales.
func LoadEnhancements(path string) ([]Enhancement, error) {
	var enhancements []Enhancement
	if err := loadJSONFile(path, &enhancements); err != nil {
		return nil, err
	}
	return enhancements, nil
}

func loadJSONFile(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("catalog: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	return nil
}
