package service

import (
	_ "embed"
	"fmt"
	"math/rand"

	"gopkg.in/yaml.v3"

	"preview-api/internal/domain"
)

//go:embed templates/interview_questions.yaml
var defaultTemplateYAML []byte

type templateGroup struct {
	Name     string   `yaml:"name"`
	Variants []string `yaml:"variants"`
}

type templateFile struct {
	Phases map[domain.Phase][]templateGroup `yaml:"phases"`
}

// TemplateBank guarda las preguntas fijas de las fases template.
type TemplateBank struct {
	groups map[domain.Phase][]templateGroup
	pick   func(n int) int
}

// NewTemplateBank carga el banco embebido. pick elige variante; nil usa rand.
func NewTemplateBank(pick func(n int) int) (*TemplateBank, error) {
	return ParseTemplateBank(defaultTemplateYAML, pick)
}

func ParseTemplateBank(data []byte, pick func(n int) int) (*TemplateBank, error) {
	var f templateFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse template bank: %w", err)
	}
	for phase, groups := range f.Phases {
		if !phase.Valid() || !phase.IsTemplate() {
			return nil, fmt.Errorf("template bank phase %q is not a template phase", phase)
		}
		if len(groups) < phase.DefaultQuestionCount() {
			return nil, fmt.Errorf("template bank phase %s has %d groups, needs %d", phase, len(groups), phase.DefaultQuestionCount())
		}
		for _, g := range groups {
			if len(g.Variants) == 0 {
				return nil, fmt.Errorf("template group %s/%s has no variants", phase, g.Name)
			}
		}
	}
	for _, phase := range domain.AllPhases() {
		if phase.IsTemplate() {
			if _, ok := f.Phases[phase]; !ok {
				return nil, fmt.Errorf("template bank missing phase %s", phase)
			}
		}
	}
	if pick == nil {
		pick = rand.Intn
	}
	return &TemplateBank{groups: f.Phases, pick: pick}, nil
}

// Question devuelve la pregunta index (0-based) de la fase; false si el banco se agoto.
func (b *TemplateBank) Question(phase domain.Phase, index int) (string, bool) {
	groups := b.groups[phase]
	if index < 0 || index >= len(groups) || index >= phase.DefaultQuestionCount() {
		return "", false
	}
	variants := groups[index].Variants
	return variants[b.pick(len(variants))], true
}
