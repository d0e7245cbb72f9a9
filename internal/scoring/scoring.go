// Package scoring rates artifact substats against per-character build
// priorities and maps totals onto letter grades.
package scoring

import (
	_ "embed"
	"fmt"
	"math"
	"player-cards/internal/constants"
	"player-cards/internal/domain"

	"gopkg.in/yaml.v3"
)

//go:embed theory.yaml
var theoryYAML []byte

type Weights map[string]float64

type Theory struct {
	Normalise  Weights            `yaml:"normalise"`
	Default    Weights            `yaml:"default"`
	Characters map[string]Weights `yaml:"characters"`
}

// Grade thresholds in ascending order. A total earns the last grade whose
// threshold it reaches.
var grades = []struct {
	Label     string
	Threshold float64
}{
	{"D", 10},
	{"C", 16.5},
	{"B", 23.1},
	{"A", 29.7},
	{"S", 36.3},
	{"SS", 42.9},
	{"SSS", 49.5},
	{"ACE", 56.1},
	{"ACE²", 66},
}

const LowestGrade = "E"

const defaultClass = "text-neutral-400"

var gradeClasses = map[string]string{
	"D":    "text-neutral-400",
	"C":    "text-neutral-200",
	"B":    "text-violet-400",
	"A":    "text-violet-400",
	"S":    "text-yellow-400",
	"SS":   "text-yellow-400",
	"SSS":  "text-yellow-400",
	"ACE":  "text-red-500",
	"ACE²": "text-red-500",
}

// Engine is stateless after construction and safe for concurrent use.
type Engine struct {
	theory Theory
}

func NewEngine() (*Engine, error) {
	var t Theory
	if err := yaml.Unmarshal(theoryYAML, &t); err != nil {
		return nil, fmt.Errorf("failed to parse scoring theory: %w", err)
	}
	return NewEngineWithTheory(t), nil
}

func NewEngineWithTheory(t Theory) *Engine {
	return &Engine{theory: t}
}

func (e *Engine) weights(character string) Weights {
	if w, ok := e.theory.Characters[character]; ok {
		return w
	}
	return e.theory.Default
}

// Score returns one score per substat, in input order. Stats the theory
// does not know score 0 but keep their position.
func (e *Engine) Score(character string, substats []domain.Substat) []float64 {
	w := e.weights(character)
	out := make([]float64, len(substats))
	for i, s := range substats {
		norm, ok := e.theory.Normalise[s.PropID]
		if !ok {
			continue
		}
		out[i] = round1(s.Value * norm * w[s.PropID])
	}
	return out
}

// Grade maps a total onto the letter scale.
func Grade(total float64) string {
	label := LowestGrade
	for _, g := range grades {
		if total >= g.Threshold {
			label = g.Label
		}
	}
	return label
}

// Class returns the presentation tag of a grade.
func Class(label string) string {
	if c, ok := gradeClasses[label]; ok {
		return c
	}
	return defaultClass
}

// Artifact scores a single artifact piece for character.
func (e *Engine) Artifact(character string, piece domain.Equipment) domain.Artifact {
	scores := e.Score(character, piece.Substats)
	var total float64
	for _, s := range scores {
		total += s
	}
	total = round1(total)
	label := Grade(total)
	return domain.Artifact{
		Equipment:     piece,
		SubstatScores: scores,
		Score:         total,
		ScoreLabel:    label,
		ScoreClass:    Class(label),
	}
}

type SetScore struct {
	Total float64 `json:"total"`
	Label string  `json:"label"`
	Class string  `json:"class"`
}

// Set sums the scores of a set. The grade is taken on the sum divided by
// the full set size so one scale serves single pieces and whole sets.
func Set(artifacts []domain.Artifact) SetScore {
	var total float64
	for _, a := range artifacts {
		total += a.Score
	}
	total = round1(total)
	label := Grade(total / constants.ArtifactsPerSet)
	return SetScore{Total: total, Label: label, Class: Class(label)}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
