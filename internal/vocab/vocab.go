// Package vocab holds the closed vocabularies the pipeline recognizes.
// The vocabularies are data, not code: they ship as an embedded YAML
// document and can be overridden by a file path from configuration, so
// states, crops, and keyword sets can be extended without touching the
// extraction or classification logic.
package vocab

import (
	_ "embed"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/Luc0-0/Samarth/internal/model"
)

//go:embed vocab.yaml
var defaultVocab []byte

// Metric describes one queryable measure and the words that name it.
type Metric struct {
	Domain   model.Domain `yaml:"domain"`
	Keywords []string     `yaml:"keywords"`
}

// Vocabulary is the full closed vocabulary for one deployment.
type Vocabulary struct {
	States       []string                     `yaml:"states"`
	StateAliases map[string]string            `yaml:"state_aliases"`
	Crops        []string                     `yaml:"crops"`
	CropAliases  map[string]string            `yaml:"crop_aliases"`
	Metrics      map[string]Metric            `yaml:"metrics"`
	Archetypes   map[model.Archetype][]string `yaml:"archetypes"`
	RankingLow   []string                     `yaml:"ranking_low"`
	RankingHigh  []string                     `yaml:"ranking_high"`
	SumCues      []string                     `yaml:"sum_cues"`
	LiveTriggers []string                     `yaml:"live_triggers"`
}

// Default returns the embedded vocabulary.
func Default() (*Vocabulary, error) {
	return parse(defaultVocab)
}

// Load reads a vocabulary file, falling back to the embedded default
// when path is empty.
func Load(path string) (*Vocabulary, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "vocab: read %s", path)
	}
	return parse(data)
}

func parse(data []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, eris.Wrap(err, "vocab: unmarshal")
	}
	if len(v.States) == 0 || len(v.Metrics) == 0 || len(v.Archetypes) == 0 {
		return nil, eris.New("vocab: states, metrics, and archetypes are required")
	}
	return &v, nil
}

// MetricDomain returns the domain a metric belongs to.
func (v *Vocabulary) MetricDomain(metric string) (model.Domain, bool) {
	m, ok := v.Metrics[metric]
	if !ok {
		return "", false
	}
	return m.Domain, true
}
