package channel

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mbiostore/mbio/codec"
)

// None is the identity technique, valid at every stage.
const None = "None"

// ErrUnknownTechnique is returned by Lookup for unregistered names.
var ErrUnknownTechnique = errors.New("channel: unknown technique")

// Stage is one step of the storage pipeline.
type Stage int

const (
	Synthesis Stage = iota
	Storage
	Sequencing
)

// Stages lists the stages in pipeline order.
var Stages = []Stage{Synthesis, Storage, Sequencing}

var stageNames = [...]string{Synthesis: "synthesis", Storage: "storage", Sequencing: "sequencing"}

// String returns the lower-case stage name.
func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool { return s >= Synthesis && s <= Sequencing }

// ParseStage resolves a stage name, ignoring case.
func ParseStage(name string) (Stage, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for i, n := range stageNames {
		if n == key {
			return Stage(i), nil
		}
	}
	return 0, codec.Configf("channel: unknown stage %q", name)
}

// UnmarshalYAML decodes a stage name.
func (s *Stage) UnmarshalYAML(n *yaml.Node) error {
	var name string
	if err := n.Decode(&name); err != nil {
		return err
	}
	v, err := ParseStage(name)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// MarshalYAML encodes the stage name.
func (s Stage) MarshalYAML() (any, error) { return s.String(), nil }

// ErrorModel is the error profile of one technique.
type ErrorModel struct {
	Name         string  `yaml:"name" json:"name"`
	Stage        Stage   `yaml:"stage" json:"stage"`
	Substitution float64 `yaml:"substitution" json:"substitution"`
	Insertion    float64 `yaml:"insertion" json:"insertion"`
	Deletion     float64 `yaml:"deletion" json:"deletion"`
	Dropout      float64 `yaml:"dropout" json:"dropout"`
}

// Identity reports whether m never changes a sequence.
func (m ErrorModel) Identity() bool {
	return m.Substitution == 0 && m.Insertion == 0 && m.Deletion == 0 && m.Dropout == 0
}

// Validate checks the name, stage and rate ranges.
func (m ErrorModel) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return codec.Configf("channel: technique without a name")
	}
	if !m.Stage.Valid() {
		return codec.Configf("channel: %s: invalid stage %d", m.Name, int(m.Stage))
	}
	for _, r := range []struct {
		field string
		v     float64
	}{
		{"substitution", m.Substitution},
		{"insertion", m.Insertion},
		{"deletion", m.Deletion},
		{"dropout", m.Dropout},
	} {
		if r.v < 0 || r.v > 1 {
			return codec.Configf("channel: %s: %s rate %g outside [0,1]", m.Name, r.field, r.v)
		}
	}
	if m.Substitution+m.Deletion > 1 {
		return codec.Configf("channel: %s: substitution+deletion %g > 1", m.Name, m.Substitution+m.Deletion)
	}
	return nil
}

// Registry maps (stage, name) to error models. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	models map[Stage]map[string]ErrorModel
}

// NewRegistry returns an empty registry; None is always resolvable.
func NewRegistry() *Registry {
	r := &Registry{models: make(map[Stage]map[string]ErrorModel)}
	for _, s := range Stages {
		r.models[s] = make(map[string]ErrorModel)
	}
	return r
}

// Register adds or replaces m.
func (r *Registry) Register(m ErrorModel) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if strings.EqualFold(m.Name, None) {
		return codec.Configf("channel: %q is reserved", None)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[m.Stage][m.Name] = m
	return nil
}

// Lookup resolves a technique at stage. Names match case-insensitively.
func (r *Registry) Lookup(stage Stage, name string) (ErrorModel, error) {
	if !stage.Valid() {
		return ErrorModel{}, codec.Configf("channel: invalid stage %d", int(stage))
	}
	if strings.EqualFold(strings.TrimSpace(name), None) {
		return ErrorModel{Name: None, Stage: stage}, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if m, ok := r.models[stage][name]; ok {
		return m, nil
	}
	for n, m := range r.models[stage] {
		if strings.EqualFold(n, name) {
			return m, nil
		}
	}
	return ErrorModel{}, fmt.Errorf("%w: %w %q at stage %s", codec.ErrConfiguration, ErrUnknownTechnique, name, stage)
}

// Techniques returns the sorted technique names of stage, None first.
func (r *Registry) Techniques(stage Stage) []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.models[stage]))
	for n := range r.models[stage] {
		names = append(names, n)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return append([]string{None}, names...)
}

type catalogue struct {
	Techniques []ErrorModel `yaml:"techniques"`
}

// Load registers every technique of a YAML catalogue read from src.
func (r *Registry) Load(src io.Reader) error {
	var cat catalogue
	dec := yaml.NewDecoder(src)
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil {
		return fmt.Errorf("%w: channel: technique catalogue: %w", codec.ErrConfiguration, err)
	}
	for _, m := range cat.Techniques {
		if err := r.Register(m); err != nil {
			return err
		}
	}
	return nil
}

//go:embed techniques.yaml
var builtin string

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// NewBuiltinRegistry returns a fresh registry holding the built-in techniques.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	if err := r.Load(strings.NewReader(builtin)); err != nil {
		panic(err)
	}
	return r
}

// DefaultRegistry returns the shared registry preloaded with the built-in
// techniques. Models registered on it are visible to every caller.
func DefaultRegistry() *Registry {
	defaultOnce.Do(func() { defaultReg = NewBuiltinRegistry() })
	return defaultReg
}
