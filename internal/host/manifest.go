package host

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/jimlawless/whereami"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Manifest перечисляет фрагменты, которые хост должен держать смонтированными.
//
//	fragments:
//	  - name: cartsync
//	    when: auth.isAuthenticated
//	  - name: orderwatch
//	    enabled: false
type Manifest struct {
	Fragments []ManifestEntry `json:"fragments" yaml:"fragments"`
}

type ManifestEntry struct {
	Name string `json:"name" yaml:"name"`
	// Enabled == nil означает true.
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// When — выражение expr над Env; пусто: фрагмент смонтирован всегда.
	When string `json:"when,omitempty" yaml:"when,omitempty"`
}

func (m ManifestEntry) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// LoadManifest читает манифест из файла. .yaml/.yml разбираются как YAML,
// всё остальное как JSON с комментариями.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAMLManifest(data)
	default:
		return ParseJSONCManifest(data)
	}
}

func ParseJSONCManifest(data []byte) (*Manifest, error) {
	var m Manifest
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &m, m.validate()
}

func ParseYAMLManifest(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &m, m.validate()
}

func (m *Manifest) validate() error {
	seen := make(map[string]struct{}, len(m.Fragments))
	for i, f := range m.Fragments {
		if f.Name == "" {
			return fmt.Errorf("manifest entry %d: name is required", i)
		}
		if _, ok := seen[f.Name]; ok {
			return fmt.Errorf("manifest entry %d: duplicate fragment %q", i, f.Name)
		}
		seen[f.Name] = struct{}{}
	}

	return nil
}

// compileCondition компилирует when; пустое условие: nil-программа (всегда истина).
func compileCondition(when string) (*vm.Program, error) {
	if strings.TrimSpace(when) == "" {
		return nil, nil
	}

	program, err := expr.Compile(when, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid condition %q: %w", when, err)
	}

	return program, nil
}

func evalCondition(program *vm.Program, env Env) (bool, error) {
	if program == nil {
		return true, nil
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}

	ok, _ := out.(bool)
	return ok, nil
}
