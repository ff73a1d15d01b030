// Package match loads the trigger definitions snipd expands.
//
// A match file is YAML:
//
//	matches:
//	  - trigger: ":date"
//	    replace: "today is {{now}}"
//	    vars:
//	      - name: now
//	        type: date
//	        params:
//	          format: "%Y-%m-%d"
//
// Files are checked against an embedded JSON schema before decoding, so
// typos in keys are reported instead of silently ignored.
package match

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"snipd/internal/extension"
	"snipd/internal/render"
)

var (
	// ErrInvalidFile is returned for files that fail the schema.
	ErrInvalidFile = errors.New("match: invalid match file")

	// ErrDuplicateTrigger is returned when two matches share a trigger.
	ErrDuplicateTrigger = errors.New("match: duplicate trigger")
)

//go:embed match.schema.json
var schemaJSON []byte

const schemaURL = "https://snipd.local/schema/match-file-v1.json"

var schema = func() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		panic(fmt.Sprintf("match schema: %v", err))
	}
	return compiler.MustCompile(schemaURL)
}()

// Match is one trigger and the template it expands to.
type Match struct {
	Trigger  string            `yaml:"trigger,omitempty" json:"trigger,omitempty"`
	Triggers []string          `yaml:"triggers,omitempty" json:"triggers,omitempty"`
	Replace  string            `yaml:"replace" json:"replace"`
	Label    string            `yaml:"label,omitempty" json:"label,omitempty"`
	Vars     []render.Variable `yaml:"vars,omitempty" json:"vars,omitempty"`

	// Source is the file the match was read from.
	Source string `yaml:"-" json:"source,omitempty"`
}

// AllTriggers returns every trigger of the match.
func (m Match) AllTriggers() []string {
	if m.Trigger != "" {
		return []string{m.Trigger}
	}
	return m.Triggers
}

// Template returns the render template of the match.
func (m Match) Template() render.Template {
	return render.Template{Replace: m.Replace, Vars: m.Vars}
}

// File is a parsed match file.
type File struct {
	Path    string  `yaml:"-"`
	Matches []Match `yaml:"matches"`
}

// ParseFile validates and decodes one match file.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read match file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Path = path
	for i := range f.Matches {
		f.Matches[i].Source = path
	}
	return f, nil
}

// Parse validates and decodes match file contents.
func Parse(data []byte) (*File, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	if doc == nil {
		return &File{}, nil
	}

	// The schema works on JSON values; route the YAML document through
	// encoding/json to get them.
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	var instance any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	if err := schema.Validate(instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	return &f, nil
}

// Set is the collection of matches loaded from a directory.
type Set struct {
	Files   []string
	Matches []Match

	byTrigger map[string]int
}

// NewSet indexes matches by trigger.
func NewSet(matches []Match) (*Set, error) {
	s := &Set{Matches: matches, byTrigger: make(map[string]int)}
	for i, m := range matches {
		for _, t := range m.AllTriggers() {
			if j, ok := s.byTrigger[t]; ok {
				return nil, fmt.Errorf("%w %q in %s and %s", ErrDuplicateTrigger, t, matches[j].Source, m.Source)
			}
			s.byTrigger[t] = i
		}
	}
	return s, nil
}

// LoadDir reads every *.yml and *.yaml file in dir, sorted by name. A
// missing directory yields an empty set.
func LoadDir(dir string) (*Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewSet(nil)
		}
		return nil, fmt.Errorf("read match dir: %w", err)
	}

	var (
		files   []string
		matches []Match
	)
	for _, e := range entries {
		if e.IsDir() || !IsMatchFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)

	for _, path := range files {
		f, err := ParseFile(path)
		if err != nil {
			return nil, err
		}
		matches = append(matches, f.Matches...)
	}

	s, err := NewSet(matches)
	if err != nil {
		return nil, err
	}
	s.Files = files
	return s, nil
}

// IsMatchFile reports whether name looks like a match file.
func IsMatchFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	ext := filepath.Ext(name)
	return ext == ".yml" || ext == ".yaml"
}

// Find returns the match registered for trigger.
func (s *Set) Find(trigger string) (Match, bool) {
	i, ok := s.byTrigger[trigger]
	if !ok {
		return Match{}, false
	}
	return s.Matches[i], true
}

// Triggers returns every trigger, sorted.
func (s *Set) Triggers() []string {
	out := make([]string, 0, len(s.byTrigger))
	for t := range s.byTrigger {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Check reports variables whose type no extension in reg implements and
// variable names declared twice in one match.
func (s *Set) Check(reg *extension.Registry) error {
	var errs []error
	for _, m := range s.Matches {
		seen := make(map[string]bool, len(m.Vars))
		for _, v := range m.Vars {
			if seen[v.Name] {
				errs = append(errs, fmt.Errorf("%s: %s: %w %q", m.Source, m.AllTriggers()[0], render.ErrDuplicateVariable, v.Name))
			}
			seen[v.Name] = true
			if _, ok := reg.Lookup(v.Type); !ok {
				errs = append(errs, fmt.Errorf("%s: %s: variable %q: %w %q", m.Source, m.AllTriggers()[0], v.Name, render.ErrUnknownExtension, v.Type))
			}
		}
	}
	return errors.Join(errs...)
}
