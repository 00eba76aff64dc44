// Package yaml_adapter loads sidecar annotation metadata from YAML files:
//
//	types:
//	  github.com/acme/plugin.Plugin:
//	    annotations:
//	      - kind: plugin
//	        file: acme.php
//	    fields:
//	      AppJS:
//	        - kind: script
//	          deps: [jquery]
//	          always: true
//	    methods:
//	      OnSave:
//	        - kind: filter
//	          for: save_post
//	          priority: 20
package yaml_adapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/vk/hookbind/internal/annotation"
	"github.com/vk/hookbind/internal/config"
	"github.com/vk/hookbind/internal/ctxlog"
	"github.com/vk/hookbind/internal/fsutil"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

type document struct {
	Types map[string]typeDoc `yaml:"types"`
}

type typeDoc struct {
	Annotations []yaml.Node            `yaml:"annotations"`
	Fields      map[string][]yaml.Node `yaml:"fields"`
	Methods     map[string][]yaml.Node `yaml:"methods"`
}

// Loader is the YAML implementation of the config.Loader interface.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new YAML metadata loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Extensions implements config.Loader.
func (l *Loader) Extensions() []string {
	return []string{".yaml", ".yml"}
}

// Load parses every YAML file found under paths into one model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "path_count", len(paths))

	files, err := fsutil.Find(paths, l.Extensions()...)
	if err != nil {
		return nil, err
	}

	model := config.NewModel()
	for _, file := range files {
		doc, err := readFile(file)
		if err != nil {
			return nil, err
		}
		if err := translate(model, file, doc); err != nil {
			return nil, fmt.Errorf("in %s: %w", file, err)
		}
	}

	logger.Debug("YAML loading complete.", "files", len(files), "types", len(model.Types))
	return model, nil
}

func readFile(file string) (*document, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var doc document
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode YAML file %s: %w", file, err)
	}
	return &doc, nil
}

func translate(model *config.Model, file string, doc *document) error {
	for _, name := range sortedKeys(doc.Types) {
		td := doc.Types[name]
		ts := model.Type(name)

		as, err := translateNodes(file, td.Annotations)
		if err != nil {
			return fmt.Errorf("type %q: %w", name, err)
		}
		ts.Annotations = append(ts.Annotations, as...)

		for _, field := range sortedKeys(td.Fields) {
			as, err := translateNodes(file, td.Fields[field])
			if err != nil {
				return fmt.Errorf("type %q field %q: %w", name, field, err)
			}
			m := ts.Field(field)
			m.Annotations = append(m.Annotations, as...)
		}
		for _, method := range sortedKeys(td.Methods) {
			as, err := translateNodes(file, td.Methods[method])
			if err != nil {
				return fmt.Errorf("type %q method %q: %w", name, method, err)
			}
			m := ts.Method(method)
			m.Annotations = append(m.Annotations, as...)
		}
	}
	return nil
}

func translateNodes(file string, nodes []yaml.Node) ([]*config.AnnotationSpec, error) {
	out := make([]*config.AnnotationSpec, 0, len(nodes))
	for i := range nodes {
		node := &nodes[i]
		var raw map[string]any
		if err := node.Decode(&raw); err != nil {
			return nil, fmt.Errorf("line %d: annotation must be a mapping: %w", node.Line, err)
		}
		kind, _ := raw["kind"].(string)
		if kind == "" {
			return nil, fmt.Errorf("line %d: annotation without a kind", node.Line)
		}
		delete(raw, "kind")

		attrs := make(map[string]cty.Value, len(raw))
		for k, v := range raw {
			cv, err := annotation.FromGo(v)
			if err != nil {
				return nil, fmt.Errorf("line %d: annotation %q attribute %q: %w", node.Line, kind, k, err)
			}
			attrs[k] = cv
		}
		out = append(out, &config.AnnotationSpec{
			Kind:       kind,
			Attributes: attrs,
			Origin:     fmt.Sprintf("%s:%d,%d", file, node.Line, node.Column),
		})
	}
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
