package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const includeKey = "$include"

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} with the value of VAR. Bare $ signs are kept.
func expandEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		return os.Getenv(ref[2 : len(ref)-1])
	})
}

// Load reads a YAML or JSON configuration file, resolves $include
// directives and ${VAR} references, then validates the result.
func Load(path string) (*GameConfig, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("config path is required")
	}
	root, err := loadNodeRecursive(path, map[string]bool{})
	if err != nil {
		return nil, err
	}
	return decode(root)
}

// Parse validates a configuration document held in memory. Includes are
// not resolved.
func Parse(data []byte) (*GameConfig, error) {
	root, err := parseNode([]byte(expandEnv(string(data))))
	if err != nil {
		return nil, err
	}
	if hasKey(root, includeKey) {
		return nil, &ValidationError{Issues: []string{includeKey + " is only supported in files"}}
	}
	return decode(root)
}

func decode(root *yaml.Node) (*GameConfig, error) {
	transformPairMatrix(root)
	if err := validateSchema(root); err != nil {
		return nil, err
	}

	payload, err := yaml.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize config: %w", err)
	}
	var cfg GameConfig
	decoder := yaml.NewDecoder(bytes.NewReader(payload))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if issues := Validate(&cfg); len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}
	return &cfg, nil
}

// loadNodeRecursive loads a config file, resolving $include directives with
// cycle detection. Included files are merged first so the including file wins.
func loadNodeRecursive(path string, seen map[string]bool) (*yaml.Node, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if seen[absPath] {
		return nil, fmt.Errorf("config include cycle detected at %s", absPath)
	}
	seen[absPath] = true
	defer delete(seen, absPath)

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, err
	}
	root, err := parseNode([]byte(expandEnv(string(data))))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}

	includes, err := extractIncludes(root)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}

	merged := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	baseDir := filepath.Dir(absPath)
	for _, inc := range includes {
		if strings.TrimSpace(inc) == "" {
			continue
		}
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(baseDir, inc)
		}
		included, err := loadNodeRecursive(inc, seen)
		if err != nil {
			return nil, err
		}
		mergeNodes(merged, included)
	}
	mergeNodes(merged, root)
	return merged, nil
}

// parseNode decodes a single YAML or JSON document whose top level is a mapping.
func parseNode(data []byte) (*yaml.Node, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	var doc yaml.Node
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}, nil
		}
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := decoder.Decode(&yaml.Node{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("failed to parse config: expected single document")
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) == 1 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("failed to parse config: top level must be a mapping")
	}
	return root, nil
}

func extractIncludes(root *yaml.Node) ([]string, error) {
	value := removeKey(root, includeKey)
	if value == nil {
		return nil, nil
	}
	switch value.Kind {
	case yaml.ScalarNode:
		return []string{value.Value}, nil
	case yaml.SequenceNode:
		paths := make([]string, 0, len(value.Content))
		for _, entry := range value.Content {
			if entry.Kind != yaml.ScalarNode {
				return nil, errors.New("include entries must be strings")
			}
			paths = append(paths, entry.Value)
		}
		return paths, nil
	default:
		return nil, errors.New("include must be a string or list of strings")
	}
}

// mergeNodes merges the mapping src into dst. Nested mappings merge key by
// key; any other value replaces the one in dst. New keys keep src order.
func mergeNodes(dst, src *yaml.Node) {
	for i := 0; i+1 < len(src.Content); i += 2 {
		key, value := src.Content[i], src.Content[i+1]
		existing := lookup(dst, key.Value)
		switch {
		case existing == nil:
			dst.Content = append(dst.Content, key, value)
		case existing.Kind == yaml.MappingNode && value.Kind == yaml.MappingNode:
			mergeNodes(existing, value)
		default:
			*existing = *value
		}
	}
}

func lookup(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func hasKey(m *yaml.Node, key string) bool {
	return lookup(m, key) != nil
}

func removeKey(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			value := m.Content[i+1]
			m.Content = append(m.Content[:i], m.Content[i+2:]...)
			return value
		}
	}
	return nil
}

// transformPairMatrix rewrites a payoff matrix written as
// combinations: {key: [[strategy, weight], ...]} into separate
// combinations and matrix tables. Matrices that already have a matrix
// table, or whose combinations are not all pairs, are left alone.
func transformPairMatrix(root *yaml.Node) {
	pm := lookup(root, "payoffMatrix")
	if pm == nil || pm.Kind != yaml.MappingNode || hasKey(pm, "matrix") {
		return
	}
	combos := lookup(pm, "combinations")
	if combos == nil || combos.Kind != yaml.MappingNode {
		return
	}

	strategies := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	weights := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for i := 0; i+1 < len(combos.Content); i += 2 {
		key, pairs := combos.Content[i], combos.Content[i+1]
		if pairs.Kind != yaml.SequenceNode {
			return
		}
		strategySeq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		weightSeq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, pair := range pairs.Content {
			if pair.Kind != yaml.SequenceNode || len(pair.Content) != 2 {
				return
			}
			strategySeq.Content = append(strategySeq.Content, pair.Content[0])
			weightSeq.Content = append(weightSeq.Content, pair.Content[1])
		}
		strategies.Content = append(strategies.Content, key, strategySeq)
		weights.Content = append(weights.Content, scalar(key.Value), weightSeq)
	}

	*combos = *strategies
	pm.Content = append(pm.Content, scalar("matrix"), weights)
}

func scalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}
