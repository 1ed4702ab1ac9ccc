// Package loader reads declarative table definitions from YAML files.
//
// Each file under the schemas directory describes one table. Unknown fields
// cause parse errors so that typos in a definition surface immediately
// instead of silently dropping a column or constraint.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/convergelabs/schemasync/pkg/core"
)

// tableYAML is the on-disk shape of a table definition.
type tableYAML struct {
	Name        string           `yaml:"name"`
	Columns     []columnYAML     `yaml:"columns"`
	Constraints []constraintYAML `yaml:"constraints"`
}

type columnYAML struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Nullable bool   `yaml:"nullable"`
	Default  string `yaml:"default"`
}

type constraintYAML struct {
	Name          string   `yaml:"name"`
	Kind          string   `yaml:"kind"`
	Columns       []string `yaml:"columns"`
	ForeignTable  string   `yaml:"foreign_table"`
	ForeignColumn string   `yaml:"foreign_column"`
	OnUpdate      string   `yaml:"on_update"`
	OnDelete      string   `yaml:"on_delete"`
}

// ParseError reports a problem with one schema file.
type ParseError struct {
	Path    string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// LoadFile parses a single table definition. When the file omits the table
// name, the file's base name (without extension) is used.
func LoadFile(path string) (*core.TableSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Message: err.Error()}
	}
	return parse(path, data)
}

func parse(path string, data []byte) (*core.TableSchema, error) {
	var raw tableYAML
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, &ParseError{Path: path, Message: fmt.Sprintf("invalid YAML: %v", err)}
	}

	if raw.Name == "" {
		base := filepath.Base(path)
		raw.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	table := &core.TableSchema{Name: raw.Name}
	for _, c := range raw.Columns {
		table.Columns = append(table.Columns, core.ColumnDefinition{
			Name:     c.Name,
			Type:     c.Type,
			Nullable: c.Nullable,
			Default:  c.Default,
		})
	}
	for _, c := range raw.Constraints {
		kind, err := constraintKind(c.Kind)
		if err != nil {
			return nil, &ParseError{Path: path, Message: err.Error()}
		}
		table.Constraints = append(table.Constraints, core.ConstraintDefinition{
			Name:          c.Name,
			Kind:          kind,
			Columns:       c.Columns,
			ForeignTable:  c.ForeignTable,
			ForeignColumn: c.ForeignColumn,
			OnUpdate:      c.OnUpdate,
			OnDelete:      c.OnDelete,
		})
	}

	if err := table.Validate(); err != nil {
		return nil, &ParseError{Path: path, Message: err.Error()}
	}
	return table, nil
}

func constraintKind(s string) (core.ConstraintKind, error) {
	switch strings.ToLower(s) {
	case "primary", "primary key", "primary_key":
		return core.PrimaryKey, nil
	case "unique":
		return core.Unique, nil
	case "foreign", "foreign key", "foreign_key":
		return core.ForeignKey, nil
	}
	return "", fmt.Errorf("unknown constraint kind %q", s)
}

// LoadDir loads every .yaml/.yml file in dir, sorted by file name, and
// rejects duplicate table names across files.
func LoadDir(dir string) ([]*core.TableSchema, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading schemas directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	var (
		tables []*core.TableSchema
		seen   = make(map[string]string)
	)
	for _, p := range paths {
		t, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		lower := strings.ToLower(t.Name)
		if prev, dup := seen[lower]; dup {
			return nil, &ParseError{
				Path:    p,
				Message: fmt.Sprintf("table %q already defined in %s", t.Name, prev),
			}
		}
		seen[lower] = p
		tables = append(tables, t)
	}
	return tables, nil
}
