package core

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"
	"unicode"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/unicode/norm"
)

//go:embed columns.toml
var defaultRegistryDocument []byte

// Role identifies a column the pipeline treats specially.
// Columns that match no role resolve to RoleOther.
type Role int

const (
	RoleOther Role = iota
	RoleRegion
	RoleNeighborhood
	RoleComplex
	RoleSupplyArea
	RoleExclusiveArea
	RoleAccessKey
	RoleLeaseCount
)

var roleNames = map[string]Role{
	"region":         RoleRegion,
	"neighborhood":   RoleNeighborhood,
	"complex":        RoleComplex,
	"supply_area":    RoleSupplyArea,
	"exclusive_area": RoleExclusiveArea,
	"access_key":     RoleAccessKey,
	"lease_count":    RoleLeaseCount,
}

// Column describes one header cell of a loaded sheet.
type Column struct {
	Name   string // Raw header text
	Key    string // Name with all whitespace removed
	Group  string // Display group title
	Index  int    // Position in the grid row
	Role   Role
	Hidden bool
}

// Visible reports whether the column is rendered and exported.
// Padding columns have an empty header and are never visible.
func (c Column) Visible() bool {
	return !c.Hidden && c.Key != ""
}

// Normalize strips every whitespace rune from a header name and composes
// decomposed Hangul (NFC). It is idempotent and preserves case.
func Normalize(name string) string {
	return norm.NFC.String(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '\uFEFF' {
			return -1
		}
		return r
	}, name))
}

type registryDocument struct {
	OtherGroup         string            `toml:"other_group"`
	Hidden             []string          `toml:"hidden"`
	CompletenessGroups []string          `toml:"completeness_groups"`
	Groups             []groupDocument   `toml:"groups"`
	Roles              map[string]string `toml:"roles"`
}

type groupDocument struct {
	Title   string   `toml:"title"`
	Columns []string `toml:"columns"`
}

// Registry holds the static column metadata: which group each header belongs
// to, which columns are hidden, and which columns play a pipeline role.
// A Registry is read-only after construction and safe for concurrent use.
type Registry struct {
	otherGroup   string
	groupOf      map[string]string
	hidden       map[string]bool
	completeness map[string]bool
	roles        map[string]Role
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the registry decoded from the embedded columns.toml.
// Panics if the embedded document is invalid.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		reg, err := ParseRegistry(defaultRegistryDocument)
		if err != nil {
			panic(fmt.Sprintf("embedded column registry: %v", err))
		}
		defaultRegistry = reg
	})
	return defaultRegistry
}

// LoadRegistry reads a registry document from disk.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read column registry: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry decodes a TOML registry document.
func ParseRegistry(data []byte) (*Registry, error) {
	var doc registryDocument
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, fmt.Errorf("decode column registry: %w", err)
	}

	if doc.OtherGroup == "" {
		doc.OtherGroup = "기타"
	}

	reg := &Registry{
		otherGroup:   doc.OtherGroup,
		groupOf:      make(map[string]string),
		hidden:       make(map[string]bool, len(doc.Hidden)),
		completeness: make(map[string]bool, len(doc.CompletenessGroups)),
		roles:        make(map[string]Role, len(doc.Roles)),
	}

	for _, g := range doc.Groups {
		if g.Title == "" {
			return nil, fmt.Errorf("column registry: group without title")
		}
		for _, col := range g.Columns {
			key := Normalize(col)
			// First group listing a column wins.
			if _, exists := reg.groupOf[key]; !exists {
				reg.groupOf[key] = g.Title
			}
		}
	}

	for _, h := range doc.Hidden {
		reg.hidden[Normalize(h)] = true
	}
	for _, g := range doc.CompletenessGroups {
		reg.completeness[g] = true
	}

	for name, col := range doc.Roles {
		role, ok := roleNames[name]
		if !ok {
			return nil, fmt.Errorf("column registry: unknown role %q", name)
		}
		reg.roles[Normalize(col)] = role
	}

	return reg, nil
}

// GroupOf returns the group title for a raw header name.
// Unmatched names fall into the catch-all group.
func (r *Registry) GroupOf(name string) string {
	if g, ok := r.groupOf[Normalize(name)]; ok {
		return g
	}
	return r.otherGroup
}

// IsHidden reports whether a normalized key is always excluded from display.
func (r *Registry) IsHidden(key string) bool {
	return r.hidden[key]
}

// CountsTowardCompleteness reports whether cells in the group contribute to
// the deduplication score.
func (r *Registry) CountsTowardCompleteness(group string) bool {
	return r.completeness[group]
}

// RoleOf returns the pipeline role for a normalized key.
func (r *Registry) RoleOf(key string) Role {
	return r.roles[key]
}

// Resolve builds column descriptors from a header row.
func (r *Registry) Resolve(header []string) []Column {
	cols := make([]Column, len(header))
	for i, name := range header {
		key := Normalize(name)
		cols[i] = Column{
			Name:   name,
			Key:    key,
			Group:  r.GroupOf(name),
			Index:  i,
			Role:   r.RoleOf(key),
			Hidden: r.IsHidden(key),
		}
	}
	return cols
}

// ColumnByRole returns the first column with the given role.
func ColumnByRole(cols []Column, role Role) (Column, bool) {
	for _, c := range cols {
		if c.Role == role {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnByKey returns the column with the given normalized key.
func ColumnByKey(cols []Column, key string) (Column, bool) {
	for _, c := range cols {
		if c.Key != "" && c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}

// VisibleColumns returns the visible columns in grid order.
func VisibleColumns(cols []Column) []Column {
	out := make([]Column, 0, len(cols))
	for _, c := range cols {
		if c.Visible() {
			out = append(out, c)
		}
	}
	return out
}
