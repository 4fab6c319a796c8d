// Package schema holds the static catalog of tables the assistant knows about.
// It renders schema text for prompts and answers table-access questions.
package schema

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/jinzhu/inflection"
	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/ekaya-assist/pkg/models"
)

// DefaultTopic is used when a requested topic is not in the catalog.
const DefaultTopic = "GENERAL"

// SystemSchemas are catalog schemas and system databases of the supported
// engines. A table qualified by any of them is never accessible.
var SystemSchemas = map[string]bool{
	"information_schema": true,
	"pg_catalog":         true,
	"pg_toast":           true,
	"sys":                true,
	"master":             true,
	"msdb":               true,
	"tempdb":             true,
}

//go:embed catalog.yaml
var defaultCatalog []byte

// catalogFile is the on-disk (YAML) shape of a catalog.
type catalogFile struct {
	Tables             []models.SchemaEntry `yaml:"tables"`
	Topics             models.TopicTableMap `yaml:"topics"`
	RestrictedTables   []string             `yaml:"restricted_tables"`
	RestrictedPrefixes []string             `yaml:"restricted_prefixes"`
}

// KnowledgeBase is immutable after construction and safe for concurrent reads.
type KnowledgeBase struct {
	entries    map[string]models.SchemaEntry
	order      []string
	topics     models.TopicTableMap
	restricted map[string]bool
	prefixes   []string
	summary    string
}

// NewDefault builds a KnowledgeBase from the embedded catalog.
func NewDefault() (*KnowledgeBase, error) {
	return Parse(defaultCatalog)
}

// MustDefault is NewDefault for package-level wiring; it panics on a broken embedded catalog.
func MustDefault() *KnowledgeBase {
	kb, err := NewDefault()
	if err != nil {
		panic(err)
	}
	return kb
}

// Parse builds a KnowledgeBase from YAML catalog bytes.
func Parse(data []byte) (*KnowledgeBase, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse schema catalog: %w", err)
	}
	return New(file.Tables, file.Topics, file.RestrictedTables, file.RestrictedPrefixes)
}

// New builds a KnowledgeBase from already-parsed parts.
func New(entries []models.SchemaEntry, topics models.TopicTableMap, restricted, prefixes []string) (*KnowledgeBase, error) {
	kb := &KnowledgeBase{
		entries:    make(map[string]models.SchemaEntry, len(entries)),
		topics:     make(models.TopicTableMap, len(topics)),
		restricted: make(map[string]bool, len(restricted)),
	}

	for _, e := range entries {
		name := normalizeTableName(e.TableName)
		if name == "" {
			return nil, fmt.Errorf("schema catalog: table with empty name")
		}
		if _, dup := kb.entries[name]; dup {
			return nil, fmt.Errorf("schema catalog: duplicate table %q", name)
		}
		e.TableName = name
		kb.entries[name] = e
		kb.order = append(kb.order, name)
	}

	for topic, tables := range topics {
		key := strings.ToUpper(strings.TrimSpace(topic))
		for _, t := range tables {
			if _, ok := kb.entries[normalizeTableName(t)]; !ok {
				return nil, fmt.Errorf("schema catalog: topic %s references unknown table %q", key, t)
			}
		}
		kb.topics[key] = append([]string(nil), tables...)
	}
	if _, ok := kb.topics[DefaultTopic]; !ok {
		kb.topics[DefaultTopic] = append([]string(nil), kb.order...)
	}

	for _, t := range restricted {
		kb.restricted[normalizeTableName(t)] = true
	}
	for _, p := range prefixes {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			kb.prefixes = append(kb.prefixes, p)
		}
	}

	for _, name := range kb.order {
		if !kb.IsAccessible(name) {
			return nil, fmt.Errorf("schema catalog: table %q is both described and restricted", name)
		}
	}

	kb.summary = kb.renderTables(kb.order)
	return kb, nil
}

// SchemaSummary returns the signature of every catalog table, for prompt context.
func (kb *KnowledgeBase) SchemaSummary() string {
	return kb.summary
}

// SchemaForTopic returns instructions plus only the tables listed for topic.
// Unknown topics fall back to DefaultTopic.
func (kb *KnowledgeBase) SchemaForTopic(topic string) string {
	key := kb.resolveTopic(topic)
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", key)
	b.WriteString("Use only the tables below. Always filter tenant-scoped tables by tenant_id.\n")
	b.WriteString(kb.renderTables(kb.topics[key]))
	return b.String()
}

// Topics returns the known topic names in sorted order.
func (kb *KnowledgeBase) Topics() []string {
	names := make([]string, 0, len(kb.topics))
	for name := range kb.topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsAccessible returns false for administrative tables (the fixed denylist or
// an internal prefix) and for any name qualified by a system schema or
// database, such as information_schema.tables or master.dbo.syslogins.
func (kb *KnowledgeBase) IsAccessible(tableName string) bool {
	qualifiers, name := splitTableName(tableName)
	if name == "" || kb.restricted[name] || kb.hasRestrictedPrefix(name) {
		return false
	}
	for _, q := range qualifiers {
		if q == "" || SystemSchemas[q] || kb.hasRestrictedPrefix(q) {
			return false
		}
	}
	return true
}

func (kb *KnowledgeBase) hasRestrictedPrefix(name string) bool {
	for _, p := range kb.prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// IsTenantIsolated reports whether the table carries a tenant column.
// Unknown tables report false.
func (kb *KnowledgeBase) IsTenantIsolated(tableName string) bool {
	e, ok := kb.entries[normalizeTableName(tableName)]
	return ok && e.HasTenantColumn
}

// Entry looks up a table by name.
func (kb *KnowledgeBase) Entry(tableName string) (models.SchemaEntry, bool) {
	e, ok := kb.entries[normalizeTableName(tableName)]
	return e, ok
}

// resolveTopic maps a requested topic onto a catalog key, accepting singular
// spellings ("project" -> PROJECTS).
func (kb *KnowledgeBase) resolveTopic(topic string) string {
	key := strings.ToUpper(strings.TrimSpace(topic))
	if _, ok := kb.topics[key]; ok {
		return key
	}
	plural := strings.ToUpper(inflection.Plural(strings.ToLower(key)))
	if _, ok := kb.topics[plural]; ok && key != "" {
		return plural
	}
	return DefaultTopic
}

func (kb *KnowledgeBase) renderTables(names []string) string {
	var b strings.Builder
	for _, name := range names {
		e, ok := kb.entries[normalizeTableName(name)]
		if !ok {
			continue
		}
		cols := make([]string, 0, len(e.Columns))
		for _, c := range e.Columns {
			if c == e.PrimaryKey {
				c += " PK"
			}
			cols = append(cols, c)
		}
		fmt.Fprintf(&b, "- %s(%s) -- one row per %s", e.TableName, strings.Join(cols, ", "), inflection.Singular(e.TableName))
		if e.HasTenantColumn {
			b.WriteString(", tenant-scoped")
		}
		if e.Description != "" {
			b.WriteString(": " + e.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// normalizeTableName lower-cases and strips quoting and schema qualifiers.
func normalizeTableName(name string) string {
	_, table := splitTableName(name)
	return table
}

// splitTableName returns the lower-cased, unquoted qualifiers (database,
// schema) and bare table name of a possibly qualified reference.
func splitTableName(name string) ([]string, string) {
	parts := strings.Split(strings.TrimSpace(name), ".")
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.Trim(strings.TrimSpace(p), "`\"[]"))
	}
	return parts[:len(parts)-1], parts[len(parts)-1]
}
