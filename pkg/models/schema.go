package models

// SchemaEntry describes one table known to the assistant.
// Entries are loaded once at startup and are read-only afterwards.
type SchemaEntry struct {
	TableName       string   `yaml:"table" json:"table_name"`
	HasTenantColumn bool     `yaml:"tenant_column" json:"has_tenant_column"`
	PrimaryKey      string   `yaml:"primary_key" json:"primary_key,omitempty"` // empty when the table has none
	Columns         []string `yaml:"columns" json:"columns"`
	Description     string   `yaml:"description" json:"description,omitempty"`
}

// TopicTableMap maps a topic name to the ordered tables exposed for it.
type TopicTableMap map[string][]string
