package models

// ValidationRules configures the validation stage. Column names are matched
// case-insensitively against the cleaned (uppercase) schema.
type ValidationRules struct {
	RequiredColumns []string          `json:"required_columns,omitempty"`
	NotNullColumns  []string          `json:"not_null_columns,omitempty"`
	DataTypes       map[string]string `json:"data_types,omitempty"`
}

// Empty reports whether no rules are configured. The pipeline skips the
// validation stage entirely for an empty rule set.
func (r ValidationRules) Empty() bool {
	return len(r.RequiredColumns) == 0 && len(r.NotNullColumns) == 0 && len(r.DataTypes) == 0
}

// APIOptions tunes API-sourced extraction.
type APIOptions struct {
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
}

// Aggregation configures the on-demand aggregate operation.
type Aggregation struct {
	GroupBy      []string          `json:"group_by"`
	Aggregations map[string]string `json:"aggregations"`
}

// Load modes.
const (
	LoadModeAppend  = "append"
	LoadModeReplace = "replace"
)

// Job describes a single ETL run: where the data comes from, where it goes,
// and which transformation rules apply.
type Job struct {
	SourcePath  string          `json:"source_path"`
	SourceType  string          `json:"source_type"`
	TargetTable string          `json:"target_table"`
	LoadMode    string          `json:"load_mode,omitempty"`
	Validation  ValidationRules `json:"validation,omitempty"`
	API         APIOptions      `json:"api,omitempty"`
	Aggregation *Aggregation    `json:"aggregation,omitempty"`
}
