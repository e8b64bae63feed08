package suggest

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed suggestions.yaml
var defaultTable []byte

// defaultKeyword is reserved and never matched against a question.
const defaultKeyword = "default"

// Topic pairs a keyword with the follow-up questions offered when it appears.
type Topic struct {
	Keyword     string   `yaml:"keyword"`
	Suggestions []string `yaml:"suggestions"`
}

// Table is an ordered keyword table. Order decides which topic wins when several match.
type Table struct {
	Topics          []Topic  `yaml:"topics"`
	Default         []string `yaml:"default"`
	QuickCategories []string `yaml:"quickCategories"`
}

// Engine answers follow-up lookups. It holds no mutable state.
type Engine struct {
	table Table
}

// ------------------------------------------------------------------------------------------------------
func NewEngine(table Table) *Engine {
	topics := make([]Topic, 0, len(table.Topics))
	for _, topic := range table.Topics {
		keyword := strings.ToLower(strings.TrimSpace(topic.Keyword))
		if keyword == "" || keyword == defaultKeyword {
			continue
		}
		topics = append(topics, Topic{Keyword: keyword, Suggestions: topic.Suggestions})
	}
	table.Topics = topics
	return &Engine{table: table}
}

// ------------------------------------------------------------------------------------------------------
// Load reads a table from YAML.
func Load(r io.Reader) (Table, error) {
	var table Table
	if err := yaml.NewDecoder(r).Decode(&table); err != nil {
		return Table{}, fmt.Errorf("decode suggestion table: %w", err)
	}
	if len(table.Default) == 0 {
		return Table{}, fmt.Errorf("suggestion table has no default list")
	}
	return table, nil
}

// ------------------------------------------------------------------------------------------------------
// Default returns the engine built from the embedded table.
func Default() *Engine {
	table, err := Load(strings.NewReader(string(defaultTable)))
	if err != nil {
		panic(fmt.Errorf("embedded suggestion table: %w", err))
	}
	return NewEngine(table)
}

// ------------------------------------------------------------------------------------------------------
// For returns the follow-up questions for the last user question.
func (e *Engine) For(lastQuery string) []string {
	lower := strings.ToLower(lastQuery)

	for _, topic := range e.table.Topics {
		if strings.Contains(lower, topic.Keyword) {
			return clone(topic.Suggestions)
		}
	}

	return clone(e.table.Default)
}

// ------------------------------------------------------------------------------------------------------
// QuickCategories returns the starter questions shown before a conversation begins.
func (e *Engine) QuickCategories() []string {
	return clone(e.table.QuickCategories)
}

func clone(items []string) []string {
	out := make([]string, len(items))
	copy(out, items)
	return out
}
