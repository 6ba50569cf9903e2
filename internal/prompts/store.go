// Package prompts loads the per-language prompt configuration that drives the
// classification, metadata and tests stages.
package prompts

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/docs-analyzer/constants"
	"github.com/joseph-ayodele/docs-analyzer/internal/common"
)

// Options controls how a configuration file is loaded.
type Options struct {
	// Strict turns coverage gaps (missing label prompts, missing field
	// instructions) into load errors instead of warnings.
	Strict bool
	Logger *slog.Logger
}

// Store is the read-only prompt configuration. It is safe for concurrent use.
type Store struct {
	metadataToExtract []string
	languages         map[string]*LanguageConfig
}

// LanguageConfig holds the prompts for one document language.
type LanguageConfig struct {
	code                 string
	classification       TaskPrompt
	metadata             map[string]TaskPrompt
	tests                TaskPrompt
	extractionStrings    map[string]string
	normalization        TaskPrompt
	hasNormalizationStep bool
}

// Load reads the configuration file at path. Files ending in .yaml or .yml are
// decoded as YAML, everything else as JSON.
func Load(path string, opts Options) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.ConfigError(fmt.Sprintf("Configuration file not found at '%s'", path), err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, common.ConfigError(fmt.Sprintf("decode yaml %s", path), err)
		}
	}
	return Parse(data, opts)
}

// Parse builds a Store from a JSON document.
func Parse(data []byte, opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := validateDocument(data); err != nil {
		return nil, common.ConfigError("invalid prompt configuration", err)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, common.ConfigError("decode prompt configuration", err)
	}

	s := &Store{languages: make(map[string]*LanguageConfig, len(top))}
	for key, raw := range top {
		if key == MetadataToExtractKey {
			if err := json.Unmarshal(raw, &s.metadataToExtract); err != nil {
				return nil, common.ConfigError("decode "+MetadataToExtractKey, err)
			}
			continue
		}
		var doc languageDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, common.ConfigError(fmt.Sprintf("decode language %q", key), err)
		}
		lc := &LanguageConfig{
			code:              key,
			classification:    doc.ClassificationPrompts,
			metadata:          doc.MetadataPrompts,
			tests:             doc.TestsPrompts,
			extractionStrings: doc.ExtractionStrings,
		}
		if doc.NormalizationPrompts != nil {
			lc.normalization = *doc.NormalizationPrompts
			lc.hasNormalizationStep = true
		}
		if lc.metadata == nil {
			lc.metadata = map[string]TaskPrompt{}
		}
		if lc.extractionStrings == nil {
			lc.extractionStrings = map[string]string{}
		}
		s.languages[key] = lc
	}
	if len(s.languages) == 0 {
		return nil, common.ConfigError("prompt configuration declares no language", nil)
	}

	if gaps := s.Check(); len(gaps) > 0 {
		if opts.Strict {
			return nil, common.ConfigError("prompt configuration incomplete: "+strings.Join(gaps, "; "), nil)
		}
		for _, g := range gaps {
			logger.Warn("prompts.config.gap", "detail", g)
		}
	}
	logger.Info("prompts.config.loaded",
		"languages", s.Languages(),
		"metadata_fields", len(s.metadataToExtract),
	)
	return s, nil
}

// Check lists coverage gaps: classification labels without a metadata prompt
// and selectable fields without an extraction instruction, per language.
func (s *Store) Check() []string {
	var gaps []string
	for _, code := range s.Languages() {
		lc := s.languages[code]
		for _, label := range constants.AsStringSlice() {
			if _, ok := lc.metadata[label]; !ok {
				gaps = append(gaps, fmt.Sprintf("%s: no metadata_prompts entry for %q", code, label))
			}
		}
		for _, field := range s.metadataToExtract {
			if _, ok := lc.extractionStrings[field]; !ok {
				gaps = append(gaps, fmt.Sprintf("%s: no metadata_extraction_string for %q", code, field))
			}
		}
	}
	return gaps
}

// Languages returns the configured language codes, sorted.
func (s *Store) Languages() []string {
	codes := make([]string, 0, len(s.languages))
	for k := range s.languages {
		codes = append(codes, k)
	}
	slices.Sort(codes)
	return codes
}

// MetadataToExtract returns the selectable metadata field names in file order.
func (s *Store) MetadataToExtract() []string {
	return slices.Clone(s.metadataToExtract)
}

// Language returns the prompts for code, or an invalid-input error.
func (s *Store) Language(code string) (*LanguageConfig, error) {
	lc, ok := s.languages[code]
	if !ok {
		return nil, common.InvalidInputErrorf("unsupported language %q (available: %s)", code, strings.Join(s.Languages(), ", "))
	}
	return lc, nil
}

func (l *LanguageConfig) Code() string { return l.code }

func (l *LanguageConfig) Classification() TaskPrompt { return l.classification }

func (l *LanguageConfig) Tests() TaskPrompt { return l.tests }

// Metadata returns the metadata prompt registered for a classification label.
// Unregistered labels yield an all-empty TaskPrompt and false.
func (l *LanguageConfig) Metadata(label string) (TaskPrompt, bool) {
	p, ok := l.metadata[label]
	if !ok {
		return TaskPrompt{}, false
	}
	return p, true
}

// Normalization returns the optional text-only metadata rewrite prompt.
func (l *LanguageConfig) Normalization() (TaskPrompt, bool) {
	return l.normalization, l.hasNormalizationStep
}

// HasExtractionStrings reports whether any field instruction is configured.
func (l *LanguageConfig) HasExtractionStrings() bool {
	return len(l.extractionStrings) > 0
}

// ExtractionLines renders one "<field>: <instruction>" line per requested
// field, in request order. Unconfigured fields get an empty instruction.
func (l *LanguageConfig) ExtractionLines(fields []string) []string {
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, f+": "+l.extractionStrings[f])
	}
	return lines
}

func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}
