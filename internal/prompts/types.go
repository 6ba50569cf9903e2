package prompts

// TaskPrompt is the prompt/addendum/output triple driving one API call.
// Absent fragments decode as empty strings.
type TaskPrompt struct {
	Prompt   string `json:"prompt"`
	Addendum string `json:"addendum"`
	Output   string `json:"output"`
}

// IsEmpty reports whether all three fragments are empty.
func (p TaskPrompt) IsEmpty() bool {
	return p.Prompt == "" && p.Addendum == "" && p.Output == ""
}

// languageDoc is the on-disk shape of one language section.
type languageDoc struct {
	ClassificationPrompts TaskPrompt            `json:"classification_prompts"`
	MetadataPrompts       map[string]TaskPrompt `json:"metadata_prompts"`
	TestsPrompts          TaskPrompt            `json:"tests_prompts"`
	ExtractionStrings     map[string]string     `json:"metadata_extraction_string"`
	NormalizationPrompts  *TaskPrompt           `json:"metadata_normalization_prompts,omitempty"`
}

// MetadataToExtractKey is the only top-level key that is not a language code.
const MetadataToExtractKey = "metadata_to_extract"
