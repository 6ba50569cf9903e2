package pipeline

import "github.com/joseph-ayodele/docs-analyzer/internal/llm"

// Stage names, used in logs and metrics.
const (
	StageClassify  = "classify"
	StageMetadata  = "metadata"
	StageTests     = "tests"
	StageNormalize = "normalize"
)

// Status of one stage.
type Status string

const (
	// StatusOK means the stage output is the model's response.
	StatusOK Status = "ok"
	// StatusPlaceholder means the stage could not call the model and its
	// output is an in-band literal.
	StatusPlaceholder Status = "placeholder"
	// StatusSkipped means the stage did not apply to this document.
	StatusSkipped Status = "skipped"
)

// Request is one analysis of a single document image.
type Request struct {
	Language       string   // configured language code
	DocumentPath   string   // local path of the image
	MetadataFields []string // selected field names, in selection order
	Model          string   // model label; empty selects the default
}

// Outcome records how a stage produced its output.
type Outcome struct {
	Status Status `json:"status"`
	Calls  int    `json:"calls"`
}

// Stages holds the per-stage outcomes of a run.
type Stages struct {
	Classify  Outcome `json:"classify"`
	Metadata  Outcome `json:"metadata"`
	Tests     Outcome `json:"tests"`
	Normalize Outcome `json:"normalize"`
}

// Result is the output of a run. Classification, Metadata and Tests are
// always set, either from the model or from an in-band placeholder.
type Result struct {
	Language       string      `json:"language"`
	Model          string      `json:"model"`
	Classification string      `json:"classification"`
	Metadata       string      `json:"metadata"`
	Tests          string      `json:"tests"`
	Fields         []llm.Field `json:"fields,omitempty"`
	Normalized     string      `json:"normalized,omitempty"`
	Stages         Stages      `json:"stages"`
}

// Calls is the number of model requests the run made.
func (r Result) Calls() int {
	return r.Stages.Classify.Calls + r.Stages.Metadata.Calls + r.Stages.Tests.Calls + r.Stages.Normalize.Calls
}
