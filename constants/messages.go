package constants

// In-band stage outputs shown to the operator in place of a model response.
const (
	NoTestsToExtract   = "No tests to extract"
	ImageEncodingError = "Error: Image encoding failed"
)
