package constants

// Classification is a document-type label emitted by the classification stage.
type Classification string

const (
	SCD    Classification = "SCD"     // specification control document
	COA    Classification = "COA"     // certificate of analysis
	DDT    Classification = "DDT"     // transport document
	Other  Classification = "Other"   // anything else
	SCDCOA Classification = "SCD+COA" // composite document carrying both
)

var allClassifications = []Classification{
	SCD,
	COA,
	DDT,
	Other,
	SCDCOA,
}

// Classifications returns the labels the classification prompt is expected to produce.
func Classifications() []Classification {
	out := make([]Classification, len(allClassifications))
	copy(out, allClassifications)
	return out
}

func AsStringSlice() []string {
	result := make([]string, len(allClassifications))
	for i, c := range allClassifications {
		result[i] = string(c)
	}
	return result
}

// BearsTests reports whether a document with this label carries test results.
// The match is exact: the model output is not trimmed or case-folded here.
func BearsTests(label string) bool {
	switch Classification(label) {
	case COA, SCDCOA:
		return true
	}
	return false
}

// IsKnown reports whether label is exactly one of the classification labels.
// Like BearsTests, it does not trim or case-fold.
func IsKnown(label string) bool {
	for _, c := range allClassifications {
		if string(c) == label {
			return true
		}
	}
	return false
}
