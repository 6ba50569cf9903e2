package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docs-analyzer/constants"
	"github.com/joseph-ayodele/docs-analyzer/internal/common"
	"github.com/joseph-ayodele/docs-analyzer/internal/llm"
	"github.com/joseph-ayodele/docs-analyzer/internal/prompts"
)

const testConfig = `{
  "metadata_to_extract": ["IdLotto", "DataConsegna"],
  "en": {
    "classification_prompts": {"prompt": "classify", "addendum": "cls add", "output": "cls out"},
    "metadata_prompts": {
      "SCD": {"prompt": "meta SCD"},
      "COA": {"prompt": "meta COA", "addendum": "coa add", "output": "coa out"},
      "DDT": {"prompt": "meta DDT", "addendum": "ddt add", "output": "ddt out"},
      "Other": {"prompt": "meta Other"},
      "SCD+COA": {"prompt": "meta SCD+COA"}
    },
    "tests_prompts": {"prompt": "extract tests", "addendum": "tests add", "output": "tests out"},
    "metadata_extraction_string": {"IdLotto": "the lot id", "DataConsegna": "the delivery date"},
    "metadata_normalization_prompts": {"prompt": "normalize"}
  },
  "it": {
    "classification_prompts": {"prompt": "classifica"},
    "metadata_prompts": {"DDT": {"prompt": "meta DDT it"}},
    "tests_prompts": {"prompt": "test it"},
    "metadata_extraction_string": {}
  }
}`

// fakeCompleter answers by call index and records every payload.
type fakeCompleter struct {
	mu       sync.Mutex
	replies  []string
	failAt   int // 1-based call number that fails; 0 never fails
	payloads []llm.ChatPayload
	// afterCall runs after call n has been recorded.
	afterCall func(n int)
}

func (f *fakeCompleter) Complete(_ context.Context, p llm.ChatPayload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	n := len(f.payloads)
	if f.afterCall != nil {
		f.afterCall(n)
	}
	if f.failAt == n {
		return "", common.ErrUpstream
	}
	if n <= len(f.replies) {
		return f.replies[n-1], nil
	}
	return "", nil
}

func testSettings() *common.Settings {
	return &common.Settings{
		APIKey: "k",
		APIURL: common.DefaultAPIURL,
		Models: map[string]string{
			common.DefaultModelLabel: "vision-id",
			common.TextModelLabel:    "text-id",
		},
		DefaultModel: common.DefaultModelLabel,
		MaxTokens:    1024,
		Temperature:  0.2,
	}
}

func newTestProcessor(t *testing.T, settings *common.Settings, fc *fakeCompleter) *Processor {
	t.Helper()
	store, err := prompts.Parse([]byte(testConfig), prompts.Options{})
	require.NoError(t, err)
	return NewProcessor(nil, settings, store, fc)
}

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg-bytes"), 0o644))
	return path
}

func texts(m llm.Message) string {
	var parts []string
	for _, c := range m.Content {
		if c.Type == llm.PartText {
			parts = append(parts, c.Text)
		} else {
			parts = append(parts, "<"+c.Type+">")
		}
	}
	return strings.Join(parts, "|")
}

func layout(p llm.ChatPayload) []string {
	out := make([]string, 0, len(p.Messages))
	for _, m := range p.Messages {
		out = append(out, m.Role+":"+texts(m))
	}
	return out
}

func TestRun_DDTMakesTwoCalls(t *testing.T) {
	fc := &fakeCompleter{replies: []string{"DDT", "IdLotto: L1"}}
	p := newTestProcessor(t, testSettings(), fc)

	res, err := p.Run(context.Background(), Request{Language: "en", DocumentPath: writeImage(t)})
	require.NoError(t, err)

	assert.Equal(t, "DDT", res.Classification)
	assert.Equal(t, "IdLotto: L1", res.Metadata)
	assert.Equal(t, constants.NoTestsToExtract, res.Tests)
	assert.Equal(t, StatusSkipped, res.Stages.Tests.Status)
	require.Len(t, fc.payloads, 2)
	assert.Equal(t, 2, res.Calls())

	assert.Equal(t, []string{"system:classify", "user:<image_url>", "user:cls add", "user:cls out"}, layout(fc.payloads[0]))
	assert.Equal(t, []string{"system:meta DDT", "user:<image_url>", "user:ddt add", "user:ddt out"}, layout(fc.payloads[1]))
	for _, pl := range fc.payloads {
		assert.Equal(t, "vision-id", pl.Model)
		assert.Equal(t, 1024, pl.MaxTokens)
		assert.Equal(t, "data:image/jpeg;base64,anBlZy1ieXRlcw==", pl.Messages[1].Content[0].ImageURL)
	}
}

func TestRun_TestBearingLabelsMakeThreeCalls(t *testing.T) {
	for _, label := range []string{"COA", "SCD+COA"} {
		t.Run(label, func(t *testing.T) {
			fc := &fakeCompleter{replies: []string{label, "meta", "pH: 7"}}
			p := newTestProcessor(t, testSettings(), fc)

			res, err := p.Run(context.Background(), Request{Language: "en", DocumentPath: writeImage(t)})
			require.NoError(t, err)

			require.Len(t, fc.payloads, 3)
			assert.Equal(t, "pH: 7", res.Tests)
			assert.Equal(t, StatusOK, res.Stages.Tests.Status)
			assert.Equal(t, []string{"system:extract tests", "user:<image_url>", "user:tests add", "user:tests out"}, layout(fc.payloads[2]))
			assert.Equal(t, "system:meta "+label, layout(fc.payloads[1])[0])
		})
	}
}

func TestRun_OtherLabelsSkipTests(t *testing.T) {
	for _, label := range []string{"SCD", "Other", "coa", "COA\n", "Invoice"} {
		fc := &fakeCompleter{replies: []string{label, "meta"}}
		p := newTestProcessor(t, testSettings(), fc)

		res, err := p.Run(context.Background(), Request{Language: "en", DocumentPath: writeImage(t)})
		require.NoError(t, err, label)
		assert.Len(t, fc.payloads, 2, label)
		assert.Equal(t, constants.NoTestsToExtract, res.Tests, label)
	}
}

func TestRun_WarnsOnUnexpectedLabel(t *testing.T) {
	for label, warn := range map[string]bool{"COA": false, "COA\n": true, " DDT": true, "Invoice": true} {
		var buf bytes.Buffer
		store, err := prompts.Parse([]byte(testConfig), prompts.Options{})
		require.NoError(t, err)
		fc := &fakeCompleter{replies: []string{label, "meta", "tests"}}
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		p := NewProcessor(logger, testSettings(), store, fc)

		_, err = p.Run(context.Background(), Request{Language: "en", DocumentPath: writeImage(t)})
		require.NoError(t, err)
		assert.Equal(t, warn, strings.Contains(buf.String(), "pipeline.classify.unexpected_label"), "%q", label)
	}
}

func TestRun_FieldLinesAppendedInOrder(t *testing.T) {
	fc := &fakeCompleter{replies: []string{"DDT", "x"}}
	p := newTestProcessor(t, testSettings(), fc)

	_, err := p.Run(context.Background(), Request{
		Language:       "en",
		DocumentPath:   writeImage(t),
		MetadataFields: []string{"DataConsegna", "IdLotto"},
	})
	require.NoError(t, err)

	require.Len(t, fc.payloads, 2)
	assert.Equal(t, "meta DDT\nDataConsegna: the delivery date\nIdLotto: the lot id", fc.payloads[1].Messages[0].Content[0].Text)
	assert.Equal(t, "classify", fc.payloads[0].Messages[0].Content[0].Text)
}

func TestRun_FieldLinesNeedExtractionStrings(t *testing.T) {
	fc := &fakeCompleter{replies: []string{"DDT", "x"}}
	p := newTestProcessor(t, testSettings(), fc)

	_, err := p.Run(context.Background(), Request{
		Language:       "it",
		DocumentPath:   writeImage(t),
		MetadataFields: []string{"IdLotto"},
	})
	require.NoError(t, err)
	assert.Equal(t, "meta DDT it", fc.payloads[1].Messages[0].Content[0].Text)
}

func TestRun_UnregisteredLabelUsesEmptyPrompt(t *testing.T) {
	fc := &fakeCompleter{replies: []string{"Invoice", "x"}}
	p := newTestProcessor(t, testSettings(), fc)

	_, err := p.Run(context.Background(), Request{Language: "en", DocumentPath: writeImage(t)})
	require.NoError(t, err)

	require.Len(t, fc.payloads, 2)
	assert.Equal(t, []string{"system:", "user:<image_url>", "user:", "user:"}, layout(fc.payloads[1]))
}

func TestRun_MissingImageShortCircuits(t *testing.T) {
	fc := &fakeCompleter{}
	p := newTestProcessor(t, testSettings(), fc)

	res, err := p.Run(context.Background(), Request{
		Language:     "en",
		DocumentPath: filepath.Join(t.TempDir(), "gone.png"),
	})
	require.NoError(t, err)

	assert.Empty(t, fc.payloads)
	assert.Equal(t, constants.ImageEncodingError, res.Classification)
	assert.Equal(t, constants.ImageEncodingError, res.Metadata)
	assert.Equal(t, constants.NoTestsToExtract, res.Tests)
	assert.Equal(t, StatusPlaceholder, res.Stages.Classify.Status)
	assert.Equal(t, StatusPlaceholder, res.Stages.Metadata.Status)
	assert.Equal(t, StatusSkipped, res.Stages.Tests.Status)
}

func TestRun_ImageGoneAfterClassify(t *testing.T) {
	cases := map[string]struct {
		tests       string
		testsStatus Status
	}{
		"COA": {constants.ImageEncodingError, StatusPlaceholder},
		"DDT": {constants.NoTestsToExtract, StatusSkipped},
	}
	for label, want := range cases {
		t.Run(label, func(t *testing.T) {
			img := writeImage(t)
			fc := &fakeCompleter{
				replies: []string{label},
				afterCall: func(n int) {
					if n == 1 {
						_ = os.Remove(img)
					}
				},
			}
			p := newTestProcessor(t, testSettings(), fc)

			res, err := p.Run(context.Background(), Request{Language: "en", DocumentPath: img})
			require.NoError(t, err)

			assert.Len(t, fc.payloads, 1)
			assert.Equal(t, label, res.Classification)
			assert.Equal(t, StatusOK, res.Stages.Classify.Status)
			assert.Equal(t, constants.ImageEncodingError, res.Metadata)
			assert.Equal(t, Outcome{Status: StatusPlaceholder}, res.Stages.Metadata)
			assert.Empty(t, res.Fields)
			assert.Equal(t, want.tests, res.Tests)
			assert.Equal(t, want.testsStatus, res.Stages.Tests.Status)
		})
	}
}

func TestRun_TransportFailureAborts(t *testing.T) {
	fc := &fakeCompleter{replies: []string{"COA"}, failAt: 2}
	p := newTestProcessor(t, testSettings(), fc)

	res, err := p.Run(context.Background(), Request{Language: "en", DocumentPath: writeImage(t)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUpstream))
	assert.Contains(t, err.Error(), StageMetadata)
	assert.Len(t, fc.payloads, 2)
	assert.Equal(t, Result{}, res)
}

func TestRun_InvalidInputBeforeAnyCall(t *testing.T) {
	fc := &fakeCompleter{}
	p := newTestProcessor(t, testSettings(), fc)
	img := writeImage(t)

	_, err := p.Run(context.Background(), Request{Language: "fr", DocumentPath: img})
	assert.True(t, errors.Is(err, common.ErrInvalidInput))

	_, err = p.Run(context.Background(), Request{Language: "en", DocumentPath: img, Model: "gpt-2"})
	assert.True(t, errors.Is(err, common.ErrInvalidInput))

	assert.Empty(t, fc.payloads)
}

func TestRun_ModelLabelSelectsID(t *testing.T) {
	fc := &fakeCompleter{replies: []string{"DDT", "x"}}
	p := newTestProcessor(t, testSettings(), fc)

	res, err := p.Run(context.Background(), Request{Language: "en", DocumentPath: writeImage(t), Model: common.TextModelLabel})
	require.NoError(t, err)
	assert.Equal(t, "text-id", res.Model)
	assert.Equal(t, "text-id", fc.payloads[0].Model)
}

func TestRun_ParsesJSONMetadata(t *testing.T) {
	fc := &fakeCompleter{replies: []string{"DDT", `{"IdLotto": "L1", "DataConsegna": null}`}}
	p := newTestProcessor(t, testSettings(), fc)

	res, err := p.Run(context.Background(), Request{Language: "en", DocumentPath: writeImage(t)})
	require.NoError(t, err)
	assert.Equal(t, []llm.Field{{Key: "IdLotto", Value: "L1"}, {Key: "DataConsegna", Value: ""}}, res.Fields)
}

func TestRun_NormalizationOnlyWhenEnabled(t *testing.T) {
	fc := &fakeCompleter{replies: []string{"DDT", "raw meta"}}
	p := newTestProcessor(t, testSettings(), fc)
	res, err := p.Run(context.Background(), Request{Language: "en", DocumentPath: writeImage(t)})
	require.NoError(t, err)
	assert.Len(t, fc.payloads, 2)
	assert.Empty(t, res.Normalized)
	assert.Equal(t, StatusSkipped, res.Stages.Normalize.Status)

	settings := testSettings()
	settings.Prompt.NormalizeMetadata = true
	fc = &fakeCompleter{replies: []string{"DDT", "raw meta", "clean meta"}}
	p = newTestProcessor(t, settings, fc)
	res, err = p.Run(context.Background(), Request{Language: "en", DocumentPath: writeImage(t)})
	require.NoError(t, err)

	require.Len(t, fc.payloads, 3)
	assert.Equal(t, "clean meta", res.Normalized)
	assert.Equal(t, "raw meta", res.Metadata)
	last := fc.payloads[2]
	assert.Equal(t, "text-id", last.Model)
	require.NotNil(t, last.Temperature)
	assert.Equal(t, float32(0.2), *last.Temperature)
	assert.Equal(t, []string{"system:normalize", "user:raw meta"}, layout(last))
}

func TestRun_NormalizationNeedsLanguagePrompt(t *testing.T) {
	settings := testSettings()
	settings.Prompt.NormalizeMetadata = true
	fc := &fakeCompleter{replies: []string{"DDT", "raw"}}
	p := newTestProcessor(t, settings, fc)

	res, err := p.Run(context.Background(), Request{Language: "it", DocumentPath: writeImage(t)})
	require.NoError(t, err)
	assert.Len(t, fc.payloads, 2)
	assert.Equal(t, StatusSkipped, res.Stages.Normalize.Status)
}
