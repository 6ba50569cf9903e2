package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docs-analyzer/constants"
	"github.com/joseph-ayodele/docs-analyzer/internal/common"
	"github.com/joseph-ayodele/docs-analyzer/internal/llm"
	"github.com/joseph-ayodele/docs-analyzer/internal/metrics"
	"github.com/joseph-ayodele/docs-analyzer/internal/prompts"
)

// Processor runs classify, then metadata, then tests against one document
// image. It holds no per-request state and is safe for concurrent use.
type Processor struct {
	logger    *slog.Logger
	settings  *common.Settings
	store     *prompts.Store
	completer llm.Completer
}

func NewProcessor(logger *slog.Logger, settings *common.Settings, store *prompts.Store, completer llm.Completer) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger, settings: settings, store: store, completer: completer}
}

// Run analyzes req.DocumentPath. An unknown language or model label fails
// before any request is sent. A request failure aborts the remaining stages
// and no partial result is returned.
func (p *Processor) Run(ctx context.Context, req Request) (Result, error) {
	lc, err := p.store.Language(req.Language)
	if err != nil {
		return Result{}, err
	}
	model, err := p.settings.ModelID(req.Model)
	if err != nil {
		return Result{}, err
	}

	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
		ctx = common.WithRequestID(ctx, rid)
	}
	start := time.Now()
	log := p.logger.With("req_id", rid)
	log.Info("pipeline.run.start",
		"language", lc.Code(),
		"model", model,
		"document", req.DocumentPath,
		"fields", len(req.MetadataFields),
	)

	res := Result{Language: lc.Code(), Model: model}

	// 1) classify
	cls := lc.Classification()
	res.Classification, res.Stages.Classify, err = p.imageStage(ctx, log, StageClassify, model, req.DocumentPath, cls.Prompt, cls)
	if err != nil {
		return Result{}, err
	}
	label := res.Classification
	if res.Stages.Classify.Status == StatusOK && !constants.IsKnown(label) {
		log.Warn("pipeline.classify.unexpected_label", "label", label)
	}

	if res.Stages.Classify.Status == StatusPlaceholder {
		// Nothing to classify means nothing to extract.
		res.Metadata = constants.ImageEncodingError
		res.Stages.Metadata = Outcome{Status: StatusPlaceholder}
		res.Tests = constants.NoTestsToExtract
		res.Stages.Tests = Outcome{Status: StatusSkipped}
		res.Stages.Normalize = Outcome{Status: StatusSkipped}
		metrics.StageTotal.WithLabelValues(StageMetadata, string(StatusPlaceholder)).Inc()
		metrics.StageTotal.WithLabelValues(StageTests, string(StatusSkipped)).Inc()
		log.Warn("pipeline.run.short_circuit", "reason", "classification placeholder",
			"elapsed_ms", time.Since(start).Milliseconds())
		return res, nil
	}

	// 2) metadata for the returned label
	meta, registered := lc.Metadata(label)
	if !registered {
		log.Warn("pipeline.metadata.unregistered_label", "label", label)
	}
	prompt := meta.Prompt
	if len(req.MetadataFields) > 0 && lc.HasExtractionStrings() {
		prompt += "\n" + strings.Join(lc.ExtractionLines(req.MetadataFields), "\n")
	}
	res.Metadata, res.Stages.Metadata, err = p.imageStage(ctx, log, StageMetadata, model, req.DocumentPath, prompt, meta)
	if err != nil {
		return Result{}, err
	}
	if res.Stages.Metadata.Status == StatusOK {
		if fields, perr := llm.ParseMetadataFields(res.Metadata); perr == nil {
			res.Fields = fields
		} else {
			log.Debug("pipeline.metadata.not_json", "error", perr)
		}
	}

	// 3) tests, only for documents that carry them
	if constants.BearsTests(label) {
		tp := lc.Tests()
		res.Tests, res.Stages.Tests, err = p.imageStage(ctx, log, StageTests, model, req.DocumentPath, tp.Prompt, tp)
		if err != nil {
			return Result{}, err
		}
	} else {
		res.Tests = constants.NoTestsToExtract
		res.Stages.Tests = Outcome{Status: StatusSkipped}
		metrics.StageTotal.WithLabelValues(StageTests, string(StatusSkipped)).Inc()
	}

	// 4) optional text-only rewrite of the metadata
	res.Normalized, res.Stages.Normalize, err = p.normalize(ctx, log, lc, res)
	if err != nil {
		return Result{}, err
	}

	log.Info("pipeline.run.ok",
		"classification", label,
		"calls", res.Calls(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// imageStage encodes the document and sends the system prompt, the image,
// then the addendum and output fragments of tp.
func (p *Processor) imageStage(ctx context.Context, log *slog.Logger, stage, model, path, prompt string, tp prompts.TaskPrompt) (string, Outcome, error) {
	start := time.Now()
	img, ok := llm.EncodeImage(path, log)
	if !ok {
		metrics.StageTotal.WithLabelValues(stage, string(StatusPlaceholder)).Inc()
		log.Warn("pipeline."+stage+".placeholder", "reason", "image encoding failed")
		return constants.ImageEncodingError, Outcome{Status: StatusPlaceholder}, nil
	}

	payload := llm.BuildChatPayload(model, p.settings.MaxTokens, prompt, &img, tp.Addendum, tp.Output)
	text, err := p.completer.Complete(ctx, payload)
	if err != nil {
		metrics.StageTotal.WithLabelValues(stage, "error").Inc()
		log.Error("pipeline."+stage+".failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", Outcome{}, fmt.Errorf("%s stage: %w", stage, err)
	}

	metrics.StageTotal.WithLabelValues(stage, string(StatusOK)).Inc()
	log.Info("pipeline."+stage+".ok", "response_len", len(text), "elapsed_ms", time.Since(start).Milliseconds())
	return text, Outcome{Status: StatusOK, Calls: 1}, nil
}

func (p *Processor) normalize(ctx context.Context, log *slog.Logger, lc *prompts.LanguageConfig, res Result) (string, Outcome, error) {
	np, ok := lc.Normalization()
	if !p.settings.Prompt.NormalizeMetadata || !ok || res.Stages.Metadata.Status != StatusOK {
		return "", Outcome{Status: StatusSkipped}, nil
	}

	model := p.settings.Models[common.TextModelLabel]
	if model == "" {
		model = res.Model
	}
	start := time.Now()
	payload := llm.BuildTextPayload(model, p.settings.MaxTokens, p.settings.Temperature, np.Prompt, res.Metadata)
	text, err := p.completer.Complete(ctx, payload)
	if err != nil {
		metrics.StageTotal.WithLabelValues(StageNormalize, "error").Inc()
		log.Error("pipeline.normalize.failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", Outcome{}, fmt.Errorf("%s stage: %w", StageNormalize, err)
	}
	metrics.StageTotal.WithLabelValues(StageNormalize, string(StatusOK)).Inc()
	log.Info("pipeline.normalize.ok", "model", model, "elapsed_ms", time.Since(start).Milliseconds())
	return text, Outcome{Status: StatusOK, Calls: 1}, nil
}
