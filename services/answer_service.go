package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github/itish2003/caseqa/metrics"
	"github/itish2003/caseqa/models"
)

// AnswerService answers a question about one case document.
type AnswerService interface {
	Answer(ctx context.Context, req models.AnswerRequest) models.AnswerResult
}

// answerServiceImpl holds the dependencies it needs to do its job
type answerServiceImpl struct {
	locator        DocumentLocator
	generator      ContentGenerator
	model          string
	promptTemplate string
	logger         *zap.Logger
}

// NewAnswerService wires a locator and a generator into an AnswerService.
// The template is checked per request so a bad value surfaces as a tagged
// failure instead of stopping the process.
func NewAnswerService(locator DocumentLocator, generator ContentGenerator, model, promptTemplate string, log *zap.Logger) AnswerService {
	return &answerServiceImpl{
		locator:        locator,
		generator:      generator,
		model:          model,
		promptTemplate: promptTemplate,
		logger:         log,
	}
}

func (s *answerServiceImpl) Answer(ctx context.Context, req models.AnswerRequest) models.AnswerResult {
	start := time.Now()
	result := s.answer(ctx, req)

	outcome := result.Outcome()
	metrics.AnswersTotal.WithLabelValues(outcome).Inc()
	metrics.AnswerDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	if !result.Succeeded() {
		s.logger.Error("An error occurred during LLM interaction",
			zap.Int64("process_number", req.ProcessNumber),
			zap.String("failure", outcome),
			zap.Error(result.Err),
		)
	}
	return result
}

func (s *answerServiceImpl) answer(ctx context.Context, req models.AnswerRequest) models.AnswerResult {
	documentURI, err := s.locator.Locate(ctx, req.ProcessNumber)
	if err != nil {
		return failure(lookupFailureKind(err), err)
	}

	prompt, err := BuildPrompt(s.promptTemplate, req.Question)
	if err != nil {
		return failure(models.FailureInvalidTemplate, err)
	}

	resp, err := s.generator.GenerateContent(ctx, s.model, buildContents(prompt, documentURI), GenerationConfig())
	if err != nil {
		return failure(models.FailureModel, fmt.Errorf("generate answer: %w", err))
	}
	if resp == nil {
		return failure(models.FailureEmptyAnswer, ErrEmptyModelResponse)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return failure(models.FailureEmptyAnswer, ErrEmptyModelResponse)
	}
	return models.AnswerResult{Text: text}
}

func lookupFailureKind(err error) models.FailureKind {
	switch {
	case errors.Is(err, ErrDocumentNotFound):
		return models.FailureLookupNotFound
	case errors.Is(err, ErrAmbiguousDocument):
		return models.FailureLookupAmbiguous
	default:
		return models.FailureBackend
	}
}

func failure(kind models.FailureKind, err error) models.AnswerResult {
	return models.AnswerResult{Failure: kind, Err: err}
}
