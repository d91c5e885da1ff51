package grader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	gradeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gradeflow",
		Subsystem: "grader",
		Name:      "ai_grade_duration_seconds",
		Help:      "Duration of AI grading requests",
	}, []string{"model"})

	gradeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gradeflow",
		Subsystem: "grader",
		Name:      "ai_grade_failures_total",
		Help:      "Number of AI grading failures",
	}, []string{"model", "kind"})
)

// gradeResponseSchema constrains the model output to the strict JSON shape the
// prompt demands. Anything else is an upstream failure, never a guessed score.
var gradeResponseSchema = jsonschema.MustCompileString("grade_response.json", `{
	"type": "object",
	"required": ["marks", "feedback"],
	"properties": {
		"marks": {"type": "number"},
		"feedback": {"type": "string"}
	}
}`)

// OpenAIConfig defines configuration options for the OpenAI grader.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIGrader implements Grader against the OpenAI chat completion API.
type OpenAIGrader struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIGrader builds a grader using the provided configuration.
func NewOpenAIGrader(cfg OpenAIConfig) (*OpenAIGrader, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}

	if cfg.Temperature == 0 {
		cfg.Temperature = 0.2
	}

	tracer := otel.Tracer("github.com/gradeflow/gradeflow-api/pkg/grader/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	client := openai.NewClientWithConfig(config)

	return &OpenAIGrader{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Grade sends a single low-temperature chat completion request and parses the
// strict-JSON response. Failures are classified by kind and never retried here;
// a re-run overwrites the grade, so retrying is a caller decision.
func (g *OpenAIGrader) Grade(parent context.Context, input Input) (Result, error) {
	ctx, span := g.tracer.Start(parent, "openai.grade", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
	))
	defer span.End()

	request := openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: gradingSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildGradingPrompt(input),
			},
		},
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, request)
	gradeDuration.WithLabelValues(g.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		kind := classifyUpstreamError(err)
		gradeFailures.WithLabelValues(g.cfg.Model, kindLabel(kind)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.logger.Error().Err(err).Str("model", g.cfg.Model).Msg("ai grading request failed")
		return Result{}, fmt.Errorf("%w: %v", kind, err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("%w: no choices returned", ErrUpstream)
		gradeFailures.WithLabelValues(g.cfg.Model, "upstream").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	result, err := parseGradeResponse(content)
	if err != nil {
		gradeFailures.WithLabelValues(g.cfg.Model, "parse").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	span.SetAttributes(attribute.Float64("grade.marks", result.Marks))

	return result, nil
}

func gradingSystemPrompt() string {
	return "You are an experienced teacher grading a student submission. Respond with valid JSON only: " +
		`an object of the form {"marks": number, "feedback": string}. No prose, no Markdown.`
}

func buildGradingPrompt(input Input) string {
	builder := strings.Builder{}
	builder.WriteString("Grade the following student submission.\n\n## Assignment\n")
	builder.WriteString(input.AssignmentTitle)
	builder.WriteString("\n\n## Subject\n")
	builder.WriteString(input.Subject)
	if input.Description != "" {
		builder.WriteString("\n\n## Description\n")
		builder.WriteString(input.Description)
	}
	if input.PromptText != "" {
		builder.WriteString("\n\n## Assignment Prompt\n")
		builder.WriteString(input.PromptText)
	}
	fmt.Fprintf(&builder, "\n\n## Total Marks\n%d", input.TotalMarks)
	builder.WriteString("\n\n## Student Answer\n")
	builder.WriteString(input.Content)
	fmt.Fprintf(&builder, "\n\nAward marks between 0 and %d and write short, constructive feedback. ", input.TotalMarks)
	builder.WriteString(`Return strict JSON: {"marks": number, "feedback": string}.`)
	return builder.String()
}

// parseGradeResponse strips Markdown code fences the model sometimes wraps
// around its output, then requires the payload to match the grading schema.
func parseGradeResponse(content string) (Result, error) {
	content = stripCodeFences(content)

	var raw interface{}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return Result{}, fmt.Errorf("%w: failed to parse AI grading response", ErrUpstream)
	}

	if err := gradeResponseSchema.Validate(raw); err != nil {
		return Result{}, fmt.Errorf("%w: failed to parse AI grading response", ErrUpstream)
	}

	var payload struct {
		Marks    float64 `json:"marks"`
		Feedback string  `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return Result{}, fmt.Errorf("%w: failed to parse AI grading response", ErrUpstream)
	}

	return Result{Marks: payload.Marks, Feedback: payload.Feedback}, nil
}

func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func classifyUpstreamError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return ErrUpstreamAuth
		case http.StatusTooManyRequests:
			return ErrUpstreamRateLimited
		}
	}
	return ErrUpstream
}

func kindLabel(kind error) string {
	switch kind {
	case ErrUpstreamAuth:
		return "auth"
	case ErrUpstreamRateLimited:
		return "rate_limited"
	default:
		return "upstream"
	}
}
