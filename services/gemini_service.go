package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultGeminiModel = "gemini-2.0-flash"

// Estimation client policy. The retry loop lives here, next to the
// classification of retryable errors, so the orchestrator only ever sees
// "succeeded" or "exhausted".
const (
	estimateTimeout   = 30 * time.Second
	estimateAttempts  = 3
	estimateBackoff   = 500 * time.Millisecond
	estimateBackoffUp = 2
	estimateBackoffMax = 5 * time.Second
)

// APIError classifies a failed call to the model API.
type APIError struct {
	Kind       APIErrorKind
	Status     int
	RetryAfter time.Duration
	Detail     string
}

type APIErrorKind string

const (
	APIErrUnauthorized APIErrorKind = "unauthorized"
	APIErrRateLimited  APIErrorKind = "rate-limited"
	APIErrClient       APIErrorKind = "client-error"
	APIErrServer       APIErrorKind = "server-error"
	APIErrTimeout      APIErrorKind = "timeout"
	APIErrParse        APIErrorKind = "parse-error"
)

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("gemini api %s (status %d): %s", e.Kind, e.Status, e.Detail)
	}
	return fmt.Sprintf("gemini api %s: %s", e.Kind, e.Detail)
}

// Retryable reports whether another attempt could help.
func (e *APIError) Retryable() bool {
	switch e.Kind {
	case APIErrRateLimited, APIErrServer, APIErrTimeout:
		return true
	}
	return false
}

// NutritionEstimate is the model's answer for one prompt. Refusal is set
// when the model judged the prompt too vague to estimate; the numeric fields
// are meaningless in that case.
type NutritionEstimate struct {
	Calories    int
	Protein     float64
	Carbs       float64
	Fats        float64
	Assumptions string
	Refusal     string
}

// NutritionEstimator is what the estimation orchestrator depends on.
type NutritionEstimator interface {
	EstimateNutrition(ctx context.Context, prompt string) (*NutritionEstimate, error)
	ModelName() string
}

// GeminiService estimates nutrition from a free-text meal description via
// the Gemini generateContent endpoint.
type GeminiService struct {
	apiKey      string
	model       string
	baseURL     string
	client      *http.Client
	maxAttempts int
	backoff     time.Duration
	backoffMax  time.Duration
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func NewGeminiService() *GeminiService {
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiService{
		apiKey:      os.Getenv("GEMINI_API_KEY"),
		model:       model,
		baseURL:     "https://generativelanguage.googleapis.com/v1beta/models",
		client:      &http.Client{Timeout: estimateTimeout},
		maxAttempts: estimateAttempts,
		backoff:     estimateBackoff,
		backoffMax:  estimateBackoffMax,
	}
}

func (s *GeminiService) ModelName() string {
	return s.model
}

// EstimateNutrition calls the model with up to three attempts. Only
// timeouts, 429s and 5xx-class failures are retried, with exponential
// backoff; validation and auth failures surface immediately.
func (s *GeminiService) EstimateNutrition(ctx context.Context, prompt string) (*NutritionEstimate, error) {
	delay := s.backoff

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		est, err := s.estimateOnce(ctx, prompt)
		if err == nil {
			return est, nil
		}
		lastErr = err

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.Retryable() || attempt == s.maxAttempts {
			return nil, err
		}

		wait := delay
		if apiErr.RetryAfter > wait {
			wait = apiErr.RetryAfter
		}
		select {
		case <-ctx.Done():
			return nil, &APIError{Kind: APIErrTimeout, Detail: ctx.Err().Error()}
		case <-time.After(wait):
		}

		delay *= estimateBackoffUp
		if delay > s.backoffMax {
			delay = s.backoffMax
		}
	}
	return nil, lastErr
}

func (s *GeminiService) estimateOnce(ctx context.Context, prompt string) (*NutritionEstimate, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{{Text: buildEstimatePrompt(prompt)}},
		}},
	}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gemini payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, estimateTimeout)
	defer cancel()

	u := fmt.Sprintf("%s/%s:generateContent?key=%s", s.baseURL, s.model, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return nil, &APIError{Kind: APIErrTimeout, Detail: err.Error()}
		}
		return nil, &APIError{Kind: APIErrServer, Detail: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Kind: APIErrServer, Detail: err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp, body)
	}

	var gr geminiResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return nil, &APIError{Kind: APIErrParse, Detail: err.Error()}
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, &APIError{Kind: APIErrParse, Detail: "no candidates in response"}
	}

	return parseEstimate(gr.Candidates[0].Content.Parts[0].Text)
}

func classifyStatus(resp *http.Response, body []byte) *APIError {
	detail := strings.TrimSpace(string(body))
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &APIError{Kind: APIErrUnauthorized, Status: resp.StatusCode, Detail: detail}
	case resp.StatusCode == http.StatusTooManyRequests:
		apiErr := &APIError{Kind: APIErrRateLimited, Status: resp.StatusCode, Detail: detail}
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			apiErr.RetryAfter = time.Duration(secs) * time.Second
		}
		return apiErr
	case resp.StatusCode >= 500:
		return &APIError{Kind: APIErrServer, Status: resp.StatusCode, Detail: detail}
	default:
		return &APIError{Kind: APIErrClient, Status: resp.StatusCode, Detail: detail}
	}
}

func buildEstimatePrompt(description string) string {
	var b strings.Builder
	b.WriteString("You are a professional nutritionist. Estimate the nutritional content of the meal described below.\n\n")
	b.WriteString("MEAL DESCRIPTION:\n")
	b.WriteString(description)
	b.WriteString("\n\nRespond with ONLY a JSON object, no markdown, in one of these two shapes:\n")
	b.WriteString(`{"calories": <int>, "protein": <grams>, "carbs": <grams>, "fats": <grams>, "assumptions": "<portion sizes and preparation you assumed>"}` + "\n")
	b.WriteString(`{"error": "<why the description is too vague to estimate>"}` + "\n")
	b.WriteString("Use typical portion sizes when the description does not state them.\n")
	return b.String()
}

// parseEstimate validates the model's JSON. All four numeric fields must be
// present on a successful answer; anything else is a parse error, which is
// terminal rather than retried.
func parseEstimate(text string) (*NutritionEstimate, error) {
	cleaned := stripCodeFences(text)

	var raw struct {
		Calories    *float64 `json:"calories"`
		Protein     *float64 `json:"protein"`
		Carbs       *float64 `json:"carbs"`
		Fats        *float64 `json:"fats"`
		Assumptions string   `json:"assumptions"`
		Error       string   `json:"error"`
	}
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, &APIError{Kind: APIErrParse, Detail: err.Error()}
	}

	if raw.Error != "" {
		return &NutritionEstimate{Refusal: raw.Error}, nil
	}

	if raw.Calories == nil || raw.Protein == nil || raw.Carbs == nil || raw.Fats == nil {
		return nil, &APIError{Kind: APIErrParse, Detail: "response missing one or more numeric fields"}
	}

	return &NutritionEstimate{
		Calories:    int(*raw.Calories),
		Protein:     *raw.Protein,
		Carbs:       *raw.Carbs,
		Fats:        *raw.Fats,
		Assumptions: raw.Assumptions,
	}, nil
}

func stripCodeFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	}
	return strings.TrimSpace(cleaned)
}
