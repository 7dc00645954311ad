package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/amalxloop/EatFlex/internal/metrics"
	"github.com/amalxloop/EatFlex/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	unknownMealName       = "Unknown meal"
	defaultConfidence     = 5
	maxEstimateCalories   = 10000
	maxEstimateMacroGrams = 1000
	maxMealNameRunes      = 200
	maxIngredientsRunes   = 1000
)

type AnalysisConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type AnalysisService struct {
	cfg        AnalysisConfig
	httpClient *http.Client
	logger     logrus.FieldLogger
	metrics    *metrics.Metrics
}

func NewAnalysisService(cfg AnalysisConfig, logger logrus.FieldLogger, m *metrics.Metrics) *AnalysisService {
	if cfg.Model == "" {
		cfg.Model = "openai/gpt-4o"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &AnalysisService{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		metrics:    m,
	}
}

type chatContentPart struct {
	Type     string            `json:"type"`
	Text     string            `json:"text,omitempty"`
	ImageURL map[string]string `json:"image_url,omitempty"`
}

type chatMessage struct {
	Role    string            `json:"role"`
	Content []chatContentPart `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

// Analyze asks the vision model for a nutrition estimate. It never fails:
// when the model cannot be reached or answers with something unusable the
// result is degraded and carries the fixed fallback estimate.
func (s *AnalysisService) Analyze(ctx context.Context, image []byte, hint string) models.AnalysisResult {
	content, err := s.complete(ctx, image, hint)
	if err != nil {
		s.logger.WithError(err).Warn("meal analysis upstream unavailable")
		return s.finish(degradedResult(hint, models.ReasonUpstreamUnavailable))
	}

	estimate, ok := parseEstimate(content, hint)
	if !ok {
		s.logger.WithField("content_length", len(content)).Warn("meal analysis returned malformed content")
		return s.finish(degradedResult(hint, models.ReasonMalformedResponse))
	}

	return s.finish(models.AnalysisResult{
		Estimate: estimate,
		Status:   models.AnalysisEstimated,
	})
}

func (s *AnalysisService) finish(result models.AnalysisResult) models.AnalysisResult {
	s.metrics.AnalysisFinished(string(result.Status), result.Reason)
	return result
}

func (s *AnalysisService) complete(ctx context.Context, image []byte, hint string) (string, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []chatContentPart{
					{Type: "text", Text: analysisPrompt(hint)},
					{Type: "image_url", ImageURL: map[string]string{"url": imageDataURL(image)}},
				},
			},
		},
		MaxTokens:   500,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read completion response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion request: status %d", resp.StatusCode)
	}

	content := gjson.GetBytes(payload, "choices.0.message.content")
	if !content.Exists() || content.Type != gjson.String {
		return "", fmt.Errorf("completion response has no message content")
	}
	return content.String(), nil
}

func analysisPrompt(hint string) string {
	var b strings.Builder
	b.WriteString("Analyze this meal image and provide detailed nutritional information.\n")
	if hint != "" {
		b.WriteString("The user says this is: ")
		b.WriteString(hint)
		b.WriteString("\n")
	}
	b.WriteString(`
Respond with a single JSON object and nothing else, using exactly these keys:
{
  "name": "meal name",
  "calories": 500,
  "protein": 25.5,
  "carbs": 45.2,
  "fat": 18.3,
  "ingredients": "chicken breast, rice, vegetables",
  "confidence": 8
}
calories and confidence are integers, confidence is between 1 and 10, macros are grams.`)
	return b.String()
}

func imageDataURL(image []byte) string {
	mime := http.DetectContentType(image)
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(image)
}

// parseEstimate reads the model's JSON answer. Calories and all three macros
// are required; name and confidence have defaults.
func parseEstimate(content string, hint string) (models.NutritionEstimate, bool) {
	raw := stripCodeFence(content)
	if !gjson.Valid(raw) {
		return models.NutritionEstimate{}, false
	}
	doc := gjson.Parse(raw)
	if !doc.IsObject() {
		return models.NutritionEstimate{}, false
	}

	numbers := make(map[string]float64, 4)
	for _, key := range []string{"calories", "protein", "carbs", "fat"} {
		field := doc.Get(key)
		if field.Type != gjson.Number {
			return models.NutritionEstimate{}, false
		}
		numbers[key] = field.Float()
	}

	estimate := models.NutritionEstimate{
		Name:        strings.TrimSpace(doc.Get("name").String()),
		Calories:    roundClamped(numbers["calories"], 0, maxEstimateCalories),
		Protein:     numbers["protein"],
		Carbs:       numbers["carbs"],
		Fat:         numbers["fat"],
		Ingredients: strings.TrimSpace(doc.Get("ingredients").String()),
		Confidence:  defaultConfidence,
	}
	if confidence := doc.Get("confidence"); confidence.Type == gjson.Number {
		estimate.Confidence = roundClamped(confidence.Float(), 1, 10)
	}
	if estimate.Name == "" {
		estimate.Name = fallbackMealName(hint)
	}
	return estimate, true
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if newline := strings.IndexByte(trimmed, '\n'); newline >= 0 {
		trimmed = trimmed[newline+1:]
	} else {
		trimmed = strings.TrimPrefix(trimmed, "json")
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func degradedResult(hint string, reason string) models.AnalysisResult {
	confidence := defaultConfidence
	if reason == models.ReasonUpstreamUnavailable {
		confidence = 1
	}
	return models.AnalysisResult{
		Estimate: models.NutritionEstimate{
			Name:        fallbackMealName(hint),
			Calories:    400,
			Protein:     20.0,
			Carbs:       30.0,
			Fat:         15.0,
			Ingredients: "Could not analyze ingredients",
			Confidence:  confidence,
		},
		Status: models.AnalysisDegraded,
		Reason: reason,
	}
}

func fallbackMealName(hint string) string {
	if hint = strings.TrimSpace(hint); hint != "" {
		return hint
	}
	return unknownMealName
}

// sanitizeEstimate clamps model output into ranges the ledger accepts.
func sanitizeEstimate(estimate models.NutritionEstimate) models.NutritionEstimate {
	estimate.Calories = clampInt(estimate.Calories, 0, maxEstimateCalories)
	estimate.Protein = clampFloat(estimate.Protein, 0, maxEstimateMacroGrams)
	estimate.Carbs = clampFloat(estimate.Carbs, 0, maxEstimateMacroGrams)
	estimate.Fat = clampFloat(estimate.Fat, 0, maxEstimateMacroGrams)
	estimate.Confidence = clampInt(estimate.Confidence, 1, 10)

	estimate.Name = truncateRunes(strings.TrimSpace(estimate.Name), maxMealNameRunes)
	if estimate.Name == "" {
		estimate.Name = unknownMealName
	}
	estimate.Ingredients = truncateRunes(strings.TrimSpace(estimate.Ingredients), maxIngredientsRunes)
	return estimate
}

func clampInt(value, low, high int) int {
	return min(max(value, low), high)
}

// roundClamped clamps in float space, then rounds to int.
func roundClamped(value float64, low, high int) int {
	return int(math.Round(clampFloat(value, float64(low), float64(high))))
}

func clampFloat(value, low, high float64) float64 {
	if math.IsNaN(value) {
		return low
	}
	return math.Min(math.Max(value, low), high)
}

func truncateRunes(value string, limit int) string {
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	return string([]rune(value)[:limit])
}
