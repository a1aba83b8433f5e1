// Package extract turns free expense text into {value, category, currency}
// through an external classification model, constrained to the calling
// user's category set.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"gastos/internal/core"

	"github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"
)

// ErrExtraction marks oracle call failures and non-parseable responses.
// A failed extraction never mutates the ledger.
var ErrExtraction = errors.New("expense extraction failed")

type Extraction struct {
	Value    decimal.Decimal
	Category string
	Currency string
}

// Extractor produces an Extraction constrained to the allowed set. The set
// is per-user and per-call: implementations must build a fresh constraint
// for every invocation and re-validate the response against it.
type Extractor interface {
	Extract(ctx context.Context, text string, allowed []string) (Extraction, error)
}

// chatCompleter is the slice of the OpenAI client used here.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIExtractor performs one chat-completion request per extraction with
// no retry and no internal timeout; cancellation comes from the caller's
// context only.
type OpenAIExtractor struct {
	client chatCompleter
	model  string
}

func NewOpenAIExtractor(apiKey, model string) *OpenAIExtractor {
	return &OpenAIExtractor{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// oracleResponse is the JSON shape the model is instructed to return.
type oracleResponse struct {
	Value    float64 `json:"value"`
	Category string  `json:"category"`
	Currency string  `json:"currency"`
}

func (e *OpenAIExtractor) Extract(ctx context.Context, text string, allowed []string) (Extraction, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildInstructions(allowed)},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return Extraction{}, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	if len(resp.Choices) == 0 {
		return Extraction{}, fmt.Errorf("%w: empty response", ErrExtraction)
	}

	var raw oracleResponse
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &raw); err != nil {
		return Extraction{}, fmt.Errorf("%w: unmarshal response: %v", ErrExtraction, err)
	}

	result := sanitize(raw, allowed)
	if !strings.EqualFold(result.Category, raw.Category) {
		slog.WarnContext(ctx, "Oracle category outside allowed set, substituted fallback",
			"returned", raw.Category, "substituted", result.Category)
	}
	return result, nil
}

// buildInstructions enumerates the caller's allowed set. Rebuilt on every
// call because the set differs per user and may have changed since the
// previous message.
func buildInstructions(allowed []string) string {
	var b strings.Builder
	b.WriteString("El mensaje describe un gasto de dinero personal enviado por un corto mensaje de texto.\n")
	b.WriteString("Respondé únicamente con un objeto JSON con las claves \"value\", \"category\" y \"currency\".\n")
	b.WriteString("- value: monto numérico del gasto (usar punto como separador decimal). Si no hay valor, asignar 0.0.\n")
	b.WriteString("- category: la categoría del gasto. Las opciones son: ")
	b.WriteString(strings.Join(allowed, ", "))
	b.WriteString(".\n  Si no hay buena coincidencia, usar \"")
	b.WriteString(core.FallbackCategory)
	b.WriteString("\".\n- currency: la moneda del gasto (por defecto ")
	b.WriteString(core.DefaultCurrency)
	b.WriteString(" si no se menciona).\n")
	return b.String()
}

// sanitize enforces the extraction contract regardless of what the oracle
// returned: category must be a member of the allowed set (fallback
// otherwise), currency defaults, value is non-negative.
func sanitize(raw oracleResponse, allowed []string) Extraction {
	out := Extraction{
		Value:    decimal.Zero,
		Category: core.FallbackCategory,
		Currency: core.DefaultCurrency,
	}

	if raw.Value > 0 && !math.IsInf(raw.Value, 0) && !math.IsNaN(raw.Value) {
		out.Value = decimal.NewFromFloat(raw.Value)
	}

	category := strings.TrimSpace(raw.Category)
	for _, name := range allowed {
		if strings.EqualFold(name, category) {
			out.Category = name // catalog spelling wins
			break
		}
	}

	currency := strings.ToUpper(strings.TrimSpace(raw.Currency))
	if isCurrencyCode(currency) {
		out.Currency = currency
	}

	return out
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
