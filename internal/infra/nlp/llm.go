package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tokentalk/tokentalk/internal/domain"
	"go.uber.org/zap"
)

const systemPrompt = `You turn crypto price-alert requests into JSON.
Reply with only a JSON object:
{"symbol":"BTC","condition":"above|below","target_price":"30000","confidence":0.9}
If the message is not a price alert, reply {"symbol":""}.`

// LLMParser asks an Ollama-compatible chat endpoint to structure the
// message. Any failure falls back to the rule parser so the intake path
// works without a model running.
type LLMParser struct {
	baseURL  string
	model    string
	client   *http.Client
	fallback *RuleParser
	logger   *zap.Logger
}

func NewLLMParser(baseURL, model string, timeout time.Duration, fallback *RuleParser, logger *zap.Logger) *LLMParser {
	return &LLMParser{
		baseURL:  strings.TrimRight(baseURL, "/"),
		model:    model,
		client:   &http.Client{Timeout: timeout},
		fallback: fallback,
		logger:   logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

type intentJSON struct {
	Symbol      string  `json:"symbol"`
	Condition   string  `json:"condition"`
	TargetPrice string  `json:"target_price"`
	Confidence  float64 `json:"confidence"`
}

func (p *LLMParser) Parse(ctx context.Context, message string) (*domain.ParsedIntent, error) {
	intent, err := p.parseWithModel(ctx, message)
	if err == nil {
		return intent, nil
	}
	p.logger.Debug("model parse failed, using rule fallback", zap.Error(err))
	return p.fallback.Parse(ctx, message)
}

func (p *LLMParser) parseWithModel(ctx context.Context, message string) (*domain.ParsedIntent, error) {
	if p.baseURL == "" {
		return nil, fmt.Errorf("no model endpoint configured")
	}

	payload, err := json.Marshal(chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: message},
		},
		Stream:  false,
		Options: map[string]any{"temperature": 0.1},
	})
	if err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := p.client.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model endpoint status %d", response.StatusCode)
	}

	var reply chatResponse
	if err := json.NewDecoder(response.Body).Decode(&reply); err != nil {
		return nil, err
	}
	return decodeIntent(reply.Message.Content)
}

func decodeIntent(content string) (*domain.ParsedIntent, error) {
	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model reply")
	}

	var raw intentJSON
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return nil, err
	}
	if raw.Symbol == "" {
		return nil, ErrUnparseable
	}

	condition := domain.AlertCondition(strings.ToLower(raw.Condition))
	if !domain.ValidCondition(condition) {
		return nil, ErrUnparseable
	}

	return &domain.ParsedIntent{
		Symbol:      strings.ToUpper(raw.Symbol),
		Condition:   condition,
		TargetPrice: raw.TargetPrice,
		Confidence:  raw.Confidence,
		Explanation: "model",
	}, nil
}
