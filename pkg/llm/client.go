package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"lovelink/pkg/chat"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/sony/gobreaker"
)

const (
	DefaultBaseURL   = "https://integrate.api.nvidia.com/v1"
	DefaultModel     = "meta/llama-3.3-70b-instruct"
	DefaultMaxTokens = 512
)

// ErrNoKeys is returned when no API key was configured
var ErrNoKeys = errors.New("no API keys configured")

type Config struct {
	APIKeys     string // Comma separated
	BaseURL     string
	Model       string
	Temperature float64
	TopP        float64
	MaxTokens   int
}

type KeyState struct {
	Key          string
	FailureCount int
	LastUsed     time.Time
	LastSuccess  time.Time
}

// Client generates companion replies through an OpenAI-compatible chat API
type Client struct {
	keys        []*KeyState
	keyMu       sync.RWMutex
	clients     map[string]openai.Client
	clientsMu   sync.RWMutex
	baseURL     string
	model       string
	temperature float64
	topP        float64
	maxTokens   int
	breaker     *gobreaker.CircuitBreaker
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	keyStrings := strings.Split(cfg.APIKeys, ",")
	keys := make([]*KeyState, 0, len(keyStrings))
	for _, k := range keyStrings {
		k = strings.TrimSpace(k)
		if k != "" {
			keys = append(keys, &KeyState{Key: k})
		}
	}

	if len(keys) == 0 {
		log.Println("Warning: No LLM API keys provided")
	} else {
		log.Printf("Loaded %d LLM API key(s)", len(keys))
	}

	return &Client{
		keys:        keys,
		clients:     make(map[string]openai.Client),
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		maxTokens:   cfg.MaxTokens,
		breaker:     newBreaker(DefaultBreakerConfig("llm")),
	}
}

// SetBreaker replaces the circuit breaker settings
func (c *Client) SetBreaker(cfg BreakerConfig) {
	c.breaker = newBreaker(cfg)
}

// BreakerState reports the circuit breaker state
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// Generate implements chat.Generator
func (c *Client) Generate(ctx context.Context, req chat.Request) (chat.Response, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.complete(ctx, buildMessages(req))
	})
	if err != nil {
		return chat.Response{}, err
	}
	return chat.Response{Text: out.(string)}, nil
}

func (c *Client) complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	keyState := c.getBestKey()
	if keyState == nil {
		return "", ErrNoKeys
	}

	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.model),
		Messages:    messages,
		Temperature: openai.Float(c.temperature),
		TopP:        openai.Float(c.topP),
		MaxTokens:   openai.Int(int64(c.maxTokens)),
	}

	start := time.Now()
	client := c.getClient(keyState.Key)
	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil && isRateLimitOrAuthError(err) {
		c.recordFailure(keyState)
		nextKey := c.getBestKey()
		if nextKey != nil && nextKey != keyState {
			log.Printf("Key rate limited/auth failed, trying another key...")
			keyState = nextKey
			client = c.getClient(keyState.Key)
			resp, err = client.Chat.Completions.New(ctx, params)
		}
	}
	if err != nil {
		c.recordFailure(keyState)
		return "", fmt.Errorf("model %s: %w", c.model, err)
	}

	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from model %s", c.model)
	}

	c.recordSuccess(keyState)
	log.Printf("Model %s success (took %v, tokens: in=%d, out=%d)",
		c.model, time.Since(start), resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildMessages(req chat.Request) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	for _, t := range req.History {
		switch t.Sender {
		case chat.SenderCompanion:
			messages = append(messages, openai.AssistantMessage(t.Text))
		default:
			messages = append(messages, openai.UserMessage(t.Text))
		}
	}
	return append(messages, openai.UserMessage(req.UserMessage))
}

func (c *Client) getClient(key string) openai.Client {
	c.clientsMu.RLock()
	if client, ok := c.clients[key]; ok {
		c.clientsMu.RUnlock()
		return client
	}
	c.clientsMu.RUnlock()

	c.clientsMu.Lock()
	defer c.clientsMu.Unlock()

	client := openai.NewClient(
		option.WithBaseURL(c.baseURL),
		option.WithAPIKey(key),
		// Key rotation and the breaker take the place of SDK retries
		option.WithMaxRetries(0),
	)
	c.clients[key] = client
	return client
}

func (c *Client) getBestKey() *KeyState {
	c.keyMu.RLock()
	defer c.keyMu.RUnlock()

	if len(c.keys) == 0 {
		return nil
	}

	best := c.keys[0]
	for _, k := range c.keys[1:] {
		if k.FailureCount < best.FailureCount {
			best = k
		}
	}
	return best
}

func (c *Client) recordSuccess(key *KeyState) {
	c.keyMu.Lock()
	defer c.keyMu.Unlock()
	key.LastSuccess = time.Now()
	key.LastUsed = time.Now()
	if key.FailureCount > 0 {
		key.FailureCount--
	}
}

func (c *Client) recordFailure(key *KeyState) {
	c.keyMu.Lock()
	defer c.keyMu.Unlock()
	key.FailureCount++
	key.LastUsed = time.Now()
}

func isRateLimitOrAuthError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "403") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "unauthorized")
}
