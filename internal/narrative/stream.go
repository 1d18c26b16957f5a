package narrative

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"steamlens/internal/db"
)

var (
	// ErrUpstreamAPI indicates the completion API rejected the request.
	ErrUpstreamAPI = errors.New("narrative: upstream api error")

	// ErrUpstreamNetwork indicates the completion endpoint could not be
	// reached or timed out.
	ErrUpstreamNetwork = errors.New("narrative: upstream network error")
)

// Config holds the completion endpoint settings.
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	MaxGames int
	Timeout  time.Duration
}

// Generator produces streamed play-habit commentary from a cached game
// list.
type Generator struct {
	client openai.Client
	logger *zap.Logger

	mu  sync.RWMutex
	cfg Config
}

// NewGenerator creates a narrative generator.
func NewGenerator(cfg Config, logger *zap.Logger) *Generator {
	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(0),
	)

	return &Generator{
		client: client,
		cfg:    cfg,
		logger: logger.Named("narrative"),
	}
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cfg.Model
}

// Reconfigure updates the reloadable settings. The API key and base
// URL are fixed at construction; changing them requires a restart.
func (g *Generator) Reconfigure(model string, maxGames int, timeout time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cfg.Model = model
	g.cfg.MaxGames = maxGames
	g.cfg.Timeout = timeout
}

func (g *Generator) config() Config {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cfg
}

// Narrate opens a streaming completion for the given game list and
// returns a channel of text chunks in receipt order. The channel is
// closed when the upstream stream completes, errors, or ctx is
// canceled. A startup failure is returned before any chunk is sent so
// the caller can still choose a status code.
func (g *Generator) Narrate(ctx context.Context, games []db.FormattedGame) (<-chan string, error) {
	cfg := g.config()
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)

	stream := g.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt),
			openai.UserMessage(BuildGameList(games, cfg.MaxGames)),
		},
		Model: cfg.Model,
	})

	if err := stream.Err(); err != nil {
		cancel()
		return nil, classify(err)
	}

	chunks := make(chan string, 1)

	go func() {
		defer cancel()
		defer close(chunks)

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}
			select {
			case chunks <- chunk.Choices[0].Delta.Content:
			case <-ctx.Done():
				return
			}
		}

		if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
			g.logger.Error("narrative stream ended with error", zap.Error(err))
		}
	}()

	return chunks, nil
}

// classify maps a completion failure onto the package sentinels.
func classify(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return fmt.Errorf("%w: %v", ErrUpstreamAPI, err)
	}
	return fmt.Errorf("%w: %v", ErrUpstreamNetwork, err)
}
