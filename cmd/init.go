package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/workspacekit/manifest-eval/internal/resilience"
	"github.com/workspacekit/manifest-eval/internal/selector"
	"github.com/workspacekit/manifest-eval/internal/store"
	"github.com/workspacekit/manifest-eval/pkg/anthropic"
)

// initStore opens the configured results backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.SQLitePath)
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("store.database_url is required for the postgres driver")
		}
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initSelector builds the named selector implementation from config.
func initSelector(name string) (selector.Selector, error) {
	switch name {
	case "rules":
		return selector.NewRuleEvaluator(), nil
	case "llm":
		if cfg.Anthropic.Key == "" {
			return nil, eris.New("anthropic.key is required for the llm selector")
		}
		client := anthropic.NewClient(cfg.Anthropic.Key)

		retry := resilience.DefaultRetryConfig()
		if cfg.Eval.MaxRetries > 0 {
			retry.MaxAttempts = cfg.Eval.MaxRetries
		}

		opts := []selector.LLMOption{
			selector.WithModel(cfg.Anthropic.Model),
			selector.WithMaxTokens(int64(cfg.Anthropic.MaxTokens)),
			selector.WithTemperature(cfg.Anthropic.Temperature),
			selector.WithTimeout(time.Duration(cfg.Eval.RequestTimeoutSecs) * time.Second),
			selector.WithRetryConfig(retry),
		}
		if cfg.Eval.RateLimitPerSec > 0 {
			opts = append(opts, selector.WithLimiter(
				rate.NewLimiter(rate.Limit(cfg.Eval.RateLimitPerSec), 1)))
		}
		return selector.NewLLMSelector(client, opts...), nil
	default:
		return nil, eris.Errorf("unknown selector %q (want rules or llm)", name)
	}
}
