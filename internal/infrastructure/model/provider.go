package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/kirillkom/document-classifier/internal/core/domain"
	"github.com/kirillkom/document-classifier/internal/infrastructure/model/kserve"
	"github.com/kirillkom/document-classifier/internal/infrastructure/resilience"
)

const operationInfer = "inference"

var errNotLoaded = errors.New("tokenizer or model server not configured")

type Tokenizer interface {
	Encode(text string) domain.Encoding
}

type InferenceServer interface {
	Ready(ctx context.Context) error
	Infer(ctx context.Context, encoding domain.Encoding) ([]float32, error)
}

// Provider pairs a loaded tokenizer with a remote sequence classification
// model. Readiness is cached and only changes on Refresh.
type Provider struct {
	tokenizer Tokenizer
	server    InferenceServer
	executor  *resilience.Executor
	logger    *slog.Logger

	ready atomic.Bool
}

func NewProvider(tokenizer Tokenizer, server InferenceServer, executor *resilience.Executor, logger *slog.Logger) *Provider {
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		tokenizer: tokenizer,
		server:    server,
		executor:  executor,
		logger:    logger,
	}
}

func (p *Provider) IsReady() bool {
	return p.loaded() && p.ready.Load()
}

// Refresh probes the model server and updates the cached readiness.
func (p *Provider) Refresh(ctx context.Context) bool {
	if !p.loaded() {
		return false
	}

	err := p.server.Ready(ctx)
	ready := err == nil
	if previous := p.ready.Swap(ready); previous != ready {
		if ready {
			p.logger.InfoContext(ctx, "model_ready")
		} else {
			p.logger.WarnContext(ctx, "model_not_ready", "error", err)
		}
	}
	return ready
}

func (p *Provider) Tokenize(text string) (domain.Encoding, error) {
	if p.tokenizer == nil {
		return domain.Encoding{}, errNotLoaded
	}
	return p.tokenizer.Encode(text), nil
}

func (p *Provider) Infer(ctx context.Context, encoding domain.Encoding) ([]float32, error) {
	if !p.loaded() {
		return nil, errNotLoaded
	}

	var logits []float32
	err := p.executor.Execute(ctx, operationInfer, func(ctx context.Context) error {
		out, err := p.server.Infer(ctx, encoding)
		if err != nil {
			return err
		}
		logits = out
		return nil
	}, countsAgainstServer)
	if err != nil {
		if resilience.IsCircuitOpen(err) {
			return nil, fmt.Errorf("model server unavailable: %w", err)
		}
		return nil, err
	}
	return logits, nil
}

func (p *Provider) loaded() bool {
	return p.tokenizer != nil && p.server != nil
}

// countsAgainstServer ignores cancellations and rejected requests.
func countsAgainstServer(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *kserve.HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.ServerSide()
	}
	return true
}
