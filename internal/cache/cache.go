// Package cache memoizes Markov models per scope for the process lifetime.
package cache

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/hpungsan/mimic/internal/errors"
	"github.com/hpungsan/mimic/internal/markov"
	"github.com/hpungsan/mimic/internal/message"
	"github.com/hpungsan/mimic/internal/text"
)

// Source yields the stored messages of a scope in insertion order.
type Source interface {
	FetchMessages(ctx context.Context, scope message.Scope) ([]message.Message, error)
}

// ModelCache holds one model per scope. Entries are never evicted and are
// not refreshed when new messages arrive; Reset drops them all.
type ModelCache struct {
	source Source
	logger *zap.Logger

	mu     sync.RWMutex
	models map[message.Scope]*markov.Model
	group  singleflight.Group
}

// New creates an empty cache reading corpora from source.
func New(source Source, logger *zap.Logger) *ModelCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModelCache{
		source: source,
		logger: logger,
		models: make(map[message.Scope]*markov.Model),
	}
}

// GetOrBuild returns the model for scope, building it from the source on the
// first request. Concurrent misses for one scope share a single build.
// A scope with no usable messages returns a NOT_FOUND error.
//
// The shared build runs detached from any one caller's cancellation; a
// caller whose ctx ends stops waiting without failing the others.
func (c *ModelCache) GetOrBuild(ctx context.Context, scope message.Scope) (*markov.Model, error) {
	if m := c.lookup(scope); m != nil {
		return m, nil
	}

	buildCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(scope.String(), func() (any, error) {
		if m := c.lookup(scope); m != nil {
			return m, nil
		}
		m, err := c.build(buildCtx, scope)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.models[scope] = m
		c.mu.Unlock()
		return m, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*markov.Model), nil
	}
}

func (c *ModelCache) lookup(scope message.Scope) *markov.Model {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.models[scope]
}

func (c *ModelCache) build(ctx context.Context, scope message.Scope) (*markov.Model, error) {
	msgs, err := c.source.FetchMessages(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("fetch corpus for %s: %w", scope, err)
	}

	corpus := make([][]string, 0, len(msgs))
	for _, msg := range msgs {
		corpus = append(corpus, text.Tokenize(msg.Text))
	}

	m, err := markov.Build(corpus)
	if stderrors.Is(err, markov.ErrEmptyCorpus) {
		return nil, errors.NewNoMessages(scope.String())
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	c.logger.Debug("built model",
		zap.String("scope", scope.String()),
		zap.Int("messages", m.Messages()),
		zap.Int("states", m.States()))
	return m, nil
}

// Len returns the number of cached models.
func (c *ModelCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.models)
}

// Reset drops every cached model.
func (c *ModelCache) Reset() {
	c.mu.Lock()
	c.models = make(map[message.Scope]*markov.Model)
	c.mu.Unlock()
}
