package state

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/SaratA8717/Botbuilder-samples/internal/bot"
)

// Property is a typed accessor for one named entry of a BotState. Values are
// stored as JSON, so T must round-trip through encoding/json.
type Property[T any] struct {
	bag  *BotState
	name string
}

// NewProperty creates an accessor for name within bag.
func NewProperty[T any](bag *BotState, name string) *Property[T] {
	return &Property[T]{bag: bag, name: name}
}

// Name returns the property name.
func (p *Property[T]) Name() string { return p.name }

// Get returns the stored value. When the property is missing and defaultFn is
// non-nil, its result is stored and returned; otherwise the zero value is
// returned and nothing is stored.
func (p *Property[T]) Get(ctx context.Context, tc *bot.TurnContext, defaultFn func() T) (T, error) {
	var v T
	bag, err := p.bag.property(ctx, tc)
	if err != nil {
		return v, err
	}

	raw, ok := bag.values[p.name]
	if !ok {
		if defaultFn == nil {
			return v, nil
		}
		v = defaultFn()
		if err := p.store(bag, v); err != nil {
			return v, err
		}
		return v, nil
	}

	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decode property %s: %w", p.name, err)
	}
	return v, nil
}

// Set replaces the value in the turn cache.
func (p *Property[T]) Set(ctx context.Context, tc *bot.TurnContext, v T) error {
	bag, err := p.bag.property(ctx, tc)
	if err != nil {
		return err
	}
	return p.store(bag, v)
}

// Delete removes the property from the turn cache.
func (p *Property[T]) Delete(ctx context.Context, tc *bot.TurnContext) error {
	bag, err := p.bag.property(ctx, tc)
	if err != nil {
		return err
	}
	delete(bag.values, p.name)
	return nil
}

func (p *Property[T]) store(bag *cachedBag, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode property %s: %w", p.name, err)
	}
	if old, ok := bag.values[p.name]; ok && bytes.Equal(old, raw) {
		return nil
	}
	bag.values[p.name] = raw
	return nil
}
