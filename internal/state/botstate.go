package state

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/SaratA8717/Botbuilder-samples/internal/bot"
	"github.com/SaratA8717/Botbuilder-samples/internal/boterror"
)

// Scope selects which identifier of the activity a bag is keyed by.
type Scope int

const (
	ScopeConversation Scope = iota
	ScopeUser
)

func (s Scope) String() string {
	switch s {
	case ScopeConversation:
		return "ConversationState"
	case ScopeUser:
		return "UserState"
	default:
		return "UnknownState"
	}
}

// BotState is a state bag of one scope backed by a Storage. It holds no
// per-turn data itself; the loaded bag lives in the turn context.
//
// No cross-turn locking is done. Concurrent turns of the same conversation
// race and the storage decides the winner: last write for MemoryStorage,
// first write for storages that enforce ETags.
type BotState struct {
	storage Storage
	scope   Scope
}

type cachedBag struct {
	values map[string]json.RawMessage
	hash   string
	etag   string
}

// NewBotState creates a bag of the given scope.
func NewBotState(storage Storage, scope Scope) (*BotState, error) {
	if storage == nil {
		return nil, boterror.New(boterror.InvalidArgument, "storage_nil", nil)
	}
	return &BotState{storage: storage, scope: scope}, nil
}

// NewConversationState creates a conversation-scoped bag.
func NewConversationState(storage Storage) (*BotState, error) {
	return NewBotState(storage, ScopeConversation)
}

// NewUserState creates a user-scoped bag.
func NewUserState(storage Storage) (*BotState, error) {
	return NewBotState(storage, ScopeUser)
}

// Scope returns the bag scope.
func (b *BotState) Scope() Scope { return b.scope }

func (b *BotState) cacheKey() string { return b.scope.String() }

// StorageKey returns the storage key of the bag for the turn's activity.
func (b *BotState) StorageKey(tc *bot.TurnContext) (string, error) {
	if tc == nil || tc.Activity() == nil {
		return "", boterror.New(boterror.InvalidArgument, "turn_context_nil", nil)
	}
	act := tc.Activity()
	if act.ChannelID == "" {
		return "", boterror.New(boterror.InvalidArgument, "channel_id_missing", nil)
	}

	switch b.scope {
	case ScopeConversation:
		if act.Conversation.ID == "" {
			return "", boterror.New(boterror.InvalidArgument, "conversation_id_missing", nil)
		}
		return act.ChannelID + "/conversations/" + act.Conversation.ID, nil
	case ScopeUser:
		if act.From.ID == "" {
			return "", boterror.New(boterror.InvalidArgument, "from_id_missing", nil)
		}
		return act.ChannelID + "/users/" + act.From.ID, nil
	default:
		return "", boterror.New(boterror.InvalidArgument, "unknown_scope", nil)
	}
}

func (b *BotState) cached(tc *bot.TurnContext) *cachedBag {
	v, ok := tc.TurnValue(b.cacheKey())
	if !ok {
		return nil
	}
	bag, _ := v.(*cachedBag)
	return bag
}

// Load reads the bag into the turn cache. Without force an already loaded
// bag is kept as is.
func (b *BotState) Load(ctx context.Context, tc *bot.TurnContext, force bool) error {
	key, err := b.StorageKey(tc)
	if err != nil {
		return err
	}
	if !force && b.cached(tc) != nil {
		return nil
	}

	items, err := b.storage.Read(ctx, []string{key})
	if err != nil {
		return boterror.New(boterror.StorageUnavailable, "read", err)
	}

	bag := &cachedBag{values: make(map[string]json.RawMessage)}
	if item, ok := items[key]; ok {
		if len(item.Value) > 0 {
			if err := json.Unmarshal(item.Value, &bag.values); err != nil {
				return boterror.New(boterror.StorageUnavailable, "decode", fmt.Errorf("decode %s: %w", key, err))
			}
			if bag.values == nil {
				bag.values = make(map[string]json.RawMessage)
			}
		}
		bag.etag = item.ETag
	}
	bag.hash = hashValues(bag.values)
	tc.SetTurnValue(b.cacheKey(), bag)
	return nil
}

// SaveChanges writes the cached bag. Without force it writes only when the
// bag changed since it was loaded or last saved; with force it always
// writes, creating an empty bag if none was loaded.
func (b *BotState) SaveChanges(ctx context.Context, tc *bot.TurnContext, force bool) error {
	key, err := b.StorageKey(tc)
	if err != nil {
		return err
	}

	bag := b.cached(tc)
	if bag == nil {
		if !force {
			return nil
		}
		bag = &cachedBag{values: make(map[string]json.RawMessage)}
		tc.SetTurnValue(b.cacheKey(), bag)
	}

	current := hashValues(bag.values)
	if !force && current == bag.hash {
		return nil
	}

	raw, err := json.Marshal(bag.values)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	item := &Item{Value: raw, ETag: bag.etag}
	if err := b.storage.Write(ctx, map[string]*Item{key: item}); err != nil {
		reason := "write"
		if errors.Is(err, ErrPreconditionFailed) {
			reason = "write_conflict"
		}
		return boterror.New(boterror.StorageUnavailable, reason, err)
	}
	bag.hash = current
	bag.etag = item.ETag
	return nil
}

// Clear empties the cached bag; the next SaveChanges persists the empty bag.
func (b *BotState) Clear(ctx context.Context, tc *bot.TurnContext) error {
	if err := b.Load(ctx, tc, false); err != nil {
		return err
	}
	b.cached(tc).values = make(map[string]json.RawMessage)
	return nil
}

// Delete removes the bag from storage and from the turn cache.
func (b *BotState) Delete(ctx context.Context, tc *bot.TurnContext) error {
	key, err := b.StorageKey(tc)
	if err != nil {
		return err
	}
	tc.DeleteTurnValue(b.cacheKey())
	if err := b.storage.Delete(ctx, []string{key}); err != nil {
		return boterror.New(boterror.StorageUnavailable, "delete", err)
	}
	return nil
}

func (b *BotState) property(ctx context.Context, tc *bot.TurnContext) (*cachedBag, error) {
	if err := b.Load(ctx, tc, false); err != nil {
		return nil, err
	}
	return b.cached(tc), nil
}

// hashValues fingerprints a bag. json.Marshal sorts map keys, so equal bags
// hash equally.
func hashValues(values map[string]json.RawMessage) string {
	raw, err := json.Marshal(values)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
