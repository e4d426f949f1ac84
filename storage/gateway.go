// Package storage persists the app's collections as JSON documents in a
// core.KVStore. Failures never escape as errors: every call reports a Result
// and logs it, and readers fall back to a default value.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"stable-thought/core"

	"github.com/sirupsen/logrus"
)

// DefaultNamespace prefixes every key written by the gateway.
const DefaultNamespace = "stable-thought"

// Key suffixes of the persisted collections.
const (
	KeyTasks        = "tasks"
	KeyDiaryEntries = "diary-entries"
	KeyTheme        = "theme"
	KeyUserSettings = "user-settings"
	KeyCustomIcons  = "custom-icons"
)

// DefaultTheme is returned when no theme has been saved.
const DefaultTheme = "default"

// Kind classifies the outcome of a gateway call.
type Kind int

const (
	OK Kind = iota
	Missing
	EncodeFailed
	DecodeFailed
	StoreFailed
)

func (k Kind) String() string {
	switch k {
	case OK:
		return "ok"
	case Missing:
		return "missing"
	case EncodeFailed:
		return "encode_failed"
	case DecodeFailed:
		return "decode_failed"
	case StoreFailed:
		return "store_failed"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Result is the outcome of a Save or Load.
type Result struct {
	Kind Kind
	Err  error
}

// OK reports whether the call succeeded.
func (r Result) OK() bool { return r.Kind == OK }

func (r Result) String() string {
	if r.Err == nil {
		return r.Kind.String()
	}
	return fmt.Sprintf("%s: %v", r.Kind, r.Err)
}

// Gateway reads and writes JSON values under namespaced keys.
type Gateway struct {
	kv        core.KVStore
	namespace string
}

// New returns a gateway over kv. An empty namespace selects DefaultNamespace.
func New(kv core.KVStore, namespace string) *Gateway {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Gateway{kv: kv, namespace: namespace}
}

// Key returns the full store key for suffix.
func (g *Gateway) Key(suffix string) string {
	return g.namespace + ":" + suffix
}

// Save serializes value and overwrites the value stored under suffix.
func (g *Gateway) Save(ctx context.Context, suffix string, value any) Result {
	key := g.Key(suffix)
	log := logrus.WithField("key", key)

	data, err := json.Marshal(value)
	if err != nil {
		log.WithError(err).Error("Failed to encode value for storage")
		return Result{Kind: EncodeFailed, Err: err}
	}

	if err := g.kv.Set(ctx, key, data); err != nil {
		log.WithError(err).Error("Failed to save value to storage")
		return Result{Kind: StoreFailed, Err: err}
	}

	log.WithField("data_length", len(data)).Debug("Value saved")
	return Result{Kind: OK}
}

// Load decodes the value stored under suffix into dst. dst is left untouched
// unless the result is OK.
func (g *Gateway) Load(ctx context.Context, suffix string, dst any) Result {
	key := g.Key(suffix)
	log := logrus.WithField("key", key)

	data, err := g.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return Result{Kind: Missing}
		}
		log.WithError(err).Error("Failed to read value from storage")
		return Result{Kind: StoreFailed, Err: err}
	}
	if len(data) == 0 {
		return Result{Kind: Missing}
	}

	if err := decodeInto(data, dst); err != nil {
		log.WithError(err).Error("Failed to decode stored value")
		return Result{Kind: DecodeFailed, Err: err}
	}
	return Result{Kind: OK}
}

// decodeInto unmarshals into a fresh value of dst's type first, so a payload
// that fails halfway never leaves dst partially written.
func decodeInto(data []byte, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("decode target must be a non-nil pointer, got %T", dst)
	}
	fresh := reflect.New(rv.Type().Elem())
	if err := json.Unmarshal(data, fresh.Interface()); err != nil {
		return err
	}
	rv.Elem().Set(fresh.Elem())
	return nil
}

// LoadOr returns the value stored under suffix, or def when it is missing or
// unreadable.
func LoadOr[T any](ctx context.Context, g *Gateway, suffix string, def T) (T, Result) {
	var v T
	res := g.Load(ctx, suffix, &v)
	if !res.OK() {
		return def, res
	}
	return v, res
}
