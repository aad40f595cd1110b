// Package backend defines the uniform key/value adapter contract shared by
// the three storage areas. Implementations live under internal/backend/<driver>/.
package backend

import (
	"context"
	"encoding/json"
)

// Adapter is the contract every physical storage driver implements. The three
// configured areas use the same contract and differ only in declared
// capacity, which is enforced above this layer by the quota monitor.
//
// Get and GetMany return model.ErrNotFound for absent keys (GetMany simply
// omits them). A driver whose underlying store is gone reports
// model.ErrBackendUnavailable rather than failing silently.
type Adapter interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	GetMany(ctx context.Context, keys []string) (map[string]json.RawMessage, error)
	Set(ctx context.Context, key string, value json.RawMessage) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Keys(ctx context.Context) ([]string, error)
	BytesInUse(ctx context.Context) (int64, error)
}
