// Package sessions keeps small per-visitor key/value state behind an opaque
// cookie, for anonymous and logged-in visitors alike.
package sessions

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

// ErrNotFound is returned by stores for unknown or expired keys.
var ErrNotFound = errors.New("session not found")

// Data is the decoded content of a session.
type Data map[string]interface{}

// Store persists session data under a key.
type Store interface {
	Load(ctx context.Context, key string) (Data, error)
	Save(ctx context.Context, key string, data Data, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

func encode(data Data) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return string(b), nil
}

func decode(raw string) (Data, error) {
	data := Data{}
	if raw == "" {
		return data, nil
	}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, errors.WithStack(err)
	}
	return data, nil
}
