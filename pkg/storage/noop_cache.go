package storage

import (
	"context"
	"time"
)

// NoopCache never stores anything.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) ([]byte, error)              { return nil, ErrCacheMiss }
func (NoopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NoopCache) Delete(context.Context, string) error                     { return nil }
func (NoopCache) Close() error                                             { return nil }
