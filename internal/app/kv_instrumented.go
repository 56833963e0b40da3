package app

import (
	"context"
	"time"

	"github.com/yungbote/storefront-layout/internal/data/kv"
	"github.com/yungbote/storefront-layout/internal/observability"
)

type instrumentedKV struct {
	backend string
	inner   kv.Store
	metrics *observability.Metrics
}

func instrumentKV(backend string, inner kv.Store, metrics *observability.Metrics) kv.Store {
	if inner == nil || metrics == nil {
		return inner
	}
	return &instrumentedKV{backend: backend, inner: inner, metrics: metrics}
}

func (s *instrumentedKV) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	out, err := s.inner.Get(ctx, key)
	s.observe("get", err, time.Since(start))
	return out, err
}

func (s *instrumentedKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	err := s.inner.Set(ctx, key, value, ttl)
	s.observe("set", err, time.Since(start))
	return err
}

func (s *instrumentedKV) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	start := time.Now()
	ok, err := s.inner.SetNX(ctx, key, value, ttl)
	s.observe("setnx", err, time.Since(start))
	return ok, err
}

func (s *instrumentedKV) Del(ctx context.Context, keys ...string) error {
	start := time.Now()
	err := s.inner.Del(ctx, keys...)
	s.observe("del", err, time.Since(start))
	return err
}

func (s *instrumentedKV) CompareAndDelete(ctx context.Context, key string, value []byte) (bool, error) {
	start := time.Now()
	ok, err := s.inner.CompareAndDelete(ctx, key, value)
	s.observe("compare_and_delete", err, time.Since(start))
	return ok, err
}

func (s *instrumentedKV) Close() error { return s.inner.Close() }

// observe labels missing keys "miss" rather than "error".
func (s *instrumentedKV) observe(operation string, err error, dur time.Duration) {
	status := "success"
	switch {
	case err == nil:
	case kv.IsNotFound(err):
		status = "miss"
	default:
		status = "error"
	}
	s.metrics.ObserveKV(s.backend, operation, status, dur)
}
