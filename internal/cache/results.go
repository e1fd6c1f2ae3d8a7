package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/quantmind-br/bundlecheck/internal/domain"
)

// LoadResult reads a stored verification result. A missing entry reports
// found=false with a nil error. An entry that cannot be decoded is evicted.
func LoadResult(ctx context.Context, c domain.Cache, key string) (domain.Result, bool, error) {
	data, err := c.Get(ctx, key)
	if errors.Is(err, domain.ErrCacheMiss) {
		return domain.Result{}, false, nil
	}
	if err != nil {
		return domain.Result{}, false, err
	}

	var res domain.Result
	if err := json.Unmarshal(data, &res); err != nil {
		_ = c.Delete(ctx, key)
		return domain.Result{}, false, fmt.Errorf("decode cached result: %w", err)
	}
	res = domain.NewResult(res.Subject, res.Issues)
	res.Cached = true
	return res, true, nil
}

// StoreResult saves a verification result under key
func StoreResult(ctx context.Context, c domain.Cache, key string, res domain.Result, ttl time.Duration) error {
	res.Cached = false
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return c.Set(ctx, key, data, ttl)
}
