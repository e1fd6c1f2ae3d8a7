package cache

import (
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dgraph-io/badger/v4"
)

// newOpenBackoff creates the exponential schedule used while waiting for a
// directory lock
func newOpenBackoff(opts Options) backoff.BackOff {
	interval := opts.RetryInterval
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	retries := opts.OpenRetries
	if retries < 0 {
		retries = 0
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = interval
	b.MaxInterval = 16 * interval
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5
	b.Reset()

	return backoff.WithMaxRetries(b, uint64(retries))
}

// openWithRetry opens the database, retrying only lock contention
func openWithRetry(badgerOpts badger.Options, opts Options) (*badger.DB, error) {
	var db *badger.DB
	err := backoff.Retry(func() error {
		var err error
		db, err = badger.Open(badgerOpts)
		if err == nil {
			return nil
		}
		if !isLockError(err) {
			return backoff.Permanent(err)
		}
		return err
	}, newOpenBackoff(opts))
	if err != nil {
		return nil, err
	}
	return db, nil
}

// isLockError reports whether err comes from a held directory lock
func isLockError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Cannot acquire directory lock")
}
