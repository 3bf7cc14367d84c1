package callcache

import (
	"context"
	"errors"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

const maxSharedRetries = 3

// CallFunc performs the expensive call a Memo guards.
type CallFunc func(ctx context.Context) ([]string, error)

// Memo runs calls through a Cache. Identical keys share one in-flight call,
// an optional semaphore bounds outstanding calls, and only complete results
// from calls whose context is still live are written back.
type Memo struct {
	cache Cache
	group singleflight.Group
	sem   *semaphore.Weighted
}

// NewMemo creates a Memo. maxInFlight <= 0 leaves outstanding calls unbounded.
func NewMemo(cache Cache, maxInFlight int) *Memo {
	m := &Memo{cache: cache}
	if maxInFlight > 0 {
		m.sem = semaphore.NewWeighted(int64(maxInFlight))
	}
	return m
}

// Cache returns the cache the memo reads and writes.
func (m *Memo) Cache() Cache {
	return m.cache
}

// Do returns the cached responses for key, or performs call and caches its result.
func (m *Memo) Do(ctx context.Context, key Key, call CallFunc) ([]string, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	responses, found, err := m.cache.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if found {
		return responses, nil
	}

	for attempt := 0; ; attempt++ {
		ch := m.group.DoChan(key.String(), func() (any, error) {
			return m.fill(ctx, key, call)
		})

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				// The shared call was abandoned by the caller that started it; retry on our own context.
				if res.Shared && isContextErr(res.Err) && ctx.Err() == nil && attempt < maxSharedRetries {
					continue
				}
				return nil, res.Err
			}
			return append([]string(nil), res.Val.([]string)...), nil
		}
	}
}

func (m *Memo) fill(ctx context.Context, key Key, call CallFunc) ([]string, error) {
	// A previous flight may have stored the entry after our first lookup.
	if responses, found, err := m.cache.Lookup(ctx, key); err != nil {
		return nil, err
	} else if found {
		return responses, nil
	}

	if m.sem != nil {
		if err := m.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer m.sem.Release(1)
	}

	responses, err := call(ctx)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.cache.Update(ctx, key, responses); err != nil {
		return nil, err
	}
	return responses, nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
