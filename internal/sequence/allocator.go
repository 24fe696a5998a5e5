// Package sequence obtains globally unique, increasing page identifiers from an
// external atomic counter. Identifiers are never cached or pre-allocated.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrAllocation wraps every failure to obtain a valid identifier.
var ErrAllocation = errors.New("sequence allocation failed")

// Allocator is one atomic-increment round trip to the counter service.
type Allocator interface {
	Allocate(ctx context.Context) (int64, error)
}

// AllocatorFunc adapts a function to Allocator.
type AllocatorFunc func(ctx context.Context) (int64, error)

func (f AllocatorFunc) Allocate(ctx context.Context) (int64, error) { return f(ctx) }

// Client applies the per-page allocation rules on top of an Allocator.
type Client struct {
	allocator Allocator
	timeout   time.Duration
}

// NewClient binds allocator to the page rules. A zero timeout leaves the call
// bounded only by ctx.
func NewClient(allocator Allocator, timeout time.Duration) *Client {
	return &Client{allocator: allocator, timeout: timeout}
}

// ForPage returns the identifier for the page at pageIndex. For page 0 a non-nil
// override is returned as-is without calling the allocator; every other page
// performs exactly one allocation.
func (c *Client) ForPage(ctx context.Context, pageIndex int, override *int64) (int64, error) {
	if pageIndex == 0 && override != nil {
		return *override, nil
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	id, err := c.allocator.Allocate(ctx)
	if err != nil {
		if errors.Is(err, ErrAllocation) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", ErrAllocation, err)
	}
	if err := checkIdentifier(id); err != nil {
		return 0, err
	}
	return id, nil
}

func checkIdentifier(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: allocator returned non-positive identifier %d", ErrAllocation, id)
	}
	return nil
}
