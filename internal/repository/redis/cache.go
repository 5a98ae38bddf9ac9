package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/paperdeck/paperdeck/internal/domain"
)

const (
	directoryCachePrefix = "directories:"
	directoryCacheTTL    = 30 * time.Second
)

// DirectoryCache keeps recent directory listings per user so repeated
// sidebar refreshes skip the filesystem walk. Entries are short-lived and
// invalidated on every write to the user's directories.
type DirectoryCache struct {
	client *Client
}

// NewDirectoryCache creates a new directory listing cache
func NewDirectoryCache(client *Client) *DirectoryCache {
	return &DirectoryCache{client: client}
}

// Get retrieves the cached listing for a user. A miss returns nil, nil.
func (c *DirectoryCache) Get(ctx context.Context, username string) ([]domain.DirectoryInfo, error) {
	data, err := c.client.rdb.Get(ctx, directoryCachePrefix+username).Bytes()
	if err != nil {
		return nil, nil // cache miss
	}

	var dirs []domain.DirectoryInfo
	if err := json.Unmarshal(data, &dirs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal directory listing: %w", err)
	}
	return dirs, nil
}

// Set caches the listing for a user
func (c *DirectoryCache) Set(ctx context.Context, username string, dirs []domain.DirectoryInfo) error {
	data, err := json.Marshal(dirs)
	if err != nil {
		return fmt.Errorf("failed to marshal directory listing: %w", err)
	}
	return c.client.rdb.Set(ctx, directoryCachePrefix+username, data, directoryCacheTTL).Err()
}

// Invalidate drops the cached listing for a user
func (c *DirectoryCache) Invalidate(ctx context.Context, username string) error {
	return c.client.rdb.Del(ctx, directoryCachePrefix+username).Err()
}
