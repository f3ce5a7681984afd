package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Aditya-Garg10/Listygo/internal/models"
)

const listingTTL = 1 * time.Hour

// ListingCache is a read-through cache for listing-by-id lookups. A nil
// *ListingCache is valid and disables caching.
type ListingCache struct {
	client *redis.Client
}

func NewListingCache(addr string) (*ListingCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	return &ListingCache{client: client}, nil
}

func (c *ListingCache) Get(ctx context.Context, id string) (*models.Listing, error) {
	if c == nil {
		return nil, nil
	}
	data, err := c.client.Get(ctx, "listing:"+id).Bytes()
	if err == redis.Nil {
		return nil, nil // cache miss
	}
	if err != nil {
		return nil, err
	}
	var listing models.Listing
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

func (c *ListingCache) Set(ctx context.Context, listing *models.Listing) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(listing)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "listing:"+listing.ID.Hex(), data, listingTTL).Err()
}

func (c *ListingCache) Delete(ctx context.Context, id string) error {
	if c == nil {
		return nil
	}
	return c.client.Del(ctx, "listing:"+id).Err()
}
