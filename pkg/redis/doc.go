// Package redis wraps the go-redis client with a retrying Connect helper and
// a health probe, used by the Redis-backed session store.
package redis
