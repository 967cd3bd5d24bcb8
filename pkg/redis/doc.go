// Package redis opens the go-redis client used by the Redis session store.
//
// Settings come from a [Config] filled from the environment (REDIS_URL,
// REDIS_POOL_SIZE and friends). [Open] retries PING with linear backoff so a
// freshly started Redis does not fail the boot. [Healthcheck] and [Shutdown]
// plug into the readiness endpoint and the shutdown hooks.
package redis
