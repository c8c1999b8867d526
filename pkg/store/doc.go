// Package store reads namespaced keys from a Redis-compatible key-value store
// and reports each key in its native shape.
//
// Responsibilities:
//   - Client is the connection contract. RedisDialer opens a go-redis client;
//     MemoryClient keeps data in process for tests and examples.
//   - Adapter owns the single shared connection. It dials on the first Fetch,
//     keeps the handle for the lifetime of the adapter and never retries.
//   - Fetch asks the store for the key's type tag and then issues exactly one
//     read for that shape:
//
//	string -> GET
//	list   -> LRANGE 0 -1
//	set    -> SMEMBERS
//	zset   -> ZRANGE 0 -1
//	hash   -> HGETALL
//	other  -> Absent
//
// Transport failures are reported as *ConnectionError so callers can choose to
// degrade them; replies from the server remain ordinary errors.
package store
