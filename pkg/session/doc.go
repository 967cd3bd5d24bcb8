// Package session models visitor sessions and their persistence.
//
// A [Session] carries general values and a dedicated flash slot. The flash
// slot holds a one-shot payload: [Session.PutFlash] stores it at the end of a
// request and [Session.TakeFlash] removes it at the start of the next one.
//
// Once [Session.Invalidate] is called, reads return nothing and writes are
// ignored; [Session.PutFlash] reports [ErrInvalidated] so callers can log the
// dropped payload.
//
// Two [Store] implementations are provided: [MemoryStore] for tests and
// single-instance deployments, and [RedisStore] over go-redis.
package session
