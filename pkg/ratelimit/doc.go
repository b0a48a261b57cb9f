// Package ratelimit provides the request limiters used by the API clients.
//
// Available implementations:
//
//   - TokenBucket refills to capacity once per period. Guards Yandex.Disk
//     control calls.
//   - SlidingWindow admits at most N requests in any window. Guards the VK
//     API, which allows three calls per second per token.
//   - FixedInterval spaces consecutive events by a fixed delay. Paces
//     upload attempts.
//
// All of them implement Limiter; Wait returns early with ctx.Err() when the
// context ends.
package ratelimit
