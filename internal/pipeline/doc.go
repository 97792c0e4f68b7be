// Package pipeline runs a phase's units of work over a bounded pool.
//
// Both phases have the same shape: a list of string items (search terms,
// then identifiers), an independent unit of work per item, and one
// consumer that folds results into shared state (the identifier union,
// the output file). Batch captures that shape once, generic over the
// result type.
//
// Design decision: work never returns an error. A unit that fails is a
// result like any other, recorded by the result type, so one bad item
// can never abort its siblings. The only way Run fails is cancellation,
// which makes interrupt handling at the call site a single error check.
//
// Concurrency control uses errgroup with SetLimit; results are delivered
// to the caller's goroutine in completion order, so collectors are
// single-threaded and need no locks.
package pipeline
