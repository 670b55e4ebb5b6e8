// Package engine owns the UI context: the single goroutine on which every
// read or mutation of the UI tree and every move of the virtual clock runs.
//
// ARCHITECTURE:
//
// Single-Writer Task Loop:
// Callers (HTTP handlers, the recorder, tests) never touch the UI directly.
// They submit a task with Do and wait for its result. Engine.Run dequeues
// tasks one at a time in FIFO order and executes them to completion before
// starting the next one. This gives:
// - A well-defined "idle" state between tasks
// - Frames that reflect exactly the mutations that preceded them
// - No locking on the UI tree itself
//
// Task Flow:
// 1. Do() enqueues a task and blocks on its done channel
// 2. Run() dequeues it, stamps it with the next sequence number
// 3. The task function runs; a panic is recovered into a *PanicError
// 4. The result is delivered to the waiting caller
//
// Blocking inside a task (waiting for an encoder process, polling for a
// node) blocks the whole UI context. That is intended: expected durations
// are short and nothing else may observe the tree meanwhile.
package engine
