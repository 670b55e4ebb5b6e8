// Package driver turns requests into work on the UI context.
//
// It has three parts:
//
// Resolution: a *ui.Selector built from request parameters is resolved
// against every root of the live tree. A nil selector means the root set;
// operations needing one node then use the first root.
//
// Execution: Perform brackets an action with idle waits on the UI context.
// When a recording session is active, a frame is sampled right before and
// right after, so session video shows every state transition without a
// background sampling loop.
//
// Sequencing: Capture pauses the clock's auto-advance, runs the action
// once and then alternates screenshot and clock step until the requested
// duration is covered. Animate hands those frames to the encoder.
package driver
