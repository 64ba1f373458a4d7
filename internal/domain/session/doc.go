// Package session tracks AI teaching sessions on the whiteboard.
//
// The Guard is the single source of truth for "is the AI busy". It is shared
// by the teaching service, which claims it for the lifetime of a request,
// and by the tool machine, which refuses pointer input while it is held.
//
// Lifecycle:
//  1. Begin claims the guard atomically or fails with ErrBusy
//  2. SetPhase moves the session through thinking, drawing and speaking
//  3. End releases the guard and records the outcome
//
// Cancel aborts the running session by canceling the context Begin returned.
//
// Example Usage:
//
//	ctx, s, err := guard.Begin(ctx, prompt)
//	if err != nil {
//	    return err
//	}
//	defer guard.End(s.ID, session.OutcomeFailed, nil)
package session
