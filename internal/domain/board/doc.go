// Package board ties the whiteboard together.
//
// A Board owns one scene and the two producers that mutate it: the tool
// machine driven by pointer input, and the teaching service that replays
// model replies. Both share a session guard, so manual tools can be locked
// while a lesson is processing. Every committed change is published to
// subscribers as an Event, which the WebSocket hub fans out to clients.
package board
