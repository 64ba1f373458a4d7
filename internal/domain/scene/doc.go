// Package scene provides the retained-mode drawing surface of the whiteboard.
//
// A Scene is an ordered collection of positioned primitives plus a background
// color. Primitives are a closed set of variants:
//   - Stroke: freehand polyline (pencil and eraser ink)
//   - Rectangle: outline anchored at its top-left corner
//   - Circle: outline anchored at the top-left of its bounding box
//   - Line: segment between two points
//   - Text: positioned text block
//
// Every primitive has a stable ULID-based identity (prim_*). The scene is the
// single shared resource of the board: the interactive tool machine and the
// AI playback scheduler both write to it, so all access goes through an
// RWMutex and every read returns a copy.
//
// Observers receive an Event after each committed change, outside the lock,
// which is how board changes reach connected stream clients.
//
// Example Usage:
//
//	s := scene.New(scene.Options{Width: 800, Height: 600, Theme: scene.ThemeDefault})
//	pid := s.Add(&scene.Rectangle{Width: 40, Height: 60})
//	snap := s.Snapshot()
//	s.Reset()
package scene
