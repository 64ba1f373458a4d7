// Package tools implements the interactive drawing tools.
//
// The Machine receives pointer events and the user's tool selection and
// turns them into scene mutations:
//   - pencil and eraser capture freehand strokes; the eraser paints in the
//     background color at twice the brush width
//   - rectangle and circle are created at pointer-down and sized by dragging
//   - text places an editable "Type here" block
//
// State Machine:
//
//	Idle --down(pencil|eraser)--> Inking --up--> Idle
//	Idle --down(rectangle|circle)--> Drawing --up--> Idle
//	Idle --down(text)--> TextEditing --up--> Idle
//
// Pointer-down is refused with ErrToolsLocked while the configured Lock is
// busy, which keeps the user and the AI from drawing at the same time.
package tools
