// Package protocol implements the line-oriented drawing protocol embedded in
// language-model replies.
//
// Four tags are recognized, one instruction per line:
//
//	DRAW_TEXT: "Pythagorean Theorem" AT 50,50 SIZE 24 COLOR blue
//	DRAW_RECTANGLE: 100,100,200,150 COLOR red
//	DRAW_CIRCLE: 300,200,50 COLOR green
//	DRAW_LINE: 0,0,800,600 COLOR black
//
// Every other non-empty line is narration. Lines that start with DRAW_ but do
// not parse are dropped silently: replies are free text from an unreliable
// source and a single malformed line must not cost the rest of the lesson.
//
// Numbers are non-negative integers. Colors are opaque tokens; resolving them
// is left to the scene.
package protocol
