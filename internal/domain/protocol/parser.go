package protocol

import (
	"regexp"
	"strconv"
	"strings"
)

// LineKind classifies one reply line
type LineKind int

const (
	LineBlank LineKind = iota
	LineNarration
	LineInstruction
	LineDropped
)

// String returns the string representation of the line kind
func (k LineKind) String() string {
	switch k {
	case LineBlank:
		return "blank"
	case LineNarration:
		return "narration"
	case LineInstruction:
		return "instruction"
	case LineDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// Stats counts what the parser did with a reply
type Stats struct {
	Lines          int `json:"lines"`
	Instructions   int `json:"instructions"`
	NarrationLines int `json:"narration_lines"`
	Dropped        int `json:"dropped"`
}

// Script is a parsed reply: drawing steps in document order plus the
// narration to be spoken after them.
type Script struct {
	Instructions []Instruction `json:"instructions"`
	Narration    string        `json:"narration"`
	Stats        Stats         `json:"stats"`
}

// Patterns are anchored at the tag; trailing text after the color is ignored.
var (
	textPattern      = regexp.MustCompile(`^DRAW_TEXT:\s*"([^"]+)"\s+AT\s+(\d+)\s*,\s*(\d+)\s+SIZE\s+(\d+)\s+COLOR\s+(#?\w+)`)
	rectanglePattern = regexp.MustCompile(`^DRAW_RECTANGLE:\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s+COLOR\s+(#?\w+)`)
	circlePattern    = regexp.MustCompile(`^DRAW_CIRCLE:\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s+COLOR\s+(#?\w+)`)
	linePattern      = regexp.MustCompile(`^DRAW_LINE:\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s+COLOR\s+(#?\w+)`)
)

// Parse scans a language-model reply. Lines that match an instruction
// pattern become instructions; other non-empty lines become narration.
// Lines reserved for instructions (DRAW_ prefix) that fail to parse are
// dropped without error so one bad line never aborts the rest of the reply.
func Parse(reply string) Script {
	var (
		script    Script
		narration strings.Builder
	)

	for _, raw := range strings.Split(reply, "\n") {
		line := strings.TrimRight(raw, "\r")
		script.Stats.Lines++

		instr, kind := ParseLine(line)
		switch kind {
		case LineInstruction:
			script.Instructions = append(script.Instructions, instr)
			script.Stats.Instructions++
		case LineNarration:
			narration.WriteString(line)
			narration.WriteByte(' ')
			script.Stats.NarrationLines++
		case LineDropped:
			script.Stats.Dropped++
		case LineBlank:
		}
	}

	script.Narration = strings.TrimSpace(narration.String())
	return script
}

// ParseLine classifies a single line and parses it when it is an instruction
func ParseLine(line string) (Instruction, LineKind) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil, LineBlank
	}
	if !strings.HasPrefix(trimmed, tagPrefix) {
		return nil, LineNarration
	}

	var (
		instr Instruction
		ok    bool
	)
	switch {
	case strings.HasPrefix(trimmed, string(TagText)+":"):
		instr, ok = parseText(trimmed)
	case strings.HasPrefix(trimmed, string(TagRectangle)+":"):
		instr, ok = parseRectangle(trimmed)
	case strings.HasPrefix(trimmed, string(TagCircle)+":"):
		instr, ok = parseCircle(trimmed)
	case strings.HasPrefix(trimmed, string(TagLine)+":"):
		instr, ok = parseLine(trimmed)
	}
	if !ok {
		return nil, LineDropped
	}
	return instr, LineInstruction
}

func parseText(line string) (Instruction, bool) {
	m := textPattern.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	n, ok := atoiAll(m[2], m[3], m[4])
	if !ok {
		return nil, false
	}
	return DrawText{Text: m[1], X: n[0], Y: n[1], Size: n[2], Color: m[5]}, true
}

func parseRectangle(line string) (Instruction, bool) {
	m := rectanglePattern.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	n, ok := atoiAll(m[1], m[2], m[3], m[4])
	if !ok {
		return nil, false
	}
	return DrawRectangle{X: n[0], Y: n[1], W: n[2], H: n[3], Color: m[5]}, true
}

func parseCircle(line string) (Instruction, bool) {
	m := circlePattern.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	n, ok := atoiAll(m[1], m[2], m[3])
	if !ok {
		return nil, false
	}
	return DrawCircle{X: n[0], Y: n[1], R: n[2], Color: m[4]}, true
}

func parseLine(line string) (Instruction, bool) {
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	n, ok := atoiAll(m[1], m[2], m[3], m[4])
	if !ok {
		return nil, false
	}
	return DrawLine{X1: n[0], Y1: n[1], X2: n[2], Y2: n[3], Color: m[5]}, true
}

// atoiAll fails on overflow as well as on syntax
func atoiAll(fields ...string) ([]int, bool) {
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
