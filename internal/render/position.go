package render

import (
	"fmt"
	"strings"
)

// Position is the anchor the watermark text is placed against.
type Position int

const (
	BottomRight Position = iota
	BottomLeft
	TopRight
	TopLeft
	Center
)

var positionNames = map[Position]string{
	TopLeft:     "top-left",
	TopRight:    "top-right",
	BottomLeft:  "bottom-left",
	BottomRight: "bottom-right",
	Center:      "center",
}

func (p Position) String() string {
	if s, ok := positionNames[p]; ok {
		return s
	}
	return fmt.Sprintf("Position(%d)", int(p))
}

// PositionNames lists the accepted position names, for help text.
func PositionNames() []string {
	return []string{"top-left", "top-right", "bottom-left", "bottom-right", "center"}
}

// ParsePosition maps a name such as "bottom-right" to a Position.
// Matching is case-insensitive and accepts '_' in place of '-'.
func ParsePosition(s string) (Position, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for p, name := range positionNames {
		if name == norm {
			return p, nil
		}
	}
	return 0, fmt.Errorf("invalid position %q: must be one of %s", s, strings.Join(PositionNames(), ", "))
}
