package director

import "fmt"

// StyleRole is the closed set of roles a generated scene can play.
type StyleRole string

const (
	RoleHook     StyleRole = "hook"
	RoleNumbered StyleRole = "numbered"
	RoleCTA      StyleRole = "cta"
)

// LocationPin is prefixed to every numbered scene.
const LocationPin = "📍"

var styleTable = map[StyleRole]TextStyle{
	RoleHook: {
		Role:       RoleHook,
		FontFamily: "Inter",
		FontSize:   72,
		FontWeight: "bold",
		Color:      "#FFFFFF",
		Shadow:     "0 4px 12px rgba(0,0,0,0.6)",
		Position:   PositionCenter,
		Alignment:  AlignCenter,
	},
	RoleNumbered: {
		Role:          RoleNumbered,
		FontFamily:    "Inter",
		FontSize:      60,
		FontWeight:    "bold",
		Color:         "#FFFFFF",
		Shadow:        "0 3px 8px rgba(0,0,0,0.6)",
		Emoji:         LocationPin,
		EmojiPosition: EmojiBefore,
		Position:      PositionBottom,
		Alignment:     AlignLeft,
	},
	RoleCTA: {
		Role:       RoleCTA,
		FontFamily: "Inter",
		FontSize:   56,
		FontWeight: "semibold",
		Color:      "#FFE66D",
		Shadow:     "0 3px 8px rgba(0,0,0,0.6)",
		Position:   PositionCenter,
		Alignment:  AlignCenter,
	},
}

// StyleFor returns a fresh copy of the role's style so callers may edit it freely.
func StyleFor(role StyleRole) (*TextStyle, error) {
	st, ok := styleTable[role]
	if !ok {
		return nil, fmt.Errorf("unknown style role %q", role)
	}
	return &st, nil
}

func mustStyle(role StyleRole) *TextStyle {
	st, err := StyleFor(role)
	if err != nil {
		panic(err)
	}
	return st
}
