package charging

import (
	"fmt"
	"strings"
)

// GameMode selects the host's power rules.
type GameMode uint8

const (
	ModeSurvival GameMode = iota
	ModeFreedom
	ModeHardcore
	ModeCreative
)

var modeNames = [...]string{
	ModeSurvival: "survival",
	ModeFreedom:  "freedom",
	ModeHardcore: "hardcore",
	ModeCreative: "creative",
}

func (m GameMode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("GameMode(%d)", m)
}

// ParseGameMode parses a mode name (case-insensitive).
func ParseGameMode(s string) (GameMode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range modeNames {
		if n == name {
			return GameMode(i), nil
		}
	}
	return ModeSurvival, fmt.Errorf("unknown game mode %q", s)
}

// Frame is the per-tick input to an Arbiter.
type Frame struct {
	TimeScale    float64 // 0 = paused
	Mode         GameMode
	NoPowerCheat bool
}

// Paused reports whether the simulation clock is stopped.
func (f Frame) Paused() bool {
	return f.TimeScale == 0
}

// RequiresPower reports whether power consumption is in effect.
// Creative mode and the no-power cheat exempt the owner from consumption.
func (f Frame) RequiresPower() bool {
	return f.Mode != ModeCreative && !f.NoPowerCheat
}
