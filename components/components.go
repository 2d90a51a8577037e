// Package components defines ECS components for the fleet simulation.
package components

import "github.com/pthm-cable/cyclops-charge/charging"

// Hull identifies a submarine and holds its installed upgrade modules.
type Hull struct {
	ID      uint32
	Name    string
	Modules map[string]int // module kind -> installed count
}

// ModuleCount returns the installed count for a module kind.
func (h *Hull) ModuleCount(module string) int {
	return h.Modules[module]
}

// Environment is the water around a submarine.
type Environment struct {
	Light       float64 // 0-1, set by the day/night cycle
	Temperature float64 // degrees C
	Depth       float64 // metres
	HomeDepth   float64 // depth the sub drifts around
	VentTemp    float64 // extra heat from nearby thermal vents
}

// Ambient converts to the arbiter's ambient snapshot.
func (e *Environment) Ambient() charging.Ambient {
	return charging.Ambient{Light: e.Light, Temperature: e.Temperature, Depth: e.Depth}
}

// Engine consumes power every tick.
type Engine struct {
	Drain    float64 // energy per tick at full throttle
	Throttle float64 // 0-1
}
