package sim

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/cyclops-charge/charging"
	"github.com/pthm-cable/cyclops-charge/components"
)

// sub binds one submarine entity to the charging interfaces.
// Components are looked up on every call so the arbiter never holds a
// pointer into ECS storage.
type sub struct {
	fleet  *Fleet
	entity ecs.Entity
	id     uint32
	name   string
}

func (s *sub) hull() *components.Hull { return s.fleet.hullMap.Get(s.entity) }
func (s *sub) cells() *components.PowerCells { return s.fleet.cellsMap.Get(s.entity) }
func (s *sub) env() *components.Environment { return s.fleet.envMap.Get(s.entity) }
func (s *sub) engine() *components.Engine { return s.fleet.engineMap.Get(s.entity) }

// Owner

func (s *sub) Name() string { return s.name }

func (s *sub) Ambient() charging.Ambient { return s.env().Ambient() }

func (s *sub) ModuleCount(module string) int { return s.hull().ModuleCount(module) }

// EnergyPool

func (s *sub) CurrentEnergy() float64 { return s.cells().CurrentEnergy() }

func (s *sub) MaxEnergy() float64 { return s.cells().MaxEnergy() }

func (s *sub) AddEnergy(amount float64) float64 { return s.cells().AddEnergy(amount) }
