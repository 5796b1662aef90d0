package refdata

import (
	"errors"
	"fmt"
	"strings"

	"github.com/windwatts/curtailment-mining-watcher/database/models/settlement"
	"gorm.io/gorm"
)

// ErrEmptyRegistry means the BMU reference mapping has not been imported.
// A run cannot attribute records without it, so this is fatal at startup.
var ErrEmptyRegistry = errors.New("wind farm registry is empty")

var windFuelTypes = map[string]bool{
	"WIND": true,
}

// Registry is the read-only BMU to wind-farm mapping, loaded once per run and
// cached for its lifetime.
type Registry struct {
	farms map[string]settlement.WindFarm
}

// LoadRegistry loads every wind-fueled BMU from the store.
func LoadRegistry(db *gorm.DB) (*Registry, error) {
	var farms []settlement.WindFarm
	if err := db.Find(&farms).Error; err != nil {
		return nil, fmt.Errorf("fail to load wind farm registry %w", err)
	}
	reg := &Registry{farms: make(map[string]settlement.WindFarm, len(farms))}
	for _, f := range farms {
		if !windFuelTypes[strings.ToUpper(f.FuelType)] {
			continue
		}
		reg.farms[f.BMUID] = f
	}
	if len(reg.farms) == 0 {
		return nil, ErrEmptyRegistry
	}
	return reg, nil
}

// NewRegistry builds a registry from farms directly, for tests and imports.
func NewRegistry(farms []settlement.WindFarm) *Registry {
	reg := &Registry{farms: make(map[string]settlement.WindFarm, len(farms))}
	for _, f := range farms {
		reg.farms[f.BMUID] = f
	}
	return reg
}

// Lookup returns the farm mapped to a unit.
func (r *Registry) Lookup(bmuID string) (settlement.WindFarm, bool) {
	f, ok := r.farms[bmuID]
	return f, ok
}

// Len returns the number of mapped units.
func (r *Registry) Len() int {
	return len(r.farms)
}
