// Package gamecfg loads the read-only game configuration: vehicle, fitment,
// building, item and prize tables plus the global tuning constants. The
// configuration is embedded in the binary, parsed once and treated as an
// immutable value passed through the pipeline context. It is part of the
// consensus surface: two nodes with different tables will diverge.
package gamecfg

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/hexfront/hexfront/internal/hexgrid"
	"github.com/hexfront/hexfront/internal/types"
)

//go:embed data/config.yaml
var embedded []byte

// Constants are the global tuning knobs.
type Constants struct {
	// DamageListWindow is the number of blocks an attacker stays credited
	// on a victim's damage list.
	DamageListWindow uint64 `yaml:"damage_list_window"`
	// CharacterLimit caps characters per account.
	CharacterLimit int `yaml:"character_limit"`
	// ProspectingBlocks is how long a prospection keeps a character busy.
	ProspectingBlocks int `yaml:"prospecting_blocks"`
	// BlockedTurnsLimit is how many blocked turns a mover tolerates before
	// its cached step list is invalidated and recomputed.
	BlockedTurnsLimit int `yaml:"blocked_turns_limit"`
	// VehicleBlockPenalty is the extra edge weight paid for stepping onto
	// a tile occupied by a vehicle once vehicles stop hard-blocking.
	VehicleBlockPenalty int64 `yaml:"vehicle_block_penalty"`
	// EquippedFitmentDropPercent is the chance each equipped fitment drops
	// when its character dies.
	EquippedFitmentDropPercent int `yaml:"equipped_fitment_drop_percent"`
	// BuildingInventoryDropPercent is the per-pile drop chance when a
	// building is destroyed.
	BuildingInventoryDropPercent int `yaml:"building_inventory_drop_percent"`
	// StarterWeightDivisor divides the edge weight for same-faction
	// movement inside a starter zone.
	StarterWeightDivisor int64 `yaml:"starter_weight_divisor"`
	// KillFame is the fame pool split among the attackers of a kill.
	KillFame int64 `yaml:"kill_fame"`
	// StarterVehicle is the vehicle every new character spawns with.
	StarterVehicle string `yaml:"starter_vehicle"`
	// EnterBuildingRange is the maximum L1 distance from a building centre
	// at which a pending entry succeeds.
	EnterBuildingRange int `yaml:"enter_building_range"`
	// NodeSearchBudget caps how many nodes one path search may expand
	// before it reports failure. Consensus-relevant: the cap decides which
	// waypoints count as unreachable.
	NodeSearchBudget int `yaml:"node_search_budget"`
	// RegionResources bounds the resource amount rolled for a freshly
	// prospected region.
	RegionResources types.MinMax `yaml:"region_resources"`
}

// Vehicle is a playable hull.
type Vehicle struct {
	Speed        int64              `yaml:"speed"`
	Cargo        int64              `yaml:"cargo"`
	Size         int                `yaml:"size"`
	Armour       int64              `yaml:"armour"`
	Shield       int64              `yaml:"shield"`
	ArmourRegen  int64              `yaml:"armour_regen_mhp"`
	ShieldRegen  int64              `yaml:"shield_regen_mhp"`
	FitmentSlots int                `yaml:"fitment_slots"`
	Mining       *types.MinMax      `yaml:"mining,omitempty"`
	Prospecting  bool               `yaml:"prospecting,omitempty"`
	Attacks      []types.Attack     `yaml:"attacks,omitempty"`
	LowHPBoosts  []types.LowHPBoost `yaml:"low_hp_boosts,omitempty"`
}

// Fitment is an equippable module. Additive fields extend the hull's flat
// stats; percent fields scale derived stats; an optional attack adds a
// weapon.
type Fitment struct {
	ArmourAdd    int64              `yaml:"armour_add,omitempty"`
	ShieldAdd    int64              `yaml:"shield_add,omitempty"`
	SpeedPct     int                `yaml:"speed_pct,omitempty"`
	CargoPct     int                `yaml:"cargo_pct,omitempty"`
	DamagePct    int                `yaml:"damage_pct,omitempty"`
	RangePct     int                `yaml:"range_pct,omitempty"`
	HitChancePct int                `yaml:"hit_chance_pct,omitempty"`
	Attack       *types.Attack      `yaml:"attack,omitempty"`
	LowHPBoost   *types.LowHPBoost  `yaml:"low_hp_boost,omitempty"`
}

// Building is a constructible or map-seeded structure type.
type Building struct {
	// Shape lists the tiles covered relative to the centre, before
	// rotation. The centre (0,0) must be included.
	Shape       []hexgrid.Coord    `yaml:"shape"`
	Armour      int64              `yaml:"armour"`
	Shield      int64              `yaml:"shield"`
	ArmourRegen int64              `yaml:"armour_regen_mhp"`
	ShieldRegen int64              `yaml:"shield_regen_mhp"`
	Size        int                `yaml:"size"`
	Attacks     []types.Attack     `yaml:"attacks,omitempty"`
	LowHPBoosts []types.LowHPBoost `yaml:"low_hp_boosts,omitempty"`
	// Construction is nil for ancient-only buildings.
	Construction *Construction `yaml:"construction,omitempty"`
}

// Construction describes how a building type is built by players.
type Construction struct {
	Cost   map[string]int64 `yaml:"cost"`
	Blocks int              `yaml:"blocks"`
}

// Item is a tradable, storable good.
type Item struct {
	Space int64 `yaml:"space"`
	// Complexity is the per-item construction time in blocks for items
	// built from blueprints; zero for raw goods.
	Complexity int `yaml:"complexity,omitempty"`
}

// Prize is a prospecting prize with a global availability cap.
type Prize struct {
	Name string `yaml:"name"`
	// Number is the global cap on how many of this prize can be found.
	Number int64 `yaml:"number"`
	// Probability is the 1-in-N chance per prospection in normal zones.
	Probability int `yaml:"probability"`
	// LowProbability replaces Probability inside low-prize zones.
	LowProbability int `yaml:"low_probability"`
}

// ItemName returns the inventory item a found prize turns into.
func (p Prize) ItemName() string {
	return p.Name + " prize"
}

// InitialBuilding seeds the map with an ancient structure at game genesis.
type InitialBuilding struct {
	Type     string `yaml:"type"`
	X        int    `yaml:"x"`
	Y        int    `yaml:"y"`
	Rotation int    `yaml:"rotation"`
}

// Config is the complete read-only configuration.
type Config struct {
	Constants        Constants                  `yaml:"constants"`
	Vehicles         map[string]*Vehicle        `yaml:"vehicles"`
	Fitments         map[string]*Fitment        `yaml:"fitments"`
	Buildings        map[string]*Building       `yaml:"buildings"`
	Items            map[string]*Item           `yaml:"items"`
	Resources        []string                   `yaml:"resources"`
	Prizes           []Prize                    `yaml:"prizes"`
	InitialBuildings []InitialBuilding          `yaml:"initial_buildings"`
	// Constructibles maps an output item to the blueprint base name used
	// to build it. The original blueprint is "<base> bpo", copies are
	// "<base> bpc".
	Constructibles map[string]string `yaml:"constructibles"`
}

// BuildingTiles returns the tiles covered by a building of the given type
// at the centre with the rotation applied.
func (c *Config) BuildingTiles(typ string, centre hexgrid.Coord, rotation int) []hexgrid.Coord {
	b, ok := c.Buildings[typ]
	if !ok {
		panic(fmt.Sprintf("gamecfg: unknown building type %q", typ))
	}
	tiles := make([]hexgrid.Coord, 0, len(b.Shape))
	for _, off := range b.Shape {
		tiles = append(tiles, centre.Add(off.Rotate60(rotation)))
	}
	return tiles
}

// BlueprintOriginal and BlueprintCopy derive the item names of a blueprint
// base.
func BlueprintOriginal(base string) string { return base + " bpo" }
func BlueprintCopy(base string) string { return base + " bpc" }

// Load parses and validates the embedded configuration.
func Load() (*Config, error) {
	return Parse(embedded)
}

// MustLoad is Load for contexts where a broken embedded config is fatal
// anyway (daemon startup, tests).
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("gamecfg: %v", err))
	}
	return cfg
}

// Parse parses and validates a configuration document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse game config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate game config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	k := c.Constants
	switch {
	case k.DamageListWindow == 0:
		return fmt.Errorf("damage_list_window must be positive")
	case k.CharacterLimit <= 0:
		return fmt.Errorf("character_limit must be positive")
	case k.ProspectingBlocks <= 0:
		return fmt.Errorf("prospecting_blocks must be positive")
	case k.StarterWeightDivisor <= 0:
		return fmt.Errorf("starter_weight_divisor must be positive")
	case k.EquippedFitmentDropPercent < 0 || k.EquippedFitmentDropPercent > 100:
		return fmt.Errorf("equipped_fitment_drop_percent out of range")
	case k.BuildingInventoryDropPercent < 0 || k.BuildingInventoryDropPercent > 100:
		return fmt.Errorf("building_inventory_drop_percent out of range")
	case k.NodeSearchBudget <= 0:
		return fmt.Errorf("node_search_budget must be positive")
	case k.RegionResources.Min <= 0 || k.RegionResources.Max < k.RegionResources.Min:
		return fmt.Errorf("region_resources interval invalid")
	}

	if _, ok := c.Vehicles[k.StarterVehicle]; !ok {
		return fmt.Errorf("starter vehicle %q not in vehicle table", k.StarterVehicle)
	}
	for name, v := range c.Vehicles {
		if v.Speed <= 0 {
			return fmt.Errorf("vehicle %q: speed must be positive", name)
		}
		if v.Armour <= 0 {
			return fmt.Errorf("vehicle %q: armour must be positive", name)
		}
		if err := validAttacks(v.Attacks); err != nil {
			return fmt.Errorf("vehicle %q: %w", name, err)
		}
	}
	for name, f := range c.Fitments {
		if f.Attack != nil {
			if err := validAttacks([]types.Attack{*f.Attack}); err != nil {
				return fmt.Errorf("fitment %q: %w", name, err)
			}
		}
		if _, ok := c.Items[name]; !ok {
			return fmt.Errorf("fitment %q has no item entry", name)
		}
	}
	for name, b := range c.Buildings {
		if len(b.Shape) == 0 {
			return fmt.Errorf("building %q: empty shape", name)
		}
		centre := false
		for _, t := range b.Shape {
			if t == (hexgrid.Coord{}) {
				centre = true
			}
		}
		if !centre {
			return fmt.Errorf("building %q: shape misses centre tile", name)
		}
		if err := validAttacks(b.Attacks); err != nil {
			return fmt.Errorf("building %q: %w", name, err)
		}
		if b.Construction != nil && b.Construction.Blocks <= 0 {
			return fmt.Errorf("building %q: construction blocks must be positive", name)
		}
	}
	for _, r := range c.Resources {
		if _, ok := c.Items[r]; !ok {
			return fmt.Errorf("resource %q has no item entry", r)
		}
	}
	for _, p := range c.Prizes {
		if p.Number <= 0 || p.Probability <= 0 || p.LowProbability <= 0 {
			return fmt.Errorf("prize %q misconfigured", p.Name)
		}
		if _, ok := c.Items[p.ItemName()]; !ok {
			return fmt.Errorf("prize item %q has no item entry", p.ItemName())
		}
	}
	for output, base := range c.Constructibles {
		item, ok := c.Items[output]
		if !ok {
			return fmt.Errorf("constructible output %q has no item entry", output)
		}
		if item.Complexity <= 0 {
			return fmt.Errorf("constructible output %q needs positive complexity", output)
		}
		for _, bp := range []string{BlueprintOriginal(base), BlueprintCopy(base)} {
			if _, ok := c.Items[bp]; !ok {
				return fmt.Errorf("blueprint item %q has no item entry", bp)
			}
		}
	}
	for _, ib := range c.InitialBuildings {
		if _, ok := c.Buildings[ib.Type]; !ok {
			return fmt.Errorf("initial building type %q unknown", ib.Type)
		}
		if ib.Rotation < 0 || ib.Rotation > 5 {
			return fmt.Errorf("initial building rotation %d out of range", ib.Rotation)
		}
	}
	return nil
}

func validAttacks(attacks []types.Attack) error {
	for i, a := range attacks {
		if a.Range == 0 && a.Area == 0 {
			return fmt.Errorf("attack %d has neither range nor area", i)
		}
		if a.Damage.Min < 0 || a.Damage.Max < a.Damage.Min {
			return fmt.Errorf("attack %d damage interval invalid", i)
		}
		if a.Range > 0 && a.WeaponSize <= 0 {
			return fmt.Errorf("attack %d needs a weapon size for hit rolls", i)
		}
	}
	return nil
}
