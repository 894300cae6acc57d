package types

import "fmt"

// The structured blobs below are the extensible halves of the entity rows.
// They are serialized as JSON with deterministic field order; readers must
// tolerate unknown fields, which encoding/json does by default.

// AccountProto holds the extensible account fields.
type AccountProto struct {
	Banked Inventory `json:"banked,omitempty"`
}

// CharacterProto holds the extensible character fields.
type CharacterProto struct {
	Vehicle    string        `json:"vehicle"`
	Fitments   []string      `json:"fitments,omitempty"`
	Movement   *Movement     `json:"movement,omitempty"`
	Combat     CombatData    `json:"combat"`
	Mining     *Mining       `json:"mining,omitempty"`
	Effects    AttackEffects `json:"effects,omitempty"`
	Speed      int64         `json:"speed"`
	CargoSpace int64         `json:"cargo_space"`
	Inventory  Inventory     `json:"inventory,omitempty"`
	OngoingID  int64         `json:"ongoing_id,omitempty"`
	Refining   bool          `json:"refining,omitempty"`
}

// BuildingConfig is the owner-adjustable building configuration.
type BuildingConfig struct {
	ServiceFeePct int `json:"service_fee_pct,omitempty"`
	DexFeePct     int `json:"dex_fee_pct,omitempty"`
}

// BuildingProto holds the extensible building fields.
type BuildingProto struct {
	Foundation            bool           `json:"foundation,omitempty"`
	ConstructionInventory Inventory      `json:"construction_inventory,omitempty"`
	Rotation              int            `json:"rotation,omitempty"`
	OngoingConstructionID int64          `json:"ongoing_construction_id,omitempty"`
	Config                BuildingConfig `json:"config,omitempty"`
	Combat                CombatData     `json:"combat,omitempty"`
	Effects               AttackEffects  `json:"effects,omitempty"`
}

// ProspectionResult records who prospected a region, when, and what it
// turned up.
type ProspectionResult struct {
	Name     string `json:"name"`
	Height   uint64 `json:"height"`
	Resource string `json:"resource,omitempty"`
}

// RegionProto holds the extensible region fields.
type RegionProto struct {
	ProspectingCharacter int64              `json:"prospecting_character,omitempty"`
	Prospection          *ProspectionResult `json:"prospection,omitempty"`
}

// Ongoing-operation variants. OngoingProto is a tagged union: exactly one
// variant pointer is set. An unknown or empty tag is a fatal invariant
// failure when dispatched.

// ProspectionOp finalises into the region's prospection result.
type ProspectionOp struct {
	RegionID int64 `json:"region_id"`
}

// ArmourRepairOp refills the character's armour on completion.
type ArmourRepairOp struct{}

// BlueprintCopyOp returns the original plus the finished copies to the
// account's inventory in the building where copying runs.
type BlueprintCopyOp struct {
	BuildingID int64  `json:"building_id"`
	Account    string `json:"account"`
	Original   string `json:"original"`
	Copies     int64  `json:"copies"`
}

// ItemConstructionOp emits constructed items. From an original blueprint one
// item is produced per scheduled step; from copies all items finish at once.
type ItemConstructionOp struct {
	BuildingID   int64  `json:"building_id"`
	Account      string `json:"account"`
	Blueprint    string `json:"blueprint"`
	Output       string `json:"output"`
	Remaining    int64  `json:"remaining"`
	StepBlocks   int64  `json:"step_blocks,omitempty"`
	FromOriginal bool   `json:"from_original,omitempty"`
}

// BuildingConstructionOp promotes a foundation to a finished building.
type BuildingConstructionOp struct {
	BuildingID int64 `json:"building_id"`
}

// BuildingConfigUpdateOp atomically swaps in a new building configuration.
type BuildingConfigUpdateOp struct {
	BuildingID int64          `json:"building_id"`
	NewConfig  BuildingConfig `json:"new_config"`
}

// OngoingProto is the tagged union of all ongoing-operation variants.
type OngoingProto struct {
	Prospection          *ProspectionOp          `json:"prospection,omitempty"`
	ArmourRepair         *ArmourRepairOp         `json:"armour_repair,omitempty"`
	BlueprintCopy        *BlueprintCopyOp        `json:"blueprint_copy,omitempty"`
	ItemConstruction     *ItemConstructionOp     `json:"item_construction,omitempty"`
	BuildingConstruction *BuildingConstructionOp `json:"building_construction,omitempty"`
	BuildingConfigUpdate *BuildingConfigUpdateOp `json:"building_config_update,omitempty"`
}

// Case names the variant set on the union. Zero or multiple set variants
// are invariant failures.
func (o *OngoingProto) Case() string {
	cases := 0
	name := ""
	if o.Prospection != nil {
		cases++
		name = "prospection"
	}
	if o.ArmourRepair != nil {
		cases++
		name = "armour_repair"
	}
	if o.BlueprintCopy != nil {
		cases++
		name = "blueprint_copy"
	}
	if o.ItemConstruction != nil {
		cases++
		name = "item_construction"
	}
	if o.BuildingConstruction != nil {
		cases++
		name = "building_construction"
	}
	if o.BuildingConfigUpdate != nil {
		cases++
		name = "building_config_update"
	}
	if cases != 1 {
		panic(fmt.Sprintf("ongoing operation with %d variants set", cases))
	}
	return name
}
