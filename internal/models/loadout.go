package models

import "time"

// ClassType restricts a loadout to one character class. Zero means the
// loadout can be used anywhere.
type ClassType int

const (
	ClassTitan   ClassType = 0
	ClassHunter  ClassType = 1
	ClassWarlock ClassType = 2
	ClassAny     ClassType = 3
)

// LoadoutItem references one item in a loadout.
type LoadoutItem struct {
	// ID is the item instance ID, present only for instanced items.
	ID *string `json:"id,omitempty"`
	// Hash is the item definition hash. Required.
	Hash int64 `json:"hash"`
	// Amount is an optional stack size for consumables.
	Amount *int `json:"amount,omitempty"`
	// SocketOverrides maps a socket index to the definition hash that
	// should be socketed there.
	SocketOverrides map[int]int64 `json:"socketOverrides,omitempty"`
}

// Loadout is a named, ordered set of equipped and unequipped items plus
// optimizer parameters. The ID is chosen by the client and is the upsert key.
type Loadout struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Notes holds optional longform notes about the loadout.
	Notes *string `json:"notes,omitempty"`
	// ClassType restricts which class the loadout applies to.
	ClassType ClassType `json:"classType"`
	// EmblemHash optionally selects an emblem used as the loadout icon.
	EmblemHash *int64 `json:"emblemHash,omitempty"`
	// ClearSpace indicates other items should be moved away when applying.
	ClearSpace bool `json:"clearSpace"`
	// Equipped and Unequipped are ordered; order is preserved verbatim.
	Equipped   []LoadoutItem `json:"equipped"`
	Unequipped []LoadoutItem `json:"unequipped"`
	// Parameters is the optimizer payload, stored verbatim.
	Parameters *LoadoutParameters `json:"parameters,omitempty"`
	// AutoStatMods are stat mods added automatically, kept separate from
	// the manually chosen mods in Parameters.
	AutoStatMods []int64 `json:"autoStatMods,omitempty"`
	// CreatedAt and LastUpdatedAt are managed by the server. Values sent
	// by clients are ignored on write.
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
	LastUpdatedAt *time.Time `json:"lastUpdatedAt,omitempty"`
}

// UpgradeSpendTier is the level of upgrades the user will perform to fit
// mods or hit stats.
//
// Deprecated: superseded by AssumeArmorMasterwork.
type UpgradeSpendTier int

// AssumeArmorMasterwork selects which armor is assumed masterworked by the
// loadout optimizer.
type AssumeArmorMasterwork int

const (
	// AssumeLegendaryMasterwork assumes only legendary armor is masterworked.
	AssumeLegendaryMasterwork AssumeArmorMasterwork = 1
	// AssumeAllMasterwork assumes all armor is masterworked.
	AssumeAllMasterwork AssumeArmorMasterwork = 2
)

// LockArmorEnergyType selects which armor keeps its energy type fixed.
type LockArmorEnergyType int

const (
	// LockMasterworked locks energy type only on masterworked armor.
	LockMasterworked LockArmorEnergyType = 1
	// LockAll locks energy type on all armor.
	LockAll LockArmorEnergyType = 2
)

// StatConstraint bounds the value of one armor stat.
type StatConstraint struct {
	// StatHash is the stat definition hash.
	StatHash int64 `json:"statHash"`
	// MinTier is the minimum tier, 0 if unset.
	MinTier *int `json:"minTier,omitempty"`
	// MaxTier is the maximum tier, 10 if unset.
	MaxTier *int `json:"maxTier,omitempty"`
}

// LoadoutParameters records how a loadout was built and how it should be
// re-applied. All fields are optional on the wire; the payload is stored
// verbatim. Use DefaultLoadoutParameters for the documented defaults.
type LoadoutParameters struct {
	StatConstraints []StatConstraint `json:"statConstraints,omitempty"`
	Mods            []int64          `json:"mods,omitempty"`
	ModsByBucket    map[int64][]int64 `json:"modsByBucket,omitempty"`
	AutoStatMods    *bool            `json:"autoStatMods,omitempty"`
	Query           *string          `json:"query,omitempty"`

	// AssumeMasterworked is superseded by AssumeArmorMasterwork and kept
	// for older clients.
	//
	// Deprecated: use AssumeArmorMasterwork.
	AssumeMasterworked *bool `json:"assumeMasterworked,omitempty"`
	// UpgradeSpendTier is superseded by AssumeArmorMasterwork and kept
	// for older clients.
	//
	// Deprecated: use AssumeArmorMasterwork.
	UpgradeSpendTier *UpgradeSpendTier `json:"upgradeSpendTier,omitempty"`
	// AssumeArmorMasterwork selects assumed-masterwork behavior.
	AssumeArmorMasterwork *AssumeArmorMasterwork `json:"assumeArmorMasterwork,omitempty"`

	ExoticArmorHash *int64 `json:"exoticArmorHash,omitempty"`

	// LockItemEnergyType is superseded by LockArmorEnergyType and kept
	// for older clients.
	//
	// Deprecated: use LockArmorEnergyType.
	LockItemEnergyType *bool `json:"lockItemEnergyType,omitempty"`
	// LockArmorEnergyType selects energy-lock behavior.
	LockArmorEnergyType *LockArmorEnergyType `json:"lockArmorEnergyType,omitempty"`
}

// Normalized returns a copy of p with deprecated fields cleared whenever the
// replacement field is present. Older clients may send both; the
// non-deprecated field wins.
func (p LoadoutParameters) Normalized() LoadoutParameters {
	if p.AssumeArmorMasterwork != nil {
		p.AssumeMasterworked = nil
		p.UpgradeSpendTier = nil
	}
	if p.LockArmorEnergyType != nil {
		p.LockItemEnergyType = nil
	}
	return p
}

// DefaultLoadoutParameters returns the documented defaults to merge under a
// stored parameters payload before use.
func DefaultLoadoutParameters() LoadoutParameters {
	autoStatMods := true
	return LoadoutParameters{
		StatConstraints: []StatConstraint{
			{StatHash: 2996146975}, // Mobility
			{StatHash: 392767087},  // Resilience
			{StatHash: 1943323491}, // Recovery
			{StatHash: 1735777505}, // Discipline
			{StatHash: 144602215},  // Intellect
			{StatHash: 4244567218}, // Strength
		},
		Mods:         []int64{},
		AutoStatMods: &autoStatMods,
	}
}
