package lancer

import "strings"

// ActorType identifies the kind of actor document.
type ActorType string

const (
	ActorMech       ActorType = "mech"
	ActorNPC        ActorType = "npc"
	ActorPilot      ActorType = "pilot"
	ActorDeployable ActorType = "deployable"
)

// ItemType identifies the kind of item document.
type ItemType string

const (
	ItemNPCFeature ItemType = "npc_feature"
	ItemMechSystem ItemType = "mech_system"
	ItemMechWeapon ItemType = "mech_weapon"
	ItemPilotGear  ItemType = "pilot_gear"
	ItemTalent     ItemType = "talent"
	ItemCoreBonus  ItemType = "core_bonus"
)

// GoblinFrameLID is the frame whose pilots get +1 accuracy on tech attacks.
const GoblinFrameLID = "mf_goblin"

// Tag lids with a rules effect in the attack flows.
const (
	TagRecharge   = "tg_recharge"
	TagAccurate   = "tg_accurate"
	TagInaccurate = "tg_inaccurate"
	TagSeeking    = "tg_seeking"
	TagLimited    = "tg_limited"
	TagUnique     = "tg_unique"
)

// Actor is an actor document.
type Actor struct {
	UUID   string      `json:"uuid"`
	Name   string      `json:"name"`
	Type   ActorType   `json:"type"`
	System ActorSystem `json:"system"`
}

// ActorSystem holds the game statistics of an actor.
type ActorSystem struct {
	TechAttack int     `json:"tech_attack"`
	Tier       int     `json:"tier,omitempty"`
	EDefense   int     `json:"edef"`
	Evasion    int     `json:"evasion"`
	Loadout    Loadout `json:"loadout"`
}

// Loadout holds the equipped frame for mechs.
type Loadout struct {
	Frame *FrameRef `json:"frame,omitempty"`
}

// FrameRef identifies the frame a mech is built on.
type FrameRef struct {
	LID string `json:"lid"`
}

// IsMech reports whether the actor is a mech.
func (a Actor) IsMech() bool { return a.Type == ActorMech }

// IsNPC reports whether the actor is an NPC.
func (a Actor) IsNPC() bool { return a.Type == ActorNPC }

// FrameLID returns the frame lid of a mech, or "" when none is equipped.
func (a Actor) FrameLID() string {
	if a.System.Loadout.Frame == nil {
		return ""
	}
	return a.System.Loadout.Frame.LID
}

// Item is an item document owned by an actor.
type Item struct {
	UUID      string     `json:"uuid"`
	Name      string     `json:"name"`
	Type      ItemType   `json:"type"`
	ActorUUID string     `json:"actor_uuid,omitempty"`
	System    ItemSystem `json:"system"`
}

// ItemSystem holds the rules data of an item. Accuracy and AttackBonus are
// indexed by tier for NPC features.
type ItemSystem struct {
	Tags         []Tag    `json:"tags,omitempty"`
	Charged      bool     `json:"charged"`
	TierOverride int      `json:"tier_override,omitempty"`
	Accuracy     []int    `json:"accuracy,omitempty"`
	AttackBonus  []int    `json:"attack_bonus,omitempty"`
	Effect       string   `json:"effect,omitempty"`
	Actions      []Action `json:"actions,omitempty"`
}

// IsRecharge reports whether the item carries a recharge tag.
func (i Item) IsRecharge() bool {
	for _, tag := range i.System.Tags {
		if tag.IsRecharge() {
			return true
		}
	}
	return false
}

// Tag is a rules keyword attached to an item or attack.
type Tag struct {
	LID string `json:"lid"`
	Val string `json:"val,omitempty"`
}

// IsRecharge reports whether the tag is recharge.
func (t Tag) IsRecharge() bool { return t.is(TagRecharge) }

// IsAccurate reports whether the tag is accurate.
func (t Tag) IsAccurate() bool { return t.is(TagAccurate) }

// IsInaccurate reports whether the tag is inaccurate.
func (t Tag) IsInaccurate() bool { return t.is(TagInaccurate) }

// IsSeeking reports whether the tag is seeking.
func (t Tag) IsSeeking() bool { return t.is(TagSeeking) }

func (t Tag) is(lid string) bool {
	return strings.EqualFold(strings.TrimSpace(t.LID), lid)
}

// Activation is how an item action is triggered.
type Activation string

const (
	ActivationQuick     Activation = "Quick"
	ActivationFull      Activation = "Full"
	ActivationInvade    Activation = "Invade"
	ActivationQuickTech Activation = "Quick Tech"
	ActivationFullTech  Activation = "Full Tech"
	ActivationProtocol  Activation = "Protocol"
	ActivationReaction  Activation = "Reaction"
	ActivationFree      Activation = "Free"
)

// Action is a named ability exposed by an item.
type Action struct {
	Name       string     `json:"name"`
	Activation Activation `json:"activation"`
	Detail     string     `json:"detail,omitempty"`
}

// IsInvade reports whether the action is an invade option.
func (a Action) IsInvade() bool { return a.Activation == ActivationInvade }

// AttackType classifies an attack roll.
type AttackType string

const (
	AttackTech   AttackType = "Tech"
	AttackMelee  AttackType = "Melee"
	AttackRanged AttackType = "Ranged"
)

// IsTech reports whether the attack targets E-Defense.
func (t AttackType) IsTech() bool { return t == AttackTech }
