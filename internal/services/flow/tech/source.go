package tech

import (
	"fmt"

	apperrors "github.com/louisbranch/lancerflow/internal/platform/errors"
	"github.com/louisbranch/lancerflow/internal/services/flow/accdiff"
	"github.com/louisbranch/lancerflow/internal/systems/lancer"
)

// BasicTechTitle labels tech attacks made without an item.
const BasicTechTitle = "BASIC TECH"

// Source is the resolved shape a tech attack is launched from. It is one of
// GenericSource, FeatureSource or ActionSource.
type Source interface {
	// Parameters builds the roll parameters against the current targets.
	Parameters(targets []accdiff.TargetRef) AttackRollParameters
	// RechargeItem returns the item whose charge the attack spends, or nil.
	RechargeItem() *lancer.Item
}

// GenericSource is a basic tech attack by a mech or NPC with no item.
type GenericSource struct {
	Actor lancer.Actor
}

// Parameters uses the actor's tech attack. Goblin frames add one accuracy.
func (s GenericSource) Parameters(targets []accdiff.TargetRef) AttackRollParameters {
	extra := 0
	if s.Actor.IsMech() && s.Actor.FrameLID() == lancer.GoblinFrameLID {
		extra = 1
	}
	return AttackRollParameters{
		Title:      BasicTechTitle,
		AttackType: lancer.AttackTech,
		FlatBonus:  s.Actor.System.TechAttack,
		Tags:       []lancer.Tag{},
		Speaker:    speakerFor(s.Actor),
		AccDiff:    accdiff.FromParams(BasicTechTitle, nil, targets, extra),
	}
}

// RechargeItem is always nil.
func (GenericSource) RechargeItem() *lancer.Item { return nil }

// FeatureSource is an NPC feature with tier-indexed accuracy and attack bonus.
type FeatureSource struct {
	Actor lancer.Actor
	Item  lancer.Item
}

// TierIndex is the zero-based tier used to index the feature's arrays. The
// item's tier override wins over the actor's tier.
func (s FeatureSource) TierIndex() int {
	tier := s.Item.System.TierOverride
	if tier == 0 {
		tier = s.Actor.System.Tier
	}
	return tier - 1
}

// Parameters reads accuracy and attack bonus for the NPC's tier. Missing
// entries count as zero.
func (s FeatureSource) Parameters(targets []accdiff.TargetRef) AttackRollParameters {
	idx := s.TierIndex()
	tags := append([]lancer.Tag{}, s.Item.System.Tags...)
	ad := accdiff.FromParams(s.Item.Name, tags, targets, 0)
	ad.PerSourceModifier = tierValue(s.Item.System.Accuracy, idx)
	return AttackRollParameters{
		Title:      s.Item.Name,
		AttackType: lancer.AttackTech,
		FlatBonus:  tierValue(s.Item.System.AttackBonus, idx),
		Tags:       tags,
		Effect:     s.Item.System.Effect,
		Speaker:    speakerFor(s.Actor),
		AccDiff:    ad,
	}
}

// RechargeItem returns the feature when it carries a recharge tag.
func (s FeatureSource) RechargeItem() *lancer.Item {
	if !s.Item.IsRecharge() {
		return nil
	}
	item := s.Item
	return &item
}

// ActionSource is an item action, or the item's own effect when Action is nil.
type ActionSource struct {
	Actor  lancer.Actor
	Item   lancer.Item
	Action *lancer.Action
}

// Parameters titles invade actions "INVADE // name" and uses the owning
// actor's tech attack.
func (s ActionSource) Parameters(targets []accdiff.TargetRef) AttackRollParameters {
	title := s.Item.Name
	effect := s.Item.System.Effect
	if s.Action != nil {
		title = s.Action.Name
		if s.Action.IsInvade() {
			title = "INVADE // " + s.Action.Name
		}
		effect = s.Action.Detail
	}
	tags := append([]lancer.Tag{}, s.Item.System.Tags...)
	return AttackRollParameters{
		Title:      title,
		AttackType: lancer.AttackTech,
		FlatBonus:  s.Actor.System.TechAttack,
		Tags:       tags,
		Effect:     effect,
		Speaker:    speakerFor(s.Actor),
		AccDiff:    accdiff.FromParams(title, tags, targets, 0),
	}
}

// RechargeItem is always nil.
func (ActionSource) RechargeItem() *lancer.Item { return nil }

// sourceRule claims a resolved document or passes (nil, nil) to the next rule.
type sourceRule func(res Resolved, actionPath string) (Source, error)

// sourceChain is tried in order; the first rule to claim the documents wins.
var sourceChain = []sourceRule{
	genericRule,
	featureRule,
	actionRule,
	systemEffectRule,
}

// ResolveSource selects the source shape for res. Precondition failures are
// returned as *apperrors.Error.
func ResolveSource(res Resolved, actionPath string) (Source, error) {
	if res.Actor == nil {
		return nil, apperrors.New(apperrors.CodeFlowSourceMissing, "source has no actor")
	}
	for _, rule := range sourceChain {
		src, err := rule(res, actionPath)
		if err != nil {
			return nil, err
		}
		if src != nil {
			return src, nil
		}
	}
	return nil, apperrors.WithMetadata(apperrors.CodeFlowItemNotInvokable,
		fmt.Sprintf("item %s (%s) is not a tech attack source", res.Item.UUID, res.Item.Type),
		map[string]string{"Name": res.Item.Name})
}

func genericRule(res Resolved, _ string) (Source, error) {
	if res.Item != nil {
		return nil, nil
	}
	if !res.Actor.IsMech() && !res.Actor.IsNPC() {
		return nil, apperrors.WithMetadata(apperrors.CodeFlowInvalidTechAttacker,
			fmt.Sprintf("actor %s of type %s cannot tech attack", res.Actor.UUID, res.Actor.Type),
			map[string]string{"Name": res.Actor.Name})
	}
	return GenericSource{Actor: *res.Actor}, nil
}

func featureRule(res Resolved, _ string) (Source, error) {
	if res.Item == nil || res.Item.Type != lancer.ItemNPCFeature {
		return nil, nil
	}
	if res.Item.IsRecharge() && !res.Item.System.Charged {
		return nil, apperrors.WithMetadata(apperrors.CodeFlowFeatureNotCharged,
			fmt.Sprintf("feature %s is not charged", res.Item.UUID),
			map[string]string{"Name": res.Item.Name})
	}
	return FeatureSource{Actor: *res.Actor, Item: *res.Item}, nil
}

func actionRule(res Resolved, actionPath string) (Source, error) {
	if res.Item == nil || actionPath == "" {
		return nil, nil
	}
	action, err := lancer.ResolveAction(*res.Item, actionPath)
	if err != nil {
		return nil, err
	}
	if action == nil {
		return nil, nil
	}
	return ActionSource{Actor: *res.Actor, Item: *res.Item, Action: action}, nil
}

func systemEffectRule(res Resolved, _ string) (Source, error) {
	if res.Item == nil || res.Item.Type != lancer.ItemMechSystem {
		return nil, nil
	}
	return ActionSource{Actor: *res.Actor, Item: *res.Item}, nil
}

func speakerFor(actor lancer.Actor) Speaker {
	return Speaker{ActorUUID: actor.UUID, Name: actor.Name}
}

func tierValue(values []int, idx int) int {
	if idx < 0 || idx >= len(values) {
		return 0
	}
	return values[idx]
}
