// Package eligibility decides whether a family may claim from a donation
// schedule. The check is a pure predicate over already-loaded state: it is
// used both to filter the schedules a family browses and, server-side, to
// gate claim creation. A client-supplied eligibility flag is never trusted.
package eligibility

import (
	"fmt"

	"bayanihan/internal/family"
	"bayanihan/internal/schedule"
	"bayanihan/internal/user"
)

// Subject bundles the family-side facts the evaluator reads. Members should
// include every member of the family; the head user carries the solo-parent
// and indigenous flags.
type Subject struct {
	Family  *family.Family
	Head    *user.User
	Members []*family.Member
}

// Result is the evaluation outcome. Reason is set only when ineligible and
// is phrased for the resident.
type Result struct {
	Eligible bool
	Reason   string
}

func eligible() Result { return Result{Eligible: true} }

func ineligible(format string, args ...any) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

// WheelchairPolicy selects which approved statuses satisfy the WHEELCHAIR
// type. The historical behavior admits both disability and indigenous
// grounds, so the union is the default.
type WheelchairPolicy int

const (
	// WheelchairPWDOrIndigenous passes on an APPROVED PWD member or an
	// indigenous household.
	WheelchairPWDOrIndigenous WheelchairPolicy = iota
	// WheelchairPWDOnly passes on an APPROVED PWD member alone.
	WheelchairPWDOnly
)

// Evaluator applies the classification gate and the donation type gate, in
// that order. Both must pass.
type Evaluator struct {
	wheelchair WheelchairPolicy
}

type Option func(*Evaluator)

func WithWheelchairPolicy(p WheelchairPolicy) Option {
	return func(e *Evaluator) { e.wheelchair = p }
}

func New(opts ...Option) *Evaluator {
	e := &Evaluator{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs both gates. An UNCLASSIFIED family fails every non-ALL
// target, so classification is a prerequisite for targeted distributions.
func (e *Evaluator) Evaluate(sub Subject, sched *schedule.Schedule) Result {
	if !sched.Target.Matches(sub.Family.Classification) {
		return ineligible("family classification %s does not match the target %s",
			sub.Family.Classification, sched.Target)
	}
	return e.typeGate(sub, sched.Type)
}

func (e *Evaluator) typeGate(sub Subject, t schedule.Type) Result {
	switch t {
	case schedule.TypeGeneral:
		return eligible()

	case schedule.TypeEducation:
		// Self-declared; no verification workflow behind it.
		for _, m := range sub.Members {
			if m.IsStudent {
				return eligible()
			}
		}
		return ineligible("no student in the family")

	case schedule.TypePWD:
		if anyApproved(sub.Members, family.AttrPWD) {
			return eligible()
		}
		return ineligible("no family member with approved PWD status")

	case schedule.TypeSenior:
		if anyApproved(sub.Members, family.AttrSenior) {
			return eligible()
		}
		return ineligible("no family member with approved senior citizen status")

	case schedule.TypeWheelchair:
		if anyApproved(sub.Members, family.AttrPWD) {
			return eligible()
		}
		if e.wheelchair == WheelchairPWDOrIndigenous && sub.Head.IsIndigenous() {
			return eligible()
		}
		return ineligible("no family member qualifies for a wheelchair distribution")

	case schedule.TypeIP:
		if sub.Head.IsIndigenous() {
			return eligible()
		}
		return ineligible("family is not registered as indigenous")

	case schedule.TypeSoloParent:
		if sub.Head.IsSoloParent() {
			return eligible()
		}
		return ineligible("family head is not a registered solo parent")
	}
	return ineligible("unknown donation type %s", t)
}

func anyApproved(members []*family.Member, kind family.AttributeKind) bool {
	for _, m := range members {
		if m.HasApproved(kind) {
			return true
		}
	}
	return false
}
