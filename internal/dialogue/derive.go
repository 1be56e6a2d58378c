package dialogue

import "github.com/okhomin/freightbot/internal/model"

// Derive computes the canonical dialogue position for a user from the durable
// record plus an optional step hint taken from the session. It is a pure
// function: no I/O, no clock, identical inputs always yield identical output.
//
// The record is the authority. The hint can only refine a position within a
// state, never move the user past a field the record shows as missing.
func Derive(rec *model.User, hint Step) Position {
	if rec == nil || model.Role(rec.Role) == model.RoleUnset {
		return Position{State: StateRoleSelection}
	}

	if rec.FirstName == nil || rec.LastName == nil || rec.BirthYear == nil || rec.Phone == nil {
		return Position{State: StateBasicInfo, Step: deriveBasicInfoStep(rec, hint)}
	}

	if !rec.RegistrationCompleted {
		state := StateFirstOrder
		if rec.IsDriver() {
			state = StateFirstOffer
		}
		return Position{State: state, Step: deriveFlowStep(state, hint)}
	}

	return Position{State: StateCompleted}
}

// deriveBasicInfoStep walks the first_name -> last_name -> birth_year -> phone
// checklist and returns the first field absent on the record. A hint naming a
// later step than the checklist requires is rejected, so a stale session can
// never skip a required field; a hint at or before the checklist step is
// accepted as-is.
func deriveBasicInfoStep(rec *model.User, hint Step) Step {
	required := StepPhone
	switch {
	case rec.FirstName == nil:
		required = StepFirstName
	case rec.LastName == nil:
		required = StepLastName
	case rec.BirthYear == nil:
		required = StepBirthYear
	}

	hi := stepIndex(basicInfoSteps, hint)
	ri := stepIndex(basicInfoSteps, required)
	if hi >= 0 && hi <= ri {
		return hint
	}
	return required
}

// deriveFlowStep resolves the step for first_order/first_offer. No durable
// partial-progress field exists for these flows, so the hint is trusted when
// it names a valid step; otherwise the flow restarts at its first step.
// Losing the session here means restarting the sub-flow, by contract.
func deriveFlowStep(state State, hint Step) Step {
	steps := StepsFor(state)
	if stepIndex(steps, hint) >= 0 {
		return hint
	}
	return steps[0]
}
