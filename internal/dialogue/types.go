// Package dialogue implements the registration/first-order conversation core:
// deriving the canonical dialogue position from the durable user record,
// validating free-text input against the expected shape of the current step,
// and advancing users step by step without ever trusting the ephemeral
// session over the record.
package dialogue

// State is a coarse phase of the dialogue.
type State string

const (
	// StateRoleSelection asks the user whether they are a client or a driver.
	StateRoleSelection State = "role_selection"
	// StateBasicInfo collects the shared profile fields.
	StateBasicInfo State = "basic_info"
	// StateFirstOrder collects the client's first shipment request.
	StateFirstOrder State = "first_order"
	// StateFirstOffer collects the driver's vehicle and location.
	StateFirstOffer State = "first_offer"
	// StateCompleted is terminal; the dialogue no longer consumes messages.
	StateCompleted State = "completed"
)

// Step is a fine-grained position within a state, one requested field each.
type Step string

const (
	StepNone Step = ""

	StepFirstName Step = "first_name"
	StepLastName  Step = "last_name"
	StepBirthYear Step = "birth_year"
	StepPhone     Step = "phone"

	StepFromLocation Step = "from_location"
	StepToLocation   Step = "to_location"
	StepDescription  Step = "description"
	StepPrice        Step = "price"

	StepVehicleModel    Step = "vehicle_model"
	StepVehicleCategory Step = "vehicle_category"
	StepCurrentLocation Step = "current_location"
)

var basicInfoSteps = []Step{StepFirstName, StepLastName, StepBirthYear, StepPhone}

var orderSteps = []Step{StepFromLocation, StepToLocation, StepDescription, StepPrice}

var offerSteps = []Step{StepVehicleModel, StepVehicleCategory, StepCurrentLocation}

// StepsFor returns the fixed ordered step list for a state, or nil for
// states that carry no steps.
func StepsFor(state State) []Step {
	switch state {
	case StateBasicInfo:
		return basicInfoSteps
	case StateFirstOrder:
		return orderSteps
	case StateFirstOffer:
		return offerSteps
	}
	return nil
}

// ParseState validates a stored state value against the enumerated set.
func ParseState(raw string) (State, bool) {
	switch State(raw) {
	case StateRoleSelection, StateBasicInfo, StateFirstOrder, StateFirstOffer, StateCompleted:
		return State(raw), true
	}
	return "", false
}

// ParseStep validates a stored step value against the step list of the given
// state. Unrecognized values are rejected rather than propagated.
func ParseStep(state State, raw string) (Step, bool) {
	if raw == "" {
		return StepNone, true
	}
	for _, s := range StepsFor(state) {
		if s == Step(raw) {
			return s, true
		}
	}
	return StepNone, false
}

func stepIndex(steps []Step, step Step) int {
	for i, s := range steps {
		if s == step {
			return i
		}
	}
	return -1
}

// nextStep returns the step after the given one in the state's list, or
// StepNone when the given step is the last.
func nextStep(state State, step Step) Step {
	steps := StepsFor(state)
	i := stepIndex(steps, step)
	if i < 0 || i+1 >= len(steps) {
		return StepNone
	}
	return steps[i+1]
}

// Position is the derived {state, step} pair considered canonically correct
// for a user at a given instant. It is computed, never stored.
type Position struct {
	State State
	Step  Step
}

// Session is the ephemeral, TTL-bound dialogue state kept in the session
// store. Data accumulates in-progress field values that are not yet committed
// to the user record; Seq counts successful transitions and feeds the order
// idempotency key.
type Session struct {
	State State             `json:"state"`
	Step  Step              `json:"step,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
	Seq   int               `json:"seq"`
}

// Sanitize drops unrecognized state/step values loaded from the store so a
// corrupted or stale session can never steer the dialogue. It reports whether
// the session was usable as stored.
func (s *Session) Sanitize() bool {
	if s == nil {
		return false
	}
	ok := true
	if _, valid := ParseState(string(s.State)); !valid {
		s.State = ""
		s.Step = StepNone
		ok = false
	}
	if _, valid := ParseStep(s.State, string(s.Step)); !valid {
		s.Step = StepNone
		ok = false
	}
	if s.Data == nil {
		s.Data = make(map[string]string)
	}
	return ok
}
