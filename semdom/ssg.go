package semdom

// Transition is one edge of a node's state machine.
type Transition struct {
	From    State   `json:"from"`
	To      State   `json:"to"`
	Trigger Trigger `json:"trigger"`
}

// SSGNode is the static state machine of one node plus its state at parse
// time. History is always empty here; applied transitions are recorded by
// a runtime store.
type SSGNode struct {
	NodeID       string       `json:"nodeId"`
	Role         Role         `json:"role"`
	CurrentState State        `json:"currentState"`
	Transitions  []Transition `json:"transitions"`
	History      []Transition `json:"history"`
}

// Available returns the transitions leaving CurrentState.
func (s *SSGNode) Available() []Transition {
	return transitionsFrom(s.Transitions, s.CurrentState)
}

// CanTransition reports whether trigger applies in CurrentState.
func (s *SSGNode) CanTransition(trigger Trigger) bool {
	_, ok := s.Next(trigger)
	return ok
}

// Next returns the state trigger leads to from CurrentState.
func (s *SSGNode) Next(trigger Trigger) (State, bool) {
	return NextState(s.Transitions, s.CurrentState, trigger)
}

func transitionsFrom(table []Transition, from State) []Transition {
	var out []Transition
	for _, t := range table {
		if t.From == from {
			out = append(out, t)
		}
	}
	return out
}

// NextState returns the target of the first edge in table leaving from on
// trigger. When none matches it returns from and false.
func NextState(table []Transition, from State, trigger Trigger) (State, bool) {
	for _, t := range table {
		if t.From == from && t.Trigger == trigger {
			return t.To, true
		}
	}
	return from, false
}

var (
	focusBlur = []Transition{
		{StateIdle, StateFocused, TriggerFocus},
		{StateFocused, StateIdle, TriggerBlur},
	}
	editable = []Transition{
		{StateIdle, StateFocused, TriggerFocus},
		{StateFocused, StateIdle, TriggerBlur},
		{StateFocused, StateEditing, TriggerInput},
		{StateEditing, StateFocused, TriggerChange},
	}
	checkable = []Transition{
		{StateUnchecked, StateChecked, TriggerClick},
		{StateChecked, StateUnchecked, TriggerClick},
		{StateIndeterminate, StateChecked, TriggerClick},
		{StateIdle, StateFocused, TriggerFocus},
	}
	popup = []Transition{
		{StateCollapsed, StateExpanded, TriggerOpen},
		{StateExpanded, StateCollapsed, TriggerClose},
		{StateIdle, StateFocused, TriggerFocus},
	}
	selectable = []Transition{
		{StateIdle, StateSelected, TriggerSelect},
		{StateSelected, StateIdle, TriggerDeselect},
	}
)

// roleTransitions is the static per-role table.
var roleTransitions = map[Role][]Transition{
	RoleButton: {
		{StateIdle, StateFocused, TriggerFocus},
		{StateFocused, StateIdle, TriggerBlur},
		{StateFocused, StatePressed, TriggerMouseDown},
		{StatePressed, StateFocused, TriggerMouseUp},
	},
	RoleLink: {
		{StateIdle, StateFocused, TriggerFocus},
		{StateFocused, StateIdle, TriggerBlur},
		{StateFocused, StateVisited, TriggerClick},
	},
	RoleTextbox:    editable,
	RoleSearchbox:  editable,
	RoleSpinbutton: editable,
	RoleSlider:     editable,
	RoleCheckbox:   checkable,
	RoleSwitch:     checkable,
	RoleRadio: {
		{StateUnchecked, StateChecked, TriggerClick},
		{StateIdle, StateFocused, TriggerFocus},
	},
	RoleCombobox: popup,
	RoleListbox:  popup,
	RoleMenu:     popup,
	RoleOption:   selectable,
	RoleMenuitem: selectable,
	RoleTab: {
		{StateInactive, StateActive, TriggerClick},
		{StateActive, StateInactive, TriggerDeselect},
	},
	RoleDialog: {
		{StateClosed, StateOpen, TriggerOpen},
		{StateOpen, StateClosed, TriggerClose},
	},
}

// transitionsFor returns a fresh table for a node. Non-interactive nodes
// without a role table get edges derived from their current state.
func transitionsFor(role Role, current State) []Transition {
	var table []Transition
	if t, ok := roleTransitions[role]; ok {
		table = append(table, t...)
	} else if role.IsInteractive() {
		table = append(table, focusBlur...)
	} else {
		table = derivedTransitions(current)
	}
	if current == StateDisabled {
		table = append(table, Transition{StateDisabled, StateIdle, TriggerEnable})
	}
	return table
}

func derivedTransitions(current State) []Transition {
	switch current {
	case StateExpanded, StateCollapsed:
		return []Transition{
			{StateExpanded, StateCollapsed, TriggerCollapse},
			{StateCollapsed, StateExpanded, TriggerExpand},
		}
	case StateHidden:
		return []Transition{
			{StateHidden, StateIdle, TriggerShow},
			{StateIdle, StateHidden, TriggerHide},
		}
	case StateSelected:
		return append([]Transition(nil), selectable...)
	case StateChecked, StateUnchecked, StateIndeterminate:
		return append([]Transition(nil), checkable[:3]...)
	case StateBusy:
		return []Transition{{StateBusy, StateIdle, TriggerComplete}}
	case StateInvalid:
		return []Transition{{StateInvalid, StateIdle, TriggerCorrect}}
	}
	return nil
}

// synthesize builds the state graph for every interactive or non-idle
// node. Placeholders are skipped.
func synthesize(nodes []*Node) map[string]*SSGNode {
	graph := make(map[string]*SSGNode)
	for _, n := range nodes {
		if n.Placeholder {
			continue
		}
		if !n.IsInteractive() && n.State == StateIdle {
			continue
		}
		graph[n.ID] = &SSGNode{
			NodeID:       n.ID,
			Role:         n.Role,
			CurrentState: n.State,
			Transitions:  transitionsFor(n.Role, n.State),
			History:      []Transition{},
		}
	}
	return graph
}
