package semdom

import "fmt"

// Role is an accessibility role. The set is closed; RoleGeneric is the zero
// value and the fallback for anything unrecognised.
type Role uint8

const (
	RoleGeneric Role = iota
	RoleMain
	RoleNavigation
	RoleBanner
	RoleContentInfo
	RoleComplementary
	RoleForm
	RoleRegion
	RoleSearch
	RoleArticle
	RoleButton
	RoleLink
	RoleTextbox
	RoleSearchbox
	RoleCheckbox
	RoleRadio
	RoleSlider
	RoleSpinbutton
	RoleCombobox
	RoleListbox
	RoleOption
	RoleSwitch
	RoleMenu
	RoleMenubar
	RoleMenuitem
	RoleTab
	RoleTablist
	RoleTabpanel
	RoleDialog
	RoleAlert
	RoleStatus
	RoleHeading
	RoleList
	RoleListitem
	RoleTable
	RoleRow
	RoleCell
	RoleColumnHeader
	RoleImg
	RoleFigure
	RoleParagraph
	RoleSeparator
	RoleProgressbar
	RoleGroup
	RoleTooltip
	RoleTree
	RoleTreeitem
	RoleGrid

	roleCount
)

var roleNames = [roleCount]string{
	RoleGeneric:       "generic",
	RoleMain:          "main",
	RoleNavigation:    "navigation",
	RoleBanner:        "banner",
	RoleContentInfo:   "contentinfo",
	RoleComplementary: "complementary",
	RoleForm:          "form",
	RoleRegion:        "region",
	RoleSearch:        "search",
	RoleArticle:       "article",
	RoleButton:        "button",
	RoleLink:          "link",
	RoleTextbox:       "textbox",
	RoleSearchbox:     "searchbox",
	RoleCheckbox:      "checkbox",
	RoleRadio:         "radio",
	RoleSlider:        "slider",
	RoleSpinbutton:    "spinbutton",
	RoleCombobox:      "combobox",
	RoleListbox:       "listbox",
	RoleOption:        "option",
	RoleSwitch:        "switch",
	RoleMenu:          "menu",
	RoleMenubar:       "menubar",
	RoleMenuitem:      "menuitem",
	RoleTab:           "tab",
	RoleTablist:       "tablist",
	RoleTabpanel:      "tabpanel",
	RoleDialog:        "dialog",
	RoleAlert:         "alert",
	RoleStatus:        "status",
	RoleHeading:       "heading",
	RoleList:          "list",
	RoleListitem:      "listitem",
	RoleTable:         "table",
	RoleRow:           "row",
	RoleCell:          "cell",
	RoleColumnHeader:  "columnheader",
	RoleImg:           "img",
	RoleFigure:        "figure",
	RoleParagraph:     "paragraph",
	RoleSeparator:     "separator",
	RoleProgressbar:   "progressbar",
	RoleGroup:         "group",
	RoleTooltip:       "tooltip",
	RoleTree:          "tree",
	RoleTreeitem:      "treeitem",
	RoleGrid:          "grid",
}

// roleAbbrev is the short kind used in generated ids.
var roleAbbrev = [roleCount]string{
	RoleGeneric:       "el",
	RoleMain:          "main",
	RoleNavigation:    "nav",
	RoleBanner:        "header",
	RoleContentInfo:   "footer",
	RoleComplementary: "aside",
	RoleForm:          "form",
	RoleRegion:        "region",
	RoleSearch:        "search",
	RoleArticle:       "article",
	RoleButton:        "btn",
	RoleLink:          "link",
	RoleTextbox:       "input",
	RoleSearchbox:     "input",
	RoleCheckbox:      "chk",
	RoleRadio:         "radio",
	RoleSlider:        "slider",
	RoleSpinbutton:    "spin",
	RoleCombobox:      "select",
	RoleListbox:       "select",
	RoleOption:        "opt",
	RoleSwitch:        "switch",
	RoleMenu:          "menu",
	RoleMenubar:       "menubar",
	RoleMenuitem:      "item",
	RoleTab:           "tab",
	RoleTablist:       "tablist",
	RoleTabpanel:      "panel",
	RoleDialog:        "dialog",
	RoleAlert:         "alert",
	RoleStatus:        "status",
	RoleHeading:       "h",
	RoleList:          "list",
	RoleListitem:      "li",
	RoleTable:         "table",
	RoleRow:           "row",
	RoleCell:          "cell",
	RoleColumnHeader:  "th",
	RoleImg:           "img",
	RoleFigure:        "fig",
	RoleParagraph:     "p",
	RoleSeparator:     "hr",
	RoleProgressbar:   "progress",
	RoleGroup:         "group",
	RoleTooltip:       "tip",
	RoleTree:          "tree",
	RoleTreeitem:      "treeitem",
	RoleGrid:          "grid",
}

var roleByName = func() map[string]Role {
	m := make(map[string]Role, roleCount)
	for r := Role(0); r < roleCount; r++ {
		m[roleNames[r]] = r
	}
	return m
}()

// ParseRole returns the role with the given name.
func ParseRole(s string) (Role, error) {
	if r, ok := roleByName[s]; ok {
		return r, nil
	}
	return RoleGeneric, fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

func (r Role) String() string {
	if r < roleCount {
		return roleNames[r]
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

// Abbrev returns the short kind used in generated ids.
func (r Role) Abbrev() string {
	if r < roleCount {
		return roleAbbrev[r]
	}
	return "el"
}

func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Role) UnmarshalText(b []byte) error {
	v, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// IsLandmark reports whether r denotes a page region.
func (r Role) IsLandmark() bool {
	switch r {
	case RoleMain, RoleNavigation, RoleBanner, RoleContentInfo,
		RoleComplementary, RoleForm, RoleRegion, RoleSearch:
		return true
	}
	return false
}

// IsInteractive reports whether r is user-operable.
func (r Role) IsInteractive() bool {
	switch r {
	case RoleButton, RoleLink, RoleTextbox, RoleSearchbox, RoleCheckbox,
		RoleRadio, RoleSlider, RoleSpinbutton, RoleCombobox, RoleListbox,
		RoleOption, RoleSwitch, RoleMenuitem, RoleTab:
		return true
	}
	return false
}

// nameFromContent reports whether r takes its accessible name from its
// text content.
func (r Role) nameFromContent() bool {
	switch r {
	case RoleButton, RoleLink, RoleTab, RoleMenuitem, RoleOption, RoleSwitch,
		RoleHeading, RoleCell, RoleColumnHeader, RoleTreeitem, RoleTooltip:
		return true
	}
	return false
}

// Intent classifies the action an element performs. IntentNone (the zero
// value) means no intent could be inferred.
type Intent uint8

const (
	IntentNone Intent = iota
	IntentNavigate
	IntentSubmit
	IntentSearch
	IntentCancel
	IntentClose
	IntentDelete
	IntentConfirm
	IntentToggle
	IntentInput
	IntentSelect
	IntentExpand
	IntentCollapse
	IntentOpen
	IntentEdit
	IntentCreate
	IntentDownload
	IntentPlay
	IntentPause

	intentCount
)

var intentNames = [intentCount]string{
	IntentNone:     "",
	IntentNavigate: "navigate",
	IntentSubmit:   "submit",
	IntentSearch:   "search",
	IntentCancel:   "cancel",
	IntentClose:    "close",
	IntentDelete:   "delete",
	IntentConfirm:  "confirm",
	IntentToggle:   "toggle",
	IntentInput:    "input",
	IntentSelect:   "select",
	IntentExpand:   "expand",
	IntentCollapse: "collapse",
	IntentOpen:     "open",
	IntentEdit:     "edit",
	IntentCreate:   "create",
	IntentDownload: "download",
	IntentPlay:     "play",
	IntentPause:    "pause",
}

var intentByName = func() map[string]Intent {
	m := make(map[string]Intent, intentCount)
	for i := IntentNavigate; i < intentCount; i++ {
		m[intentNames[i]] = i
	}
	return m
}()

// ParseIntent returns the intent with the given name. The empty string
// parses to IntentNone.
func ParseIntent(s string) (Intent, error) {
	if s == "" {
		return IntentNone, nil
	}
	if i, ok := intentByName[s]; ok {
		return i, nil
	}
	return IntentNone, fmt.Errorf("%w: %q", ErrUnknownIntent, s)
}

func (i Intent) String() string {
	if i < intentCount {
		return intentNames[i]
	}
	return fmt.Sprintf("Intent(%d)", uint8(i))
}

func (i Intent) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *Intent) UnmarshalText(b []byte) error {
	v, err := ParseIntent(string(b))
	if err != nil {
		return err
	}
	*i = v
	return nil
}

// State is a UI state. StateIdle is the zero value.
type State uint8

const (
	StateIdle State = iota
	StateFocused
	StatePressed
	StateEditing
	StateVisited
	StateDisabled
	StateBusy
	StateInvalid
	StateSelected
	StateExpanded
	StateCollapsed
	StateChecked
	StateUnchecked
	StateIndeterminate
	StateHidden
	StateActive
	StateInactive
	StateOpen
	StateClosed

	stateCount
)

var stateNames = [stateCount]string{
	StateIdle:          "idle",
	StateFocused:       "focused",
	StatePressed:       "pressed",
	StateEditing:       "editing",
	StateVisited:       "visited",
	StateDisabled:      "disabled",
	StateBusy:          "busy",
	StateInvalid:       "invalid",
	StateSelected:      "selected",
	StateExpanded:      "expanded",
	StateCollapsed:     "collapsed",
	StateChecked:       "checked",
	StateUnchecked:     "unchecked",
	StateIndeterminate: "indeterminate",
	StateHidden:        "hidden",
	StateActive:        "active",
	StateInactive:      "inactive",
	StateOpen:          "open",
	StateClosed:        "closed",
}

var stateByName = func() map[string]State {
	m := make(map[string]State, stateCount)
	for s := State(0); s < stateCount; s++ {
		m[stateNames[s]] = s
	}
	return m
}()

// ParseState returns the state with the given name.
func ParseState(s string) (State, error) {
	if v, ok := stateByName[s]; ok {
		return v, nil
	}
	return StateIdle, fmt.Errorf("%w: %q", ErrUnknownState, s)
}

func (s State) String() string {
	if s < stateCount {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	v, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Trigger names the event that drives a state transition.
type Trigger string

const (
	TriggerFocus     Trigger = "focus"
	TriggerBlur      Trigger = "blur"
	TriggerMouseDown Trigger = "mousedown"
	TriggerMouseUp   Trigger = "mouseup"
	TriggerClick     Trigger = "click"
	TriggerInput     Trigger = "input"
	TriggerChange    Trigger = "change"
	TriggerEnable    Trigger = "enable"
	TriggerOpen      Trigger = "open"
	TriggerClose     Trigger = "close"
	TriggerSelect    Trigger = "select"
	TriggerDeselect  Trigger = "deselect"
	TriggerExpand    Trigger = "expand"
	TriggerCollapse  Trigger = "collapse"
	TriggerShow      Trigger = "show"
	TriggerHide      Trigger = "hide"
	TriggerComplete  Trigger = "complete"
	TriggerCorrect   Trigger = "correct"
)

// Direction selects a navigation primitive.
type Direction uint8

const (
	Next Direction = iota
	Previous
	First
	Last
	Parent
	FirstChild
	LastChild
	NextSibling
	PreviousSibling

	directionCount
)

var directionNames = [directionCount]string{
	Next:            "next",
	Previous:        "previous",
	First:           "first",
	Last:            "last",
	Parent:          "parent",
	FirstChild:      "first-child",
	LastChild:       "last-child",
	NextSibling:     "next-sibling",
	PreviousSibling: "previous-sibling",
}

// ParseDirection returns the direction with the given name.
func ParseDirection(s string) (Direction, error) {
	for d := Direction(0); d < directionCount; d++ {
		if directionNames[d] == s {
			return d, nil
		}
	}
	return Next, fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

func (d Direction) String() string {
	if d < directionCount {
		return directionNames[d]
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
