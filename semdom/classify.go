package semdom

import (
	"strconv"
	"strings"

	"github.com/hazyhaar/semdom/dom"
)

// tagRoles is the built-in tag to role table. Tags whose role depends on
// attributes (input, select, section, a, area, img) are handled by
// elementRole before this table is consulted.
var tagRoles = map[string]Role{
	"main":     RoleMain,
	"nav":      RoleNavigation,
	"header":   RoleBanner,
	"footer":   RoleContentInfo,
	"aside":    RoleComplementary,
	"form":     RoleForm,
	"search":   RoleSearch,
	"article":  RoleArticle,
	"button":   RoleButton,
	"summary":  RoleButton,
	"textarea": RoleTextbox,
	"option":   RoleOption,
	"datalist": RoleListbox,
	"menu":     RoleMenu,
	"dialog":   RoleDialog,
	"output":   RoleStatus,
	"h1":       RoleHeading,
	"h2":       RoleHeading,
	"h3":       RoleHeading,
	"h4":       RoleHeading,
	"h5":       RoleHeading,
	"h6":       RoleHeading,
	"ul":       RoleList,
	"ol":       RoleList,
	"li":       RoleListitem,
	"table":    RoleTable,
	"tr":       RoleRow,
	"td":       RoleCell,
	"th":       RoleColumnHeader,
	"figure":   RoleFigure,
	"p":        RoleParagraph,
	"hr":       RoleSeparator,
	"progress": RoleProgressbar,
	"meter":    RoleProgressbar,
	"fieldset": RoleGroup,
	"optgroup": RoleGroup,
	"details":  RoleGroup,
}

// buttonKeywords are tried in order against the lower-cased label.
var buttonKeywords = []struct {
	word   string
	intent Intent
}{
	{"submit", IntentSubmit},
	{"search", IntentSearch},
	{"cancel", IntentCancel},
	{"close", IntentClose},
	{"delete", IntentDelete},
	{"confirm", IntentConfirm},
}

// classification is everything the builder derives from one element.
type classification struct {
	role   Role
	label  string
	intent Intent
	state  State
	flags  Flags
	a11y   A11y
	value  *Value
	href   string
}

func classify(el dom.Element, s *settings) classification {
	var c classification
	c.role = inferRole(el, s)
	c.label = accessibleName(el, c.role)
	c.intent = inferIntent(el, c.role, c.label, s)
	c.state = inferState(el)
	c.flags = stateFlags(el)
	c.value = inferValue(el)

	c.a11y.Name = c.label
	c.a11y.Focusable, c.a11y.InTabOrder = focusability(el)
	c.a11y.Level = headingLevel(el, c.role)
	c.a11y.Live = liveRegion(el, c.role)
	c.a11y.PosInSet = positiveInt(el, "aria-posinset")
	c.a11y.SetSize = positiveInt(el, "aria-setsize")

	if c.role == RoleLink {
		c.href = SanitizeHref(dom.AttrOr(el, "href"))
	}
	return c
}

// inferRole: explicit role tokens, tag override, element sub-mapping, tag
// table, generic.
func inferRole(el dom.Element, s *settings) Role {
	for _, attr := range [...]string{"role", "data-agent-role"} {
		v, ok := el.Attr(attr)
		if !ok {
			continue
		}
		for _, tok := range strings.Fields(strings.ToLower(v)) {
			if r, ok := roleByName[tok]; ok {
				return r
			}
		}
	}
	tag := el.Tag()
	if r, ok := s.roleOverrides[tag]; ok {
		return r
	}
	if r, ok := elementRole(el); ok {
		return r
	}
	if r, ok := tagRoles[tag]; ok {
		return r
	}
	return RoleGeneric
}

func elementRole(el dom.Element) (Role, bool) {
	switch el.Tag() {
	case "input":
		return inputRole(inputType(el)), true
	case "select":
		if dom.HasAttr(el, "multiple") {
			return RoleListbox, true
		}
		if n, err := strconv.Atoi(strings.TrimSpace(dom.AttrOr(el, "size"))); err == nil && n > 1 {
			return RoleListbox, true
		}
		return RoleCombobox, true
	case "section":
		if dom.HasAttr(el, "aria-label") || dom.HasAttr(el, "aria-labelledby") {
			return RoleRegion, true
		}
		return RoleGeneric, true
	case "a", "area":
		if dom.HasAttr(el, "href") {
			return RoleLink, true
		}
		return RoleGeneric, true
	case "img":
		if alt, ok := el.Attr("alt"); ok && alt == "" {
			return RoleGeneric, true
		}
		return RoleImg, true
	}
	return RoleGeneric, false
}

func inputType(el dom.Element) string {
	return strings.ToLower(strings.TrimSpace(dom.AttrOr(el, "type")))
}

func inputRole(typ string) Role {
	switch typ {
	case "submit", "button", "reset", "image":
		return RoleButton
	case "checkbox":
		return RoleCheckbox
	case "radio":
		return RoleRadio
	case "range":
		return RoleSlider
	case "number":
		return RoleSpinbutton
	case "search":
		return RoleSearchbox
	case "hidden":
		return RoleGeneric
	}
	return RoleTextbox
}

// inferIntent: explicit attribute, role override, role heuristic.
func inferIntent(el dom.Element, role Role, label string, s *settings) Intent {
	for _, attr := range [...]string{"data-agent-intent", "data-intent"} {
		v, ok := el.Attr(attr)
		if !ok {
			continue
		}
		if in, ok := intentByName[strings.TrimSpace(v)]; ok {
			return in
		}
	}
	if in, ok := s.intentOverrides[role]; ok {
		return in
	}

	switch role {
	case RoleButton:
		lower := strings.ToLower(label)
		for _, kw := range buttonKeywords {
			if strings.Contains(lower, kw.word) {
				return kw.intent
			}
		}
		return IntentToggle
	case RoleLink:
		return IntentNavigate
	case RoleCheckbox, RoleRadio, RoleSwitch:
		return IntentToggle
	case RoleTextbox:
		return IntentInput
	case RoleSearchbox:
		return IntentSearch
	case RoleCombobox, RoleListbox, RoleOption, RoleTab:
		return IntentSelect
	case RoleMenuitem:
		return IntentOpen
	}
	return IntentNone
}

// inferState walks the attribute ladder; the first rung that matches wins.
func inferState(el dom.Element) State {
	tag := el.Tag()
	switch {
	case isDisabled(el):
		return StateDisabled
	case attrIs(el, "aria-busy", "true"):
		return StateBusy
	case isInvalid(el):
		return StateInvalid
	case attrIs(el, "aria-selected", "true"), tag == "option" && dom.HasAttr(el, "selected"):
		return StateSelected
	}

	if v, ok := el.Attr("aria-expanded"); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return StateExpanded
		case "false":
			return StateCollapsed
		}
	}
	if (tag == "details" || tag == "dialog") && dom.HasAttr(el, "open") {
		return StateExpanded
	}

	if v, ok := el.Attr("aria-checked"); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return StateChecked
		case "false":
			return StateUnchecked
		case "mixed":
			return StateIndeterminate
		}
	}
	if tag == "input" {
		switch inputType(el) {
		case "checkbox", "radio":
			switch {
			case dom.HasAttr(el, "indeterminate"):
				return StateIndeterminate
			case dom.HasAttr(el, "checked"):
				return StateChecked
			default:
				return StateUnchecked
			}
		case "hidden":
			return StateHidden
		}
	}

	if dom.HasAttr(el, "hidden") || attrIs(el, "aria-hidden", "true") {
		return StateHidden
	}
	return StateIdle
}

func isDisabled(el dom.Element) bool {
	return dom.HasAttr(el, "disabled") || attrIs(el, "aria-disabled", "true")
}

func isInvalid(el dom.Element) bool {
	v, ok := el.Attr("aria-invalid")
	return ok && strings.ToLower(strings.TrimSpace(v)) != "false"
}

func stateFlags(el dom.Element) Flags {
	return Flags{
		Disabled: isDisabled(el),
		ReadOnly: dom.HasAttr(el, "readonly") || attrIs(el, "aria-readonly", "true"),
		Required: dom.HasAttr(el, "required") || attrIs(el, "aria-required", "true"),
	}
}

// accessibleName resolves, in order: aria-labelledby, aria-label,
// data-agent-label, <label for>, own content for name-from-content roles,
// alt, title.
func accessibleName(el dom.Element, role Role) string {
	if ids, ok := el.Attr("aria-labelledby"); ok {
		var parts []string
		for _, id := range strings.Fields(ids) {
			if ref := el.Document().ElementByID(id); ref != nil {
				if t := ref.Text(); t != "" {
					parts = append(parts, t)
				}
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}
	for _, attr := range [...]string{"aria-label", "data-agent-label"} {
		if v := collapse(dom.AttrOr(el, attr)); v != "" {
			return v
		}
	}
	if id := dom.AttrOr(el, "id"); id != "" {
		var parts []string
		for _, l := range el.Document().LabelsFor(id) {
			if t := l.Text(); t != "" {
				parts = append(parts, t)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}
	if role.nameFromContent() {
		if el.Tag() == "input" {
			switch inputType(el) {
			case "submit", "button", "reset":
				if v := collapse(dom.AttrOr(el, "value")); v != "" {
					return v
				}
			}
		} else if t := el.Text(); t != "" {
			return t
		}
	}
	for _, attr := range [...]string{"alt", "title"} {
		if v := collapse(dom.AttrOr(el, attr)); v != "" {
			return v
		}
	}
	return ""
}

func inferValue(el dom.Element) *Value {
	switch el.Tag() {
	case "input":
		switch inputType(el) {
		case "checkbox", "radio":
			return BoolValue(dom.HasAttr(el, "checked"))
		case "number", "range":
			if f, err := strconv.ParseFloat(strings.TrimSpace(dom.AttrOr(el, "value")), 64); err == nil {
				return NumberValue(f)
			}
			return nil
		}
		if v, ok := el.Attr("value"); ok {
			return StringValue(v)
		}
	case "select":
		if opt := selectedOption(el); opt != nil {
			if v, ok := opt.Attr("value"); ok {
				return StringValue(v)
			}
			return StringValue(opt.Text())
		}
	case "textarea":
		return StringValue(el.Text())
	case "progress", "meter":
		if f, err := strconv.ParseFloat(strings.TrimSpace(dom.AttrOr(el, "value")), 64); err == nil {
			return NumberValue(f)
		}
	}
	return nil
}

// selectedOption returns the first <option selected> below a <select>,
// looking through optgroups.
func selectedOption(el dom.Element) dom.Element {
	for _, c := range el.Children() {
		switch c.Tag() {
		case "option":
			if dom.HasAttr(c, "selected") {
				return c
			}
		case "optgroup":
			if opt := selectedOption(c); opt != nil {
				return opt
			}
		}
	}
	return nil
}

func nativelyFocusable(el dom.Element) bool {
	switch el.Tag() {
	case "a", "area":
		return dom.HasAttr(el, "href")
	case "button", "select", "textarea", "summary":
		return true
	case "input":
		return inputType(el) != "hidden"
	}
	if v, ok := el.Attr("contenteditable"); ok {
		return strings.ToLower(strings.TrimSpace(v)) != "false"
	}
	return false
}

func focusability(el dom.Element) (focusable, inTabOrder bool) {
	native := nativelyFocusable(el)
	if native && isDisabled(el) {
		return false, false
	}
	if v, ok := el.Attr("tabindex"); ok {
		if t, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return native || t >= -1, t >= 0
		}
	}
	return native, native
}

func headingLevel(el dom.Element, role Role) *int {
	if role != RoleHeading {
		return nil
	}
	if n := positiveInt(el, "aria-level"); n > 0 {
		return &n
	}
	tag := el.Tag()
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		n := int(tag[1] - '0')
		return &n
	}
	n := 2
	return &n
}

func liveRegion(el dom.Element, role Role) string {
	switch v := strings.ToLower(strings.TrimSpace(dom.AttrOr(el, "aria-live"))); v {
	case "off", "polite", "assertive":
		return v
	}
	switch role {
	case RoleAlert:
		return "assertive"
	case RoleStatus:
		return "polite"
	}
	return ""
}

func positiveInt(el dom.Element, attr string) int {
	n, err := strconv.Atoi(strings.TrimSpace(dom.AttrOr(el, attr)))
	if err != nil || n < 1 {
		return 0
	}
	return n
}

func attrIs(el dom.Element, name, want string) bool {
	v, ok := el.Attr(name)
	return ok && strings.EqualFold(strings.TrimSpace(v), want)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
