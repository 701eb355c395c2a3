package form

// UIHint suggests how a field should be presented. Besides the standard hints
// below any other non-empty string is a custom hint understood by the UI.
type UIHint string

const (
	HintCheckbox     UIHint = "checkbox"
	HintCombobox     UIHint = "combobox"
	HintList         UIHint = "list"
	HintMultipleLine UIHint = "multipleLine"
	HintPicker       UIHint = "picker"
	HintPopover      UIHint = "popover"
	HintRadioButton  UIHint = "radioButton"
	HintSection      UIHint = "section"
	HintSlider       UIHint = "slider"
	HintTextfield    UIHint = "textfield"
	HintToggle       UIHint = "toggle"
)

var standardHints = map[UIHint]bool{
	HintCheckbox:     true,
	HintCombobox:     true,
	HintList:         true,
	HintMultipleLine: true,
	HintPicker:       true,
	HintPopover:      true,
	HintRadioButton:  true,
	HintSection:      true,
	HintSlider:       true,
	HintTextfield:    true,
	HintToggle:       true,
}

// IsStandard reports whether h is one of the standard hints.
func (h UIHint) IsStandard() bool { return standardHints[h] }
