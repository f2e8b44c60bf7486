// Package wizards contains the interactive flows pglode runs when invoked
// on a TTY without enough flags to act non-interactively.
package wizards

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vvka-141/pglode/internal/tui/components"
	"github.com/vvka-141/pglode/pkg/pglode"
)

// AddResult holds the result of the add-entry wizard.
type AddResult struct {
	Cancelled bool
	Entry     pglode.DatasetEntry
}

// Field order in the add form. Used to map form values back to the entry.
const (
	addFieldName = iota
	addFieldSource
	addFieldTarget
	addFieldFrequency
	addFieldNote
)

// NewAddForm builds the add-entry form, pre-filled with any defaults the
// user already supplied via flags.
func NewAddForm(defaults pglode.DatasetEntry) components.Form {
	return components.NewForm("pglode add - New catalog entry",
		components.NewTextField("Dataset name", "orders").
			WithRequired(true).
			WithValue(defaults.Name),
		components.NewTextField("Source path or glob", "data/orders_*.csv").
			WithRequired(true).
			WithValue(defaults.SourcePath),
		components.NewTextField("Target table", "t_orders").
			WithRequired(true).
			WithValue(defaults.TargetTable),
		components.NewTextField("Load frequency (keyword or cron, optional)", "daily").
			WithValue(defaults.LoadFrequency).
			WithValidator(validateFrequency),
		components.NewTextField("Transform note (optional)", "dedupe on order_id").
			WithValue(defaults.TransformNote),
	)
}

func validateFrequency(value string) error {
	if value == "" {
		return nil
	}
	return pglode.ValidateFrequency(value)
}

// RunAddEntry executes the add-entry wizard and returns the collected entry.
func RunAddEntry(defaults pglode.DatasetEntry) (AddResult, error) {
	p := tea.NewProgram(NewAddForm(defaults))

	model, err := p.Run()
	if err != nil {
		return AddResult{Cancelled: true}, err
	}

	form := model.(components.Form)
	if form.Cancelled() || !form.Submitted() {
		return AddResult{Cancelled: true}, nil
	}

	return AddResult{
		Entry: pglode.DatasetEntry{
			Name:          form.FieldValue(addFieldName),
			SourcePath:    form.FieldValue(addFieldSource),
			TargetTable:   form.FieldValue(addFieldTarget),
			LoadFrequency: form.FieldValue(addFieldFrequency),
			TransformNote: form.FieldValue(addFieldNote),
		},
	}, nil
}
