package pglode

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// Keyword frequencies accepted in DatasetEntry.LoadFrequency, alongside
// standard five-field cron expressions and @-descriptors. pglode only
// validates and stores the value; scheduling is owned by whatever runs
// `pglode run`.
var keywordFrequencies = map[string]struct{}{
	"hourly":  {},
	"daily":   {},
	"weekly":  {},
	"monthly": {},
}

var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ValidateFrequency checks that a LoadFrequency value is either a known
// keyword or a parseable cron expression.
func ValidateFrequency(freq string) error {
	normalized := strings.ToLower(strings.TrimSpace(freq))
	if _, ok := keywordFrequencies[normalized]; ok {
		return nil
	}

	if _, err := cronParser.Parse(freq); err != nil {
		return fmt.Errorf("expected one of hourly/daily/weekly/monthly or a cron expression: %v", err)
	}
	return nil
}
