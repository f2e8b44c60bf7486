package pglode_test

import (
	"testing"

	"github.com/vvka-141/pglode/pkg/pglode"
)

func TestValidateFrequency(t *testing.T) {
	tests := []struct {
		freq    string
		wantErr bool
	}{
		{"daily", false},
		{"Daily", false},
		{"  weekly  ", false},
		{"hourly", false},
		{"monthly", false},
		{"0 3 * * *", false},
		{"*/15 * * * *", false},
		{"@midnight", false},
		{"@every 1h30m", false},
		{"yearly", true}, // not a keyword; cron's @yearly is, plain "yearly" is not
		{"every day", true},
		{"0 3 * *", true}, // four fields
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.freq, func(t *testing.T) {
			err := pglode.ValidateFrequency(tt.freq)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFrequency(%q) error = %v, wantErr %v", tt.freq, err, tt.wantErr)
			}
		})
	}
}
