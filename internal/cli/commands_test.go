package cli

import (
	"strings"
	"testing"

	"github.com/vvka-141/pglode/pkg/pglode"
)

func TestRunCmd_RejectsArgs(t *testing.T) {
	err := runCmd.Args(runCmd, []string{"extra"})
	if err == nil {
		t.Fatal("Expected error for positional args")
	}
	exitCode := pglode.ExitCodeForError(err)
	if exitCode != pglode.ExitUsageError {
		t.Errorf("Expected exit code %d (usage), got %d for: %v", pglode.ExitUsageError, exitCode, err)
	}
}

func TestInitCmd_ArgsValidation_TooMany(t *testing.T) {
	err := initCmd.Args(initCmd, []string{"a", "b"})
	if err == nil {
		t.Fatal("Expected error for too many args")
	}
}

func TestInitCmd_ScaffoldWithoutPath(t *testing.T) {
	initDB = false
	err := runInit(initCmd, nil)
	if err == nil {
		t.Fatal("Expected error when scaffolding without a target path")
	}
	if !strings.Contains(err.Error(), "target path required") {
		t.Errorf("Expected target path error, got: %v", err)
	}
}

func TestAddCmd_FileConflictsWithEntryFlags(t *testing.T) {
	resetAddFlags()
	addFlags.file = "datasets.yaml"
	addFlags.name = "orders"

	_, err := collectEntries()
	if err == nil {
		t.Fatal("Expected error for --file combined with --name")
	}
	if !strings.Contains(err.Error(), "--file") {
		t.Errorf("Expected conflict error, got: %v", err)
	}
}

func TestAddCmd_NonInteractiveWithoutEntry(t *testing.T) {
	resetAddFlags()
	t.Setenv("PGLODE_NON_INTERACTIVE", "1")

	_, err := collectEntries()
	if err == nil {
		t.Fatal("Expected error when no entry is provided non-interactively")
	}
	exitCode := pglode.ExitCodeForError(err)
	if exitCode != pglode.ExitGeneralError {
		t.Errorf("Expected general error exit code, got %d", exitCode)
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"init", "add", "list", "run", "history", "version"}
	for _, name := range want {
		found := false
		for _, cmd := range rootCmd.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected command '%s' to be registered", name)
		}
	}
}

func resetAddFlags() {
	addFlags = addFlagValues{}
}
