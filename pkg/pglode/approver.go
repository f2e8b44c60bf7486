package pglode

import "context"

// Approver handles user interaction for approval workflows, particularly
// for destructive operations like re-initializing an existing catalog.
//
// Implementations:
//   - ForcedApprover: Shows countdown and automatically approves
//   - InteractiveApprover: Prompts user to type the catalog table name for confirmation
type Approver interface {
	// RequestApproval prompts for confirmation before dropping and recreating
	// the catalog and changelog tables.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//   - name: Name of the object about to be overwritten (the catalog table)
	//
	// Returns:
	//   - bool: true if approved, false if denied
	//   - error: Any error that occurred during the approval process
	RequestApproval(ctx context.Context, name string) (bool, error)
}
