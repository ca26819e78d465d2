package constants

// Organization permissions
const (
	// Admin permissions
	PermAdminFull      = "dispatch-board.admin.full-permit"
	PermDispatcherFull = "dispatch-board.dispatcher.full-permit"
	PermShiftLeadFull  = "dispatch-board.shift-lead.full-permit"

	// Special permissions
	PermAny = "any"
)

// Permission groups for convenience
var (
	DispatchWritePermissions = []string{
		PermAdminFull,
		PermDispatcherFull,
		PermShiftLeadFull,
	}
)
