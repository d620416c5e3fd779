package authz

// Action identifies an administrative action subject to scope checks
type Action string

const (
	// Member administration
	ActionMemberView         Action = "member.view"
	ActionMemberAdjustPoints Action = "member.adjust_points"
	ActionMemberChangeRole   Action = "member.change_role"
	ActionMemberDeactivate   Action = "member.deactivate"
	ActionMemberImpersonate  Action = "member.impersonate"

	// Task workflow
	ActionTaskManage Action = "task.manage"
	ActionTaskReview Action = "task.review_submission"
	ActionTaskCancel Action = "task.cancel"
	ActionTaskDelete Action = "task.delete"

	// Events
	ActionEventManage Action = "event.manage"

	// Voting
	ActionVoteDeleteEmpty Action = "vote.delete_empty"

	// Reporting
	ActionAuditView Action = "audit.view"
)

// superAdminOnly is the explicit allow-list of irreversible actions reserved
// to super_admin. Plain admins are denied these; everything else an admin
// may do.
var superAdminOnly = map[Action]bool{
	ActionTaskDelete:        true,
	ActionMemberImpersonate: true,
	ActionVoteDeleteEmpty:   true,
}

// IsSuperAdminOnly reports whether the action is reserved to super_admin
func IsSuperAdminOnly(action Action) bool {
	return superAdminOnly[action]
}
