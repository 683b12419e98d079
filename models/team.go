package models

// Team member statuses shown in the status dropdown
const (
	MemberActive   = "Active"
	MemberInactive = "Inactive"
	MemberOnLeave  = "On Leave"
)

var MemberStatuses = []string{MemberActive, MemberInactive, MemberOnLeave}

// MemberRoles are the roles offered when adding a team member
var MemberRoles = []string{
	"Owner",
	"Store Manager",
	"Sales Executive",
	"Customer Support",
	"Inventory Manager",
	"Delivery Coordinator",
	"Photographer",
	"Content Creator",
}

// TeamStorageKey is where the team list lives in the key-value store
const TeamStorageKey = "babyshop_team_members_v1"
