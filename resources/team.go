package resources

import (
	"strings"

	"babyshop/crud"
	"babyshop/models"
)

// MaxPhotoBytes is the largest team photo accepted.
const MaxPhotoBytes = 5 << 20

// TeamMember is the team screen. Members live in a local store, so ids are
// generated on save and the photo is kept inline as a data URL.
func TeamMember(backend crud.Backend, pageSize int) *crud.Resource {
	link := func(name, label string) crud.Field {
		return crud.Field{Name: name, Label: label, Kind: crud.KindText,
			Rules: []crud.Rule{crud.OptionalURL("Invalid URL")}}
	}
	return &crud.Resource{
		Name:     Team,
		Title:    "Member",
		IDField:  "id",
		IDPolicy: crud.IDOnUpdate,
		Fields: []crud.Field{
			{Name: "photoUrl", Label: "Photo", Kind: crud.KindPhoto, MaxBytes: MaxPhotoBytes,
				Rules: []crud.Rule{crud.RequiredOnCreate("Photo is required")}},
			{Name: "name", Label: "Name", Kind: crud.KindText,
				Rules: []crud.Rule{crud.Required("Name is required")}},
			{Name: "role", Label: "Role", Kind: crud.KindEnum, Options: models.MemberRoles,
				Rules: []crud.Rule{crud.Required("Role is required"), crud.OneOf(models.MemberRoles, "Unknown role")}},
			{Name: "shortTitle", Label: "Short Title", Kind: crud.KindText,
				Rules: []crud.Rule{crud.Required("Short title is required")}},
			{Name: "message", Label: "Message", Kind: crud.KindText,
				Rules: []crud.Rule{crud.Required("Message is required")}},
			{Name: "status", Label: "Status", Kind: crud.KindEnum, Options: models.MemberStatuses, Default: models.MemberActive,
				Rules: []crud.Rule{crud.OneOf(models.MemberStatuses, "Unknown status")}},
			link("linkedin", "LinkedIn"),
			link("facebook", "Facebook"),
			link("instagram", "Instagram"),
			link("website", "Website"),
		},
		SearchFields: []string{"name", "role", "shortTitle", "status"},
		TrimSearch:   true,
		PageSize:     pageSize,
		Backend:      backend,
		Project: func(row crud.Record) crud.Record {
			return crud.Record{"initials": Initials(crud.ToString(row["name"]))}
		},
		Messages: crud.Messages{
			Added:   "New member added.",
			Updated: "Member updated.",
			Deleted: "Member deleted successfully.",
			Invalid: "Please fix required fields.",
			Cleared: "All local members removed.",
		},
	}
}

// Initials returns the upper-cased first letters of the first and last word,
// "U" for an empty name.
func Initials(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "U"
	}
	first := []rune(parts[0])[:1]
	out := string(first)
	if len(parts) > 1 {
		out += string([]rune(parts[len(parts)-1])[:1])
	}
	return strings.ToUpper(out)
}
