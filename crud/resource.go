package crud

import (
	"fmt"

	"babyshop/gateway"
)

// IDPolicy decides when the record id is written into the payload.
type IDPolicy int

const (
	// IDAlways sends the edit target, or 0 on create.
	IDAlways IDPolicy = iota
	// IDOnUpdate sends the id for updates only.
	IDOnUpdate
	// IDNever leaves the id to the path.
	IDNever
)

// Resource is the per-resource descriptor: everything else is shared policy.
type Resource struct {
	Name      string
	Title     string
	IDField   string
	IDAliases []string
	// IDKey is the payload key of the id; IDField when empty.
	IDKey string
	// NumericID sends the id as a number.
	NumericID bool
	IDPolicy  IDPolicy

	Fields       []Field
	SearchFields []string
	// TrimSearch ignores spaces around the search text.
	TrimSearch   bool
	PageSize     int
	Backend      Backend

	// Extra adds constant payload entries.
	Extra func(p *Payload, editing bool)
	// Project derives display columns for a listed row.
	Project func(row Record) Record
	// LockServerImages forbids removing already hosted images from a draft.
	LockServerImages bool
	// Messages overrides the default toast copy.
	Messages Messages
}

// Messages is the toast copy of a resource. Empty entries fall back to
// "<Title> added" and friends; an empty Invalid shows the first field error.
type Messages struct {
	Added   string
	Updated string
	Deleted string
	Invalid string
	Cleared string
}

func (r *Resource) Field(name string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (r *Resource) imageField() (Field, bool) {
	for _, f := range r.Fields {
		if f.Kind == KindImages || f.Kind == KindPhoto {
			return f, true
		}
	}
	return Field{}, false
}

// Defaults is the empty draft.
func (r *Resource) Defaults() Record {
	d := Record{}
	for _, f := range r.Fields {
		d[f.Name] = f.zero()
	}
	return d
}

// Normalize maps a raw backend row onto canonical field names, coalescing
// camelCase and PascalCase keys. Unknown keys are kept as-is.
func (r *Resource) Normalize(raw map[string]any) Record {
	rec := make(Record, len(raw)+len(r.Fields)+1)
	for k, v := range raw {
		rec[k] = v
	}
	if v, ok := gateway.Coalesce(raw, gateway.Casings(r.IDField, r.IDAliases...)...); ok {
		rec[r.IDField] = v
	}
	for _, f := range r.Fields {
		v, ok := gateway.Coalesce(raw, gateway.Casings(f.Name, f.Aliases...)...)
		if !ok {
			rec[f.Name] = f.zero()
			continue
		}
		rec[f.Name] = f.fromServer(v)
	}
	if r.Project != nil {
		for k, v := range r.Project(rec) {
			rec[k] = v
		}
	}
	return rec
}

// DraftFrom keeps only the editable fields of a normalized record.
func (r *Resource) DraftFrom(raw map[string]any) Record {
	rec := r.Normalize(raw)
	d := Record{}
	for _, f := range r.Fields {
		d[f.Name] = rec[f.Name]
	}
	return d
}

// Validate returns field to message; empty means valid.
func (r *Resource) Validate(draft Record, staged int, editing bool) map[string]string {
	rc := RuleContext{Editing: editing, Staged: staged}
	errs := map[string]string{}
	for _, f := range r.Fields {
		if msg := f.check(draft[f.Name], rc); msg != "" {
			errs[f.Name] = msg
		}
	}
	return errs
}

// firstError picks the first message in field order.
func (r *Resource) firstError(errs map[string]string) string {
	for _, f := range r.Fields {
		if msg, ok := errs[f.Name]; ok {
			return msg
		}
	}
	return ""
}

// BuildPayload converts a draft into what the backend receives.
func (r *Resource) BuildPayload(draft Record, staged []gateway.File, target ID, editing bool) *Payload {
	p := NewPayload()
	idKey := r.IDKey
	if idKey == "" {
		idKey = r.IDField
	}
	switch {
	case r.IDPolicy == IDAlways, r.IDPolicy == IDOnUpdate && editing:
		p.Set(idKey, r.idValue(target, editing))
	}
	for _, f := range r.Fields {
		if f.Omit {
			continue
		}
		p.Set(f.key(), f.toPayload(draft[f.Name]))
		if f.Kind == KindImages {
			p.FileKey = f.key()
		}
	}
	if len(staged) > 0 {
		p.Files = append([]gateway.File(nil), staged...)
		if p.FileKey == "" {
			if f, ok := r.imageField(); ok {
				p.FileKey = f.key()
			}
		}
	}
	if r.Extra != nil {
		r.Extra(p, editing)
	}
	return p
}

func (r *Resource) idValue(target ID, editing bool) any {
	if r.NumericID {
		if !editing {
			return float64(0)
		}
		return target.Number()
	}
	if !editing {
		return ""
	}
	return string(target)
}

// Noun is the title used in toast copy.
func (r *Resource) Noun() string {
	if r.Title == "" {
		return "Record"
	}
	return r.Title
}

func (r *Resource) addedMessage() string {
	return orDefault(r.Messages.Added, fmt.Sprintf("%s added", r.Noun()))
}

func (r *Resource) updatedMessage() string {
	return orDefault(r.Messages.Updated, fmt.Sprintf("%s updated", r.Noun()))
}

func (r *Resource) deletedMessage() string {
	return orDefault(r.Messages.Deleted, fmt.Sprintf("%s deleted", r.Noun()))
}

func (r *Resource) invalidMessage(errs map[string]string) string {
	return orDefault(r.Messages.Invalid, r.firstError(errs))
}

func orDefault(s, def string) string {
	if s != "" {
		return s
	}
	return def
}
