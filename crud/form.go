package crud

import (
	"babyshop/gateway"
)

// FormSession is the create/edit modal. An empty target means create mode.
type FormSession struct {
	open    bool
	target  ID
	editing bool
	draft   Record
	errors  map[string]string
	staged  []gateway.File
	saving  bool
	loading bool
}

// OpenCreate resets the draft to defaults in create mode.
func (f *FormSession) OpenCreate(defaults Record) {
	f.reset(defaults)
	f.open = true
}

// OpenEdit opens the modal for id; the draft stays at defaults until Fill.
func (f *FormSession) OpenEdit(id ID, defaults Record) {
	f.reset(defaults)
	f.open = true
	f.target = id
	f.editing = true
}

// Fill overwrites draft values from a fetched record.
func (f *FormSession) Fill(values Record) {
	for k, v := range values {
		f.draft[k] = v
	}
}

func (f *FormSession) Set(name string, value any) {
	f.draft[name] = value
	delete(f.errors, name)
}

// Close discards the draft and returns to create mode.
func (f *FormSession) Close() {
	f.reset(nil)
	f.open = false
}

func (f *FormSession) reset(defaults Record) {
	f.target, f.editing = "", false
	f.draft = defaults.Clone()
	f.errors = map[string]string{}
	f.staged = nil
	f.loading = false
}

// Target returns the edit target; ok is false in create mode.
func (f *FormSession) Target() (ID, bool) {
	return f.target, f.editing
}

func (f *FormSession) Draft() Record {
	return f.draft.Clone()
}

func (f *FormSession) Errors() map[string]string {
	out := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

func (f *FormSession) Staged() []gateway.File {
	return append([]gateway.File(nil), f.staged...)
}
