package crud

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"babyshop/gateway"
)

// Manager is one admin screen: list, form, delete gate and toasts for a single
// resource. Busy flags are the only mutual exclusion; the lock is never held
// across a backend call.
type Manager struct {
	res     *Resource
	toaster *Toaster
	logger  *logrus.Entry

	mu      sync.Mutex
	list    *ListStore
	form    FormSession
	gate    DeleteGate
	loading bool
	loaded  bool
	live    bool
	options map[string][]Option
}

func NewManager(res *Resource, toaster *Toaster, logger *logrus.Entry) *Manager {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	m := &Manager{
		res:     res,
		toaster: toaster,
		logger:  logger.WithField("resource", res.Name),
		list:    NewListStore(res.IDField, res.SearchFields, res.PageSize),
		options: map[string][]Option{},
	}
	m.list.trim = res.TrimSearch
	m.form.Close()
	return m
}

func (m *Manager) Resource() *Resource {
	return m.res
}

// Start subscribes to a pushing backend. Plain backends need nothing.
func (m *Manager) Start(ctx context.Context) error {
	w, ok := m.res.Backend.(Watcher)
	if !ok {
		return nil
	}
	ch, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch %s: %w", m.res.Name, err)
	}
	m.mu.Lock()
	m.live = true
	m.mu.Unlock()
	go func() {
		for range ch {
			_ = m.Load(ctx)
		}
	}()
	return nil
}

// Live reports whether the list follows backend pushes.
func (m *Manager) Live() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live
}

// Load replaces the list from the backend. On failure the previous list is
// kept and an error toast is shown.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	m.loading = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
	}()

	raw, err := m.res.Backend.List(ctx)
	if err != nil {
		m.fail("load", err, "Load Failed", "Failed to load")
		return err
	}
	rows := make([]Record, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, m.res.Normalize(r))
	}

	m.mu.Lock()
	m.list.Replace(rows)
	m.loaded = true
	dropped := m.reconcile()
	m.mu.Unlock()

	if dropped {
		m.toaster.Info("Record Removed", "The record you were editing no longer exists.")
	}
	m.loadOptions(ctx)
	return nil
}

// reconcile forgets a pending delete or edit target that the reloaded list no
// longer holds. It reports whether an open edit form was closed. Callers hold
// m.mu.
func (m *Manager) reconcile() bool {
	if pending, armed := m.gate.Pending(); armed && !m.gate.Deleting() {
		if _, ok := m.list.Find(pending); !ok {
			_ = m.gate.Cancel()
		}
	}
	target, editing := m.form.Target()
	if !m.form.open || !editing || m.form.saving {
		return false
	}
	if _, ok := m.list.Find(target); ok {
		return false
	}
	m.form.Close()
	return true
}

func (m *Manager) loadOptions(ctx context.Context) {
	for _, f := range m.res.Fields {
		if f.Lookup == nil {
			continue
		}
		opts, err := f.Lookup(ctx)
		if err != nil {
			m.fail("options", err, "Load Failed", "Failed to load options")
			opts = []Option{}
		}
		m.mu.Lock()
		m.options[f.Name] = opts
		// a selection that is no longer offered falls back to the zero value
		if cur := IDOf(m.form.draft[f.Name]); m.form.open && cur != "" && cur != "0" && !offered(opts, cur) {
			m.form.draft[f.Name] = f.zero()
		}
		m.mu.Unlock()
	}
}

func offered(opts []Option, v ID) bool {
	for _, o := range opts {
		if IDOf(o.Value) == v {
			return true
		}
	}
	return false
}

// OpenCreate opens an empty form.
func (m *Manager) OpenCreate() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.form.saving {
		return ErrBusy
	}
	m.form.OpenCreate(m.res.Defaults())
	return nil
}

// OpenEdit opens the form for a listed record and fills it from the backend.
// The form is open before the fetch returns; a failed fetch leaves it open.
func (m *Manager) OpenEdit(ctx context.Context, id ID) error {
	m.mu.Lock()
	if m.form.saving {
		m.mu.Unlock()
		return ErrBusy
	}
	if _, ok := m.list.Find(id); !ok {
		m.mu.Unlock()
		return ErrUnknownRecord
	}
	m.form.OpenEdit(id, m.res.Defaults())
	m.form.loading = true
	m.mu.Unlock()

	raw, err := m.res.Backend.Get(ctx, id)

	m.mu.Lock()
	current, editing := m.form.Target()
	if editing && current == id {
		m.form.loading = false
	}
	if err != nil {
		m.mu.Unlock()
		m.fail("get", err, "Edit Load Failed", "Failed to load record")
		return err
	}
	if m.form.open && editing && current == id {
		m.form.Fill(m.res.DraftFrom(raw))
	}
	m.mu.Unlock()
	return nil
}

// SetField changes one draft value.
func (m *Manager) SetField(name string, value any) error {
	f, ok := m.res.Field(name)
	if !ok || f.Kind == KindImages {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.form.open {
		return ErrFormClosed
	}
	m.form.Set(name, value)
	return nil
}

// StageFiles adds uploads to the form. Image lists keep image files only, up
// to the field's cap; a photo field turns the first file into a data URL.
func (m *Manager) StageFiles(files []gateway.File) error {
	f, ok := m.res.imageField()
	if !ok {
		return fmt.Errorf("%w: %s has no image field", ErrUnknownField, m.res.Name)
	}
	if f.Kind == KindPhoto {
		return m.stagePhoto(f, files)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.form.open {
		return ErrFormClosed
	}
	hosted := len(ToStrings(m.form.draft[f.Name]))
	for _, file := range files {
		if !file.IsImage() {
			continue
		}
		if f.MaxFiles > 0 && hosted+len(m.form.staged) >= f.MaxFiles {
			break
		}
		m.form.staged = append(m.form.staged, file)
	}
	delete(m.form.errors, f.Name)
	return nil
}

func (m *Manager) stagePhoto(f Field, files []gateway.File) error {
	if len(files) == 0 {
		return nil
	}
	file := files[0]
	if !file.IsImage() {
		m.toaster.Error("Invalid File", "Only image files allowed.")
		return ErrInvalidFile
	}
	if f.MaxBytes > 0 && len(file.Data) > f.MaxBytes {
		m.toaster.Error("Too Large", fmt.Sprintf("Image must be less than %dMB.", f.MaxBytes/(1<<20)))
		return ErrInvalidFile
	}
	dataURL := "data:" + file.ContentType + ";base64," + base64.StdEncoding.EncodeToString(file.Data)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.form.open {
		return ErrFormClosed
	}
	m.form.Set(f.Name, dataURL)
	return nil
}

// RemoveImage drops the index-th image, hosted images first then staged ones.
func (m *Manager) RemoveImage(index int) error {
	f, ok := m.res.imageField()
	if !ok {
		return fmt.Errorf("%w: %s has no image field", ErrUnknownField, m.res.Name)
	}
	m.mu.Lock()
	if !m.form.open {
		m.mu.Unlock()
		return ErrFormClosed
	}
	if f.Kind == KindPhoto {
		m.form.Set(f.Name, "")
		m.mu.Unlock()
		return nil
	}
	hosted := ToStrings(m.form.draft[f.Name])
	switch {
	case index < 0 || index >= len(hosted)+len(m.form.staged):
		m.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrImageIndex, index)
	case index < len(hosted):
		if m.res.LockServerImages {
			m.mu.Unlock()
			m.toaster.Info("Info", "Existing images are kept by the server and cannot be removed here.")
			return ErrImageLocked
		}
		m.form.draft[f.Name] = append(hosted[:index:index], hosted[index+1:]...)
	default:
		i := index - len(hosted)
		m.form.staged = append(m.form.staged[:i:i], m.form.staged[i+1:]...)
	}
	m.mu.Unlock()
	return nil
}

// CloseForm discards the draft.
func (m *Manager) CloseForm() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.form.saving {
		return ErrBusy
	}
	m.form.Close()
	return nil
}

// Submit validates the draft and dispatches create or update. On failure the
// form stays open with the draft intact.
func (m *Manager) Submit(ctx context.Context) error {
	m.mu.Lock()
	if !m.form.open {
		m.mu.Unlock()
		return ErrFormClosed
	}
	if m.form.saving {
		m.mu.Unlock()
		return ErrBusy
	}
	target, editing := m.form.Target()
	errs := m.res.Validate(m.form.draft, len(m.form.staged), editing)
	m.form.errors = errs
	if len(errs) > 0 {
		m.mu.Unlock()
		m.toaster.Error("Validation", m.res.invalidMessage(errs))
		return &ValidationError{Fields: errs, First: m.res.firstError(errs)}
	}
	payload := m.res.BuildPayload(m.form.draft, m.form.staged, target, editing)
	m.form.saving = true
	m.mu.Unlock()

	if err := m.save(ctx, target, editing, payload); err != nil {
		m.fail("save", err, "Save Failed", "Request failed")
		return err
	}

	m.mu.Lock()
	m.form.Close()
	live := m.live
	m.mu.Unlock()

	if editing {
		m.toaster.Success("Updated", m.res.updatedMessage())
	} else {
		m.toaster.Success("Saved", m.res.addedMessage())
	}
	if !live {
		_ = m.Load(ctx)
	}
	return nil
}

func (m *Manager) save(ctx context.Context, target ID, editing bool, p *Payload) error {
	defer func() {
		m.mu.Lock()
		m.form.saving = false
		m.mu.Unlock()
	}()
	if editing {
		return m.res.Backend.Update(ctx, target, p)
	}
	return m.res.Backend.Create(ctx, p)
}

// RequestDelete arms the delete gate for a listed record.
func (m *Manager) RequestDelete(id ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.list.Find(id); !ok {
		return ErrUnknownRecord
	}
	return m.gate.Request(id)
}

// CancelDelete disarms the gate.
func (m *Manager) CancelDelete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gate.Cancel()
}

// ConfirmDelete deletes the pending record. With nothing pending it does
// nothing; on failure the record stays pending.
func (m *Manager) ConfirmDelete(ctx context.Context) error {
	m.mu.Lock()
	id, ok, err := m.gate.begin()
	m.mu.Unlock()
	if err != nil || !ok {
		return err
	}

	if err := m.remove(ctx, id); err != nil {
		m.fail("delete", err, "Delete Failed", "Delete failed")
		return err
	}
	m.toaster.Success("Deleted", m.res.deletedMessage())

	m.mu.Lock()
	live := m.live
	m.mu.Unlock()
	if !live {
		_ = m.Load(ctx)
	}
	return nil
}

func (m *Manager) remove(ctx context.Context, id ID) (err error) {
	defer func() {
		m.mu.Lock()
		m.gate.finish(err == nil)
		m.mu.Unlock()
	}()
	return m.res.Backend.Delete(ctx, id)
}

// Clear wipes every record of a backend that supports it.
func (m *Manager) Clear(ctx context.Context) error {
	c, ok := m.res.Backend.(Clearer)
	if !ok {
		return fmt.Errorf("%w: %s cannot be cleared", ErrUnsupported, m.res.Name)
	}
	m.mu.Lock()
	if m.form.saving || m.gate.Deleting() {
		m.mu.Unlock()
		return ErrBusy
	}
	m.mu.Unlock()

	if err := c.Clear(ctx); err != nil {
		m.fail("clear", err, "Clear Failed", "Failed to clear")
		return err
	}
	m.mu.Lock()
	_ = m.gate.Cancel()
	m.mu.Unlock()
	m.toaster.Info("Cleared", orDefault(m.res.Messages.Cleared, "All records removed."))
	return m.Load(ctx)
}

func (m *Manager) SetSearch(q string) {
	m.mu.Lock()
	m.list.SetSearch(q)
	m.mu.Unlock()
}

func (m *Manager) SetPage(page int) {
	m.mu.Lock()
	m.list.SetPage(page)
	m.mu.Unlock()
}

// SetPageSize changes the rows per page and returns to the first page.
func (m *Manager) SetPageSize(n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list.SetPageSize(n)
}

func (m *Manager) DismissToast() {
	m.toaster.Dismiss()
}

func (m *Manager) fail(op string, err error, title, fallback string) {
	msg := gateway.Message(err, fallback)
	m.logger.WithFields(logrus.Fields{"op": op}).WithError(err).Warn("resource operation failed")
	m.toaster.Error(title, msg)
}

// FormState is the form part of a State snapshot.
type FormState struct {
	Open    bool              `json:"open"`
	Editing bool              `json:"editing"`
	Target  ID                `json:"target,omitempty"`
	Draft   Record            `json:"draft"`
	Errors  map[string]string `json:"errors"`
	Staged  []gateway.File    `json:"staged"`
	Saving  bool              `json:"saving"`
	Loading bool              `json:"loading"`
}

// DeleteState is the delete gate part of a State snapshot.
type DeleteState struct {
	Pending  ID   `json:"pending,omitempty"`
	Armed    bool `json:"armed"`
	Deleting bool `json:"deleting"`
}

// State is a consistent snapshot of a screen.
type State struct {
	Resource string              `json:"resource"`
	Title    string              `json:"title"`
	Loading  bool                `json:"loading"`
	Loaded   bool                `json:"loaded"`
	Live     bool                `json:"live"`
	Search   string              `json:"search"`
	Page     Page                `json:"page"`
	Form     FormState           `json:"form"`
	Delete   DeleteState         `json:"delete"`
	Options  map[string][]Option `json:"options"`
	Toast    *Toast              `json:"toast,omitempty"`
}

func (m *Manager) State() State {
	m.mu.Lock()
	pending, armed := m.gate.Pending()
	target, editing := m.form.Target()
	opts := make(map[string][]Option, len(m.options))
	for k, v := range m.options {
		opts[k] = append([]Option(nil), v...)
	}
	st := State{
		Resource: m.res.Name,
		Title:    m.res.Title,
		Loading:  m.loading,
		Loaded:   m.loaded,
		Live:     m.live,
		Search:   m.list.Search(),
		Page:     m.list.View(),
		Form: FormState{
			Open:    m.form.open,
			Editing: editing,
			Target:  target,
			Draft:   m.form.Draft(),
			Errors:  m.form.Errors(),
			Staged:  m.form.Staged(),
			Saving:  m.form.saving,
			Loading: m.form.loading,
		},
		Delete:  DeleteState{Pending: pending, Armed: armed, Deleting: m.gate.Deleting()},
		Options: opts,
	}
	m.mu.Unlock()
	if t, ok := m.toaster.Current(); ok {
		st.Toast = &t
	}
	return st
}

// IsValidation reports whether err came from draft validation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
