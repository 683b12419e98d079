package crud

// DeleteGate is the two-step delete flow: Idle, PendingConfirm(id), Deleting.
// Only one deletion can be pending or running at a time.
type DeleteGate struct {
	pending  ID
	armed    bool
	deleting bool
}

// Request moves the gate to PendingConfirm for id. A pending id is replaced.
func (g *DeleteGate) Request(id ID) error {
	if g.deleting {
		return ErrBusy
	}
	g.pending, g.armed = id, true
	return nil
}

// Cancel returns to Idle without touching the backend.
func (g *DeleteGate) Cancel() error {
	if g.deleting {
		return ErrBusy
	}
	g.pending, g.armed = "", false
	return nil
}

// Pending returns the id awaiting confirmation.
func (g *DeleteGate) Pending() (ID, bool) {
	return g.pending, g.armed
}

func (g *DeleteGate) Deleting() bool {
	return g.deleting
}

// begin moves PendingConfirm to Deleting. ok is false when nothing is pending.
func (g *DeleteGate) begin() (id ID, ok bool, err error) {
	if g.deleting {
		return "", false, ErrBusy
	}
	if !g.armed {
		return "", false, nil
	}
	g.deleting = true
	return g.pending, true, nil
}

// finish ends a deletion. Success returns to Idle; failure keeps the id pending
// so the user may retry or cancel.
func (g *DeleteGate) finish(success bool) {
	g.deleting = false
	if success {
		g.pending, g.armed = "", false
	}
}
