package eval

import (
	"sync/atomic"

	"github.com/rickardevertsson123/choir-practice-tool-sub000/model"
)

// SettingsHolder publishes immutable Settings snapshots. The control flow
// writes, the analysis path reads; swaps are whole-value so a reader never
// observes a half-updated configuration.
type SettingsHolder struct {
	p atomic.Pointer[model.Settings]
}

func NewSettingsHolder(s model.Settings) *SettingsHolder {
	h := &SettingsHolder{}
	h.p.Store(&s)
	return h
}

func (h *SettingsHolder) Load() model.Settings {
	return *h.p.Load()
}

func (h *SettingsHolder) Store(s model.Settings) {
	h.p.Store(&s)
}

// Update applies fn to the current snapshot and publishes the result.
// Only the control-flow side calls this.
func (h *SettingsHolder) Update(fn func(model.Settings) model.Settings) model.Settings {
	s := fn(h.Load())
	h.p.Store(&s)
	return s
}
