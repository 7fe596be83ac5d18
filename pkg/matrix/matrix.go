// Package matrix implements the clip engine's Matrix RT façade: the
// only object a host audio callback reaches for operations
// that span columns, backed by an atomically-swappable column handle
// list so reorder/insert/remove on the control thread never blocks a
// concurrent façade call.
package matrix

import (
	"sync/atomic"

	"github.com/justyntemme/clipgrid/pkg/bridge"
	"github.com/justyntemme/clipgrid/pkg/clip"
	"github.com/justyntemme/clipgrid/pkg/column"
	"github.com/justyntemme/clipgrid/pkg/ids"
)

// ColumnHandle pairs a column's identity with the column itself, the
// unit the façade's handle list is built from; Column.SendCommand
// already is the per-column command sender, so the handle only needs
// to carry the column itself.
type ColumnHandle struct {
	ID     ids.ColumnId
	Column *column.Column
}

// Command is the matrix-level command set: the same façade operations
// exposed as direct methods, routed instead through a bounded MPSC so a
// control thread on a different goroutine can reach the façade without
// a shared lock.
type Command interface{ isMatrixCommand() }

type PlayScene struct {
	RowIndex int
	Pos      float64
}

type StopAll struct{ Pos float64 }

type ProcessTransportChange struct{}

// SetColumnHandles replaces the façade's column list in one atomic
// swap.
type SetColumnHandles struct{ Handles []ColumnHandle }

func (PlayScene) isMatrixCommand()              {}
func (StopAll) isMatrixCommand()                {}
func (ProcessTransportChange) isMatrixCommand() {}
func (SetColumnHandles) isMatrixCommand()       {}

// Matrix is the RT façade: every method is non-blocking and safe to
// call from the audio thread, since it only reads the current handle
// list and forwards try-send commands to columns.
type Matrix struct {
	handles  atomic.Pointer[[]ColumnHandle]
	commands *bridge.CommandBridge[Command]
}

// New creates an empty façade, optionally wired to a command bridge
// for cross-thread dispatch (nil is valid if the embedding host only
// ever calls the façade's methods directly from one thread).
func New(commands *bridge.CommandBridge[Command]) *Matrix {
	m := &Matrix{commands: commands}
	empty := []ColumnHandle{}
	m.handles.Store(&empty)
	return m
}

// SendCommand enqueues cmd for a later DrainCommands call; it never
// blocks.
func (m *Matrix) SendCommand(cmd Command) {
	if m.commands != nil {
		m.commands.Send(cmd)
	}
}

// DrainCommands applies every pending matrix command, in send order.
// A host that drives the façade directly from a single thread doesn't
// need to call this at all.
func (m *Matrix) DrainCommands() {
	if m.commands == nil {
		return
	}
	for {
		cmd, ok := m.commands.TryReceive()
		if !ok {
			return
		}
		switch v := cmd.(type) {
		case SetColumnHandles:
			m.SetColumnHandles(v.Handles)
		case PlayScene:
			m.PlayScene(v.RowIndex, v.Pos)
		case StopAll:
			m.StopAll(v.Pos)
		case ProcessTransportChange:
			m.ProcessTransportChange()
		}
	}
}

// SetColumnHandles stores handles as the façade's new column list with
// a single atomic pointer swap; any façade call already in flight
// finishes against whichever list it already loaded.
func (m *Matrix) SetColumnHandles(handles []ColumnHandle) {
	cp := append([]ColumnHandle(nil), handles...)
	m.handles.Store(&cp)
}

func (m *Matrix) columns() []ColumnHandle {
	return *m.handles.Load()
}

// Columns returns the façade's current column list, for a host
// callback that needs to Process every column itself each block.
func (m *Matrix) Columns() []ColumnHandle {
	return m.columns()
}

// PlayScene issues PlayRow(rowIndex) to every column; each column
// independently decides whether its play-mode honors scenes.
func (m *Matrix) PlayScene(rowIndex int, pos float64) {
	for _, h := range m.columns() {
		h.Column.SendCommand(column.PlayRow{RowIndex: rowIndex, Pos: pos})
	}
}

// StopAll issues a Stop targeted at pos to every column.
func (m *Matrix) StopAll(pos float64) {
	for _, h := range m.columns() {
		h.Column.SendCommand(column.Stop{Target: clip.StopTarget{Pos: pos}})
	}
}

// ProcessTransportChange notifies every column of a host transport
// discontinuity; each emits TransportResynced on its next running block.
func (m *Matrix) ProcessTransportChange() {
	for _, h := range m.columns() {
		h.Column.SendCommand(column.ProcessTransportChange{})
	}
}
