// Package ids defines the stable opaque identifiers addressed throughout
// the clip engine: MatrixId, ColumnId, RowId, SlotId, ClipId.
// They are the persistent identity used for diffing when a grid is
// reloaded from the excluded persistence layer — grid *position*
// (column_index, row_index) is a separate, unstable addressing scheme
// handled by [Address].
package ids

import "github.com/google/uuid"

// MatrixId identifies a matrix (the top-level grid owner).
type MatrixId struct{ uuid.UUID }

// ColumnId identifies a column within a matrix.
type ColumnId struct{ uuid.UUID }

// RowId identifies a row (scene) within a matrix.
type RowId struct{ uuid.UUID }

// SlotId identifies a slot at a (column, row) address.
type SlotId struct{ uuid.UUID }

// ClipId identifies one clip within a slot.
type ClipId struct{ uuid.UUID }

// NewMatrixId generates a fresh random matrix identifier.
func NewMatrixId() MatrixId { return MatrixId{uuid.New()} }

// NewColumnId generates a fresh random column identifier.
func NewColumnId() ColumnId { return ColumnId{uuid.New()} }

// NewRowId generates a fresh random row identifier.
func NewRowId() RowId { return RowId{uuid.New()} }

// NewSlotId generates a fresh random slot identifier.
func NewSlotId() SlotId { return SlotId{uuid.New()} }

// NewClipId generates a fresh random clip identifier.
func NewClipId() ClipId { return ClipId{uuid.New()} }

// Address is a grid position: (column_index, row_index). Positions are
// not stable identity — they change on reorder — the IDs above are.
type Address struct {
	ColumnIndex int
	RowIndex    int
}
