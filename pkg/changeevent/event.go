// Package changeevent models the change-event tagged union (§3, §4.D) and
// the on-disk change-record text format (§6) that the recorder writes and
// the optimizer reads back.
//
// Per §9's design note, this is modeled as a closed tagged union per
// object kind (FileEvent, DirEvent, SymEvent) rather than a polymorphic
// interface with per-variant methods, with a single free function,
// InnerAction, standing in for the source's virtual dispatch. That keeps
// exhaustiveness checking at the switch statement rather than scattered
// across method sets.
package changeevent

import "fmt"

// Action is the inner action of a change event: one of the five kinds in
// §3's tagged union. Not every (ObjectKind, Action) pair is reachable: a
// DirEvent never carries ActionModify (directory modifications are implicit
// in child events, §4.E modify_dir), and a SymEvent never carries
// ActionUndoDelete.
type Action int

const (
	ActionCreate Action = iota
	ActionModify
	ActionMove
	ActionDelete
	ActionUndoDelete
)

// String renders an Action for diagnostics.
func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionModify:
		return "modify"
	case ActionMove:
		return "move"
	case ActionDelete:
		return "delete"
	case ActionUndoDelete:
		return "undo_delete"
	default:
		return "unknown"
	}
}

// ObjectKind identifies which of the three per-kind event shapes a
// ChangeEvent carries.
type ObjectKind int

const (
	ObjectFile ObjectKind = iota
	ObjectDirectory
	ObjectSymlink
)

// FileEvent is the file variant: Create/Modify carry Size and Path; Move
// carries From/To; Delete and UndoDelete carry Path.
type FileEvent struct {
	Action Action
	Path   string
	From   string
	To     string
	Size   uint64
}

// DirEvent is the directory variant. It never carries ActionModify.
type DirEvent struct {
	Action Action
	Path   string
	From   string
	To     string
}

// SymEvent is the symbolic link variant. It never carries
// ActionUndoDelete.
type SymEvent struct {
	Action Action
	Path   string
	Target string
}

// ChangeEvent is the outer tagged union over object kind (§3). Exactly one
// of File, Dir, Sym is populated, matching Object.
type ChangeEvent struct {
	Object ObjectKind
	File   *FileEvent
	Dir    *DirEvent
	Sym    *SymEvent
}

// InnerAction is the free function standing in for the per-variant method
// the source used; it returns the action common to all three event shapes.
func InnerAction(e ChangeEvent) Action {
	switch e.Object {
	case ObjectFile:
		return e.File.Action
	case ObjectDirectory:
		return e.Dir.Action
	case ObjectSymlink:
		return e.Sym.Action
	default:
		panic(fmt.Sprintf("changeevent: unhandled object kind %d", e.Object))
	}
}

// Path returns the event's primary path: the single path for
// Create/Modify/Delete/UndoDelete variants, or the "to" path for a Move
// (the object's path after the event is applied).
func Path(e ChangeEvent) string {
	switch e.Object {
	case ObjectFile:
		if e.File.Action == ActionMove {
			return e.File.To
		}
		return e.File.Path
	case ObjectDirectory:
		if e.Dir.Action == ActionMove {
			return e.Dir.To
		}
		return e.Dir.Path
	case ObjectSymlink:
		return e.Sym.Path
	default:
		panic(fmt.Sprintf("changeevent: unhandled object kind %d", e.Object))
	}
}

// MoveEndpoints returns the from/to paths of a Move event. It panics if e
// does not carry ActionMove.
func MoveEndpoints(e ChangeEvent) (from, to string) {
	if InnerAction(e) != ActionMove {
		panic("changeevent: MoveEndpoints called on a non-move event")
	}
	switch e.Object {
	case ObjectFile:
		return e.File.From, e.File.To
	case ObjectDirectory:
		return e.Dir.From, e.Dir.To
	default:
		panic(fmt.Sprintf("changeevent: unhandled object kind %d", e.Object))
	}
}

// NewFileEvent constructs a ChangeEvent wrapping a FileEvent.
func NewFileEvent(event FileEvent) ChangeEvent {
	return ChangeEvent{Object: ObjectFile, File: &event}
}

// NewDirEvent constructs a ChangeEvent wrapping a DirEvent.
func NewDirEvent(event DirEvent) ChangeEvent {
	if event.Action == ActionModify {
		panic("changeevent: directory events never carry ActionModify")
	}
	return ChangeEvent{Object: ObjectDirectory, Dir: &event}
}

// NewSymEvent constructs a ChangeEvent wrapping a SymEvent.
func NewSymEvent(event SymEvent) ChangeEvent {
	if event.Action == ActionUndoDelete {
		panic("changeevent: symlink events never carry ActionUndoDelete")
	}
	return ChangeEvent{Object: ObjectSymlink, Sym: &event}
}
