// Package optimize implements the change-log optimizer (§4.H): grouping a
// sequence of recorded events into per-object chains and collapsing each
// chain into its minimum equivalent form via the fixed rewrite algebra,
// then merging the optimized chains back into one id-ordered sequence via
// pkg/merge.
package optimize

import (
	"github.com/hcs-sync/engine/pkg/changeevent"
	"github.com/hcs-sync/engine/pkg/logging"
	"github.com/hcs-sync/engine/pkg/merge"
)

// Entry is the package-local name for merge.Entry, kept distinct so
// callers reading this package don't need to import pkg/merge just to
// spell the input type.
type Entry = merge.Entry

// chain is an ordered sequence of entries referring to the same logical
// object, keyed by its current relative path.
type chain struct {
	path    string
	entries []Entry
}

// Optimizer runs the chain-construction and rewrite pass. Its only
// stateful concern is logging the double-move chain collision described
// in the Open Questions resolution (§9): when an incoming chain rekeys
// onto a path already holding a live chain, the incoming chain's entries
// are appended to the existing one and the collision is logged at
// LevelWarn, rather than silently discarding one side.
type Optimizer struct {
	Logger *logging.Logger
}

// New constructs an Optimizer.
func New(logger *logging.Logger) *Optimizer {
	return &Optimizer{Logger: logger}
}

// Optimize runs the full pipeline over entries, which must already be
// sorted ascending by id (as records are read back from the changes
// directory in filename order). UndoDelete and symbolic-link events are
// not consumed by the optimizer in this core (§4.H): they are skipped,
// enter neither live nor graveyard, and do not appear in the output.
func (o *Optimizer) Optimize(entries []Entry) []Entry {
	live := map[string]*chain{}
	var graveyard []*chain

	for _, e := range entries {
		if e.Event.Object == changeevent.ObjectSymlink {
			continue
		}
		action := changeevent.InnerAction(e.Event)
		if action == changeevent.ActionUndoDelete {
			continue
		}

		currentPath, newPath, isDelete := decompose(e.Event, action)

		c, ok := live[currentPath]
		if !ok {
			c = &chain{path: currentPath}
		} else {
			delete(live, currentPath)
		}
		c.entries = append(c.entries, e)

		switch {
		case isDelete:
			graveyard = append(graveyard, c)
		case newPath != "":
			c.path = newPath
			if existing, collide := live[newPath]; collide {
				o.Logger.Warnf("optimizer: chain for %s collided with a live chain at the same destination; merging", newPath)
				existing.entries = append(existing.entries, c.entries...)
			} else {
				live[newPath] = c
			}
		default:
			live[currentPath] = c
		}
	}

	streams := make([][]Entry, 0, len(live)+len(graveyard))
	for _, c := range live {
		streams = append(streams, reduce(c.entries))
	}
	for _, c := range graveyard {
		streams = append(streams, reduce(c.entries))
	}

	return merge.Merge(streams)
}

// decompose computes (current_path, new_path, is_delete) for one event per
// §4.H's chain-construction rule. new_path is "" when the event doesn't
// rekey its chain.
func decompose(e changeevent.ChangeEvent, action changeevent.Action) (current, newPath string, isDelete bool) {
	if action == changeevent.ActionMove {
		from, to := changeevent.MoveEndpoints(e)
		return from, to, false
	}
	if action == changeevent.ActionDelete {
		return changeevent.Path(e), "", true
	}
	return changeevent.Path(e), "", false
}

// fromOf returns the path an event's object had before the event: a
// Move's From, or the event's own Path for every other kind.
func fromOf(e changeevent.ChangeEvent) string {
	if changeevent.InnerAction(e) == changeevent.ActionMove {
		from, _ := changeevent.MoveEndpoints(e)
		return from
	}
	return changeevent.Path(e)
}

// reduce applies the rewrite algebra to one chain's entries, already in
// ascending id order. Chains of length < 2 are returned unchanged — the
// algebra only applies "for a chain of length >= 2" (§4.H).
func reduce(entries []Entry) []Entry {
	n := len(entries)
	if n < 2 {
		return entries
	}

	first, last := entries[0], entries[n-1]
	firstAction := changeevent.InnerAction(first.Event)
	lastAction := changeevent.InnerAction(last.Event)
	firstIsCreate := firstAction == changeevent.ActionCreate
	lastIsDelete := lastAction == changeevent.ActionDelete

	var lastMove *Entry
	for i := range entries {
		if changeevent.InnerAction(entries[i].Event) == changeevent.ActionMove {
			lastMove = &entries[i]
		}
	}

	kind := first.Event.Object

	switch {
	case firstIsCreate && lastIsDelete:
		// C ... D: the object never durably existed. Empty chain.
		return nil

	case firstIsCreate && !lastIsDelete:
		// C ... M_last ... (no terminal D): single Create at the
		// destination of the most recent move, if any; otherwise the
		// chain is pure Create+Modify and folds to the original Create.
		if lastMove != nil {
			_, to := changeevent.MoveEndpoints(lastMove.Event)
			return []Entry{{ID: lastMove.ID, Event: makeCreate(kind, to)}}
		}
		return []Entry{{ID: first.ID, Event: makeCreate(kind, changeevent.Path(first.Event))}}

	case !firstIsCreate && lastIsDelete:
		// Y_first ... M_last ... D: collapses to a single Delete if the
		// chain never left its original path, else a Move followed by a
		// Delete at the final path.
		headFrom := fromOf(first.Event)
		deletePath := changeevent.Path(last.Event)
		if headFrom == deletePath {
			return []Entry{{ID: last.ID, Event: makeDelete(kind, deletePath)}}
		}
		return []Entry{
			{ID: first.ID, Event: makeMove(kind, headFrom, deletePath)},
			{ID: last.ID, Event: makeDelete(kind, deletePath)},
		}

	default:
		// No Create head, no terminal Delete.
		if lastMove == nil {
			// Only Modify events: the first one stands for the whole run.
			return []Entry{{ID: first.ID, Event: makeModify(kind, changeevent.Path(first.Event))}}
		}
		headFrom := fromOf(first.Event)
		_, lastTo := changeevent.MoveEndpoints(lastMove.Event)
		if lastAction == changeevent.ActionModify {
			// M_last ... Y_first (trailing modifies after the last move):
			// a Move to the final destination, then a Modify there.
			return []Entry{
				{ID: first.ID, Event: makeMove(kind, headFrom, lastTo)},
				{ID: last.ID, Event: makeModify(kind, lastTo)},
			}
		}
		// Pure moves (with or without leading modifies that carry no
		// separate observable effect): a single Move end to end.
		return []Entry{{ID: first.ID, Event: makeMove(kind, headFrom, lastTo)}}
	}
}

func makeCreate(kind changeevent.ObjectKind, path string) changeevent.ChangeEvent {
	if kind == changeevent.ObjectDirectory {
		return changeevent.NewDirEvent(changeevent.DirEvent{Action: changeevent.ActionCreate, Path: path})
	}
	return changeevent.NewFileEvent(changeevent.FileEvent{Action: changeevent.ActionCreate, Path: path})
}

func makeModify(kind changeevent.ObjectKind, path string) changeevent.ChangeEvent {
	// Directories never carry Modify in the rewrite algebra (§4.H); this
	// branch is unreachable for ObjectDirectory by construction.
	return changeevent.NewFileEvent(changeevent.FileEvent{Action: changeevent.ActionModify, Path: path})
}

func makeMove(kind changeevent.ObjectKind, from, to string) changeevent.ChangeEvent {
	if kind == changeevent.ObjectDirectory {
		return changeevent.NewDirEvent(changeevent.DirEvent{Action: changeevent.ActionMove, From: from, To: to})
	}
	return changeevent.NewFileEvent(changeevent.FileEvent{Action: changeevent.ActionMove, From: from, To: to})
}

func makeDelete(kind changeevent.ObjectKind, path string) changeevent.ChangeEvent {
	if kind == changeevent.ObjectDirectory {
		return changeevent.NewDirEvent(changeevent.DirEvent{Action: changeevent.ActionDelete, Path: path})
	}
	return changeevent.NewFileEvent(changeevent.FileEvent{Action: changeevent.ActionDelete, Path: path})
}
