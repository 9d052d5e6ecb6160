package changeevent

import (
	"fmt"
	"strings"
)

// Opcode is one of the eight bit-exact opcodes of §6's on-disk record
// format. The set is closed; an unrecognized opcode is a parse error.
type Opcode string

const (
	OpCreateFile Opcode = "create_file"
	OpCreateDir  Opcode = "create_dir"
	OpModifyFile Opcode = "modify_file"
	OpModifyDir  Opcode = "modify_dir"
	OpMoveFile   Opcode = "move_file"
	OpMoveDir    Opcode = "move_dir"
	OpDeleteFile Opcode = "delete_file"
	OpDeleteDir  Opcode = "delete_dir"
)

// isMoveOpcode reports whether an opcode uses the two-line from/to record
// form rather than the single-line path form.
func isMoveOpcode(op Opcode) bool {
	return op == OpMoveFile || op == OpMoveDir
}

// Record is the on-disk change-record text format (§6): an opcode and
// either one relative path (create/modify/delete) or two (move, from then
// to).
type Record struct {
	Opcode Opcode
	Path   string
	From   string
	To     string
}

// Format renders a Record as the exact byte sequence written to a change
// record file: "<opcode>\n<path>" or "<opcode>\n<from>\n<to>", with no
// trailing newline.
func (r Record) Format() []byte {
	if isMoveOpcode(r.Opcode) {
		return []byte(fmt.Sprintf("%s\n%s\n%s", r.Opcode, r.From, r.To))
	}
	return []byte(fmt.Sprintf("%s\n%s", r.Opcode, r.Path))
}

// ParseRecord parses the exact byte sequence of a change record file back
// into a Record. It accepts all eight opcodes verbatim (§6: "an
// implementation MUST produce and accept them verbatim"), including
// move_dir, which this engine's recorder never itself produces but which
// must still round-trip if encountered (e.g. from a record produced by a
// different implementation of this format).
func ParseRecord(data []byte) (Record, error) {
	lines := strings.Split(string(data), "\n")
	if len(lines) < 2 {
		return Record{}, fmt.Errorf("change record has fewer than two lines")
	}

	opcode := Opcode(lines[0])
	switch opcode {
	case OpCreateFile, OpCreateDir, OpModifyFile, OpModifyDir, OpDeleteFile, OpDeleteDir:
		return Record{Opcode: opcode, Path: lines[1]}, nil
	case OpMoveFile, OpMoveDir:
		if len(lines) < 3 {
			return Record{}, fmt.Errorf("move change record has fewer than three lines")
		}
		return Record{Opcode: opcode, From: lines[1], To: lines[2]}, nil
	default:
		return Record{}, fmt.Errorf("unrecognized change record opcode %q", lines[0])
	}
}

// ToChangeEvent converts a parsed Record into the in-memory ChangeEvent the
// optimizer operates on. Size and symlink targets aren't part of the
// on-disk record, so file events round-tripped through a Record always
// carry Size 0 (§4.D: "0 when unknown").
func (r Record) ToChangeEvent() (ChangeEvent, error) {
	switch r.Opcode {
	case OpCreateFile:
		return NewFileEvent(FileEvent{Action: ActionCreate, Path: r.Path}), nil
	case OpModifyFile:
		return NewFileEvent(FileEvent{Action: ActionModify, Path: r.Path}), nil
	case OpDeleteFile:
		return NewFileEvent(FileEvent{Action: ActionDelete, Path: r.Path}), nil
	case OpMoveFile:
		return NewFileEvent(FileEvent{Action: ActionMove, From: r.From, To: r.To}), nil
	case OpCreateDir:
		return NewDirEvent(DirEvent{Action: ActionCreate, Path: r.Path}), nil
	case OpDeleteDir:
		return NewDirEvent(DirEvent{Action: ActionDelete, Path: r.Path}), nil
	case OpMoveDir:
		return NewDirEvent(DirEvent{Action: ActionMove, From: r.From, To: r.To}), nil
	case OpModifyDir:
		return ChangeEvent{}, fmt.Errorf("modify_dir records are never emitted and have no ChangeEvent form")
	default:
		return ChangeEvent{}, fmt.Errorf("unrecognized opcode %q", r.Opcode)
	}
}

// FromChangeEvent converts a ChangeEvent into the Record the recorder
// writes for it. It panics for combinations the recorder never emits
// (modify_dir, any symlink or undo-delete event) — those are structural
// bugs in the caller, matching §7 error kind 6.
func FromChangeEvent(e ChangeEvent) Record {
	switch e.Object {
	case ObjectFile:
		switch e.File.Action {
		case ActionCreate:
			return Record{Opcode: OpCreateFile, Path: e.File.Path}
		case ActionModify:
			return Record{Opcode: OpModifyFile, Path: e.File.Path}
		case ActionDelete:
			return Record{Opcode: OpDeleteFile, Path: e.File.Path}
		case ActionMove:
			return Record{Opcode: OpMoveFile, From: e.File.From, To: e.File.To}
		}
	case ObjectDirectory:
		switch e.Dir.Action {
		case ActionCreate:
			return Record{Opcode: OpCreateDir, Path: e.Dir.Path}
		case ActionDelete:
			return Record{Opcode: OpDeleteDir, Path: e.Dir.Path}
		case ActionMove:
			return Record{Opcode: OpMoveDir, From: e.Dir.From, To: e.Dir.To}
		}
	}
	panic(fmt.Sprintf("changeevent: no record form for object %d action %d", e.Object, InnerAction(e)))
}
