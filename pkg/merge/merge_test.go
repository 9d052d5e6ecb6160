package merge

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hcs-sync/engine/pkg/changeevent"
)

func fileEvent(path string) changeevent.ChangeEvent {
	return changeevent.NewFileEvent(changeevent.FileEvent{Action: changeevent.ActionCreate, Path: path})
}

func TestMergePreservesIDOrder(t *testing.T) {
	streams := [][]Entry{
		{{ID: 1, Event: fileEvent("a")}, {ID: 4, Event: fileEvent("d")}},
		{{ID: 2, Event: fileEvent("b")}, {ID: 3, Event: fileEvent("c")}, {ID: 5, Event: fileEvent("e")}},
	}

	got := Merge(streams)
	want := []Entry{
		{ID: 1, Event: fileEvent("a")},
		{ID: 2, Event: fileEvent("b")},
		{ID: 3, Event: fileEvent("c")},
		{ID: 4, Event: fileEvent("d")},
		{ID: 5, Event: fileEvent("e")},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("merge mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeEmptyStreams(t *testing.T) {
	if got := Merge(nil); len(got) != 0 {
		t.Error("expected empty merge of no streams")
	}
	if got := Merge([][]Entry{{}, {}}); len(got) != 0 {
		t.Error("expected empty merge of empty streams")
	}
}

func TestMergeSingleStream(t *testing.T) {
	streams := [][]Entry{{{ID: 1, Event: fileEvent("a")}, {ID: 2, Event: fileEvent("b")}}}
	got := Merge(streams)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 2 {
		t.Errorf("unexpected merge of a single stream: %+v", got)
	}
}
