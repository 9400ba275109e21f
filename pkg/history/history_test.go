package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/chazu/plantview/pkg/scene"
	"github.com/chazu/plantview/pkg/transform"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// move translates obj to x and returns the resulting record.
func move(obj *scene.Object, x float64) transform.Record {
	prev := obj.Snapshot()
	obj.SetPosition(v3.Vec{X: x})
	return transform.NewRecord(transform.Translate, obj, prev)
}

func TestStackUndoRedo(t *testing.T) {
	obj := scene.NewObject("a", "pump", scene.KindMesh)
	s := NewStack(0)

	s.Record(move(obj, 1))
	s.Record(move(obj, 2))

	if _, ok := s.Undo(); !ok {
		t.Fatal("Undo failed")
	}
	if obj.Position().X != 1 {
		t.Errorf("after one undo x = %f, want 1", obj.Position().X)
	}
	s.Undo()
	if obj.Position().X != 0 {
		t.Errorf("after two undos x = %f, want 0", obj.Position().X)
	}
	if _, ok := s.Undo(); ok {
		t.Error("Undo past the start succeeded")
	}

	if _, ok := s.Redo(); !ok {
		t.Fatal("Redo failed")
	}
	if obj.Position().X != 1 {
		t.Errorf("after redo x = %f, want 1", obj.Position().X)
	}

	// A new record drops the redo tail.
	s.Record(move(obj, 5))
	if s.RedoAvailable() {
		t.Error("redo still available after a new record")
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

func TestStackDepth(t *testing.T) {
	obj := scene.NewObject("a", "pump", scene.KindMesh)
	s := NewStack(3)
	for i := 1; i <= 5; i++ {
		s.Record(move(obj, float64(i)))
	}
	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}
	for s.UndoAvailable() {
		s.Undo()
	}
	if obj.Position().X != 2 {
		t.Errorf("oldest reachable x = %f, want 2", obj.Position().X)
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	m := Multi{
		RecorderFunc(func(transform.Record) error { calls++; return nil }),
		nil,
		RecorderFunc(func(transform.Record) error { calls++; return boom }),
	}
	err := m.Record(transform.Record{})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestJournal(t *testing.T) {
	j, err := OpenJournal(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	defer j.Close()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	j.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	pump := scene.NewObject("pump", "Pump", scene.KindMesh)
	tank := scene.NewObject("tank", "Tank", scene.KindMesh)
	for _, rec := range []transform.Record{move(pump, 1), move(tank, 3), move(pump, 2)} {
		if err := j.Record(rec); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	all, err := j.Entries("", 0)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d entries, want 3", len(all))
	}
	if all[0].UUID != "pump" || all[0].After.Position.X != 2 || all[0].Before.Position.X != 1 {
		t.Errorf("newest entry = %+v", all[0])
	}
	if all[0].Mode != transform.Translate {
		t.Errorf("mode = %s, want translate", all[0].Mode)
	}
	if !all[2].RecordedAt.Equal(base.Add(time.Second)) {
		t.Errorf("oldest RecordedAt = %v", all[2].RecordedAt)
	}

	pumps, err := j.Entries("pump", 1)
	if err != nil {
		t.Fatalf("Entries(pump): %v", err)
	}
	if len(pumps) != 1 || pumps[0].After.Position.X != 2 {
		t.Errorf("Entries(pump, 1) = %+v", pumps)
	}

	j.Close()
	if err := j.Record(move(pump, 9)); !errors.Is(err, ErrClosed) {
		t.Errorf("Record after Close = %v, want ErrClosed", err)
	}
}
