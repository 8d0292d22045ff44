package resource

import (
	"testing"

	"github.com/wippyai/wasm-gl/errors"
)

type testObserver struct {
	events []Event
}

func (o *testObserver) OnResourceEvent(e Event) {
	o.events = append(o.events, e)
}

func TestTable_Basic(t *testing.T) {
	table := NewTable[string]("buffer")

	h := table.Add("test")
	if h == 0 {
		t.Fatal("Expected non-zero handle")
	}

	val, err := table.Get(h)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if val != "test" {
		t.Fatalf("Expected 'test', got %v", val)
	}
	if !table.Has(h) {
		t.Fatal("Has should report a live handle")
	}

	val, err = table.Remove(h)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if val != "test" {
		t.Fatalf("Expected 'test', got %v", val)
	}

	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Remove")
	}
	if table.Has(h) {
		t.Fatal("Has should be false after Remove")
	}
}

func TestTable_GetUntilRemove(t *testing.T) {
	table := NewTable[int]("program")

	handles := make([]Handle, 0, 16)
	for i := 0; i < 16; i++ {
		handles = append(handles, table.Add(i*10))
	}
	for i, h := range handles {
		for n := 0; n < 3; n++ {
			v, err := table.Get(h)
			if err != nil || v != i*10 {
				t.Fatalf("Get(%d) = %v, %v; want %d", h, v, err, i*10)
			}
		}
	}
	for _, h := range handles {
		if _, err := table.Remove(h); err != nil {
			t.Fatalf("Remove(%d): %v", h, err)
		}
		if _, err := table.Get(h); !errors.IsNotFound(err) {
			t.Fatalf("Get after Remove(%d) = %v, want not_found", h, err)
		}
	}
}

func TestTable_ZeroAndNeverIssued(t *testing.T) {
	table := NewTable[string]("texture")
	table.Add("a")

	for _, h := range []Handle{0, 2, 99, ^Handle(0)} {
		if _, err := table.Get(h); !errors.IsNotFound(err) {
			t.Errorf("Get(%d) = %v, want not_found", h, err)
		}
		if _, err := table.Remove(h); !errors.IsNotFound(err) {
			t.Errorf("Remove(%d) = %v, want not_found", h, err)
		}
	}
}

func TestTable_NoReuse(t *testing.T) {
	table := NewTable[string]("shader")

	h1 := table.Add("a")
	h2 := table.Add("b")
	h3 := table.Add("c")
	if h1 != 1 || h2 != 2 || h3 != 3 {
		t.Fatalf("handles = %d,%d,%d; want 1,2,3", h1, h2, h3)
	}

	if _, err := table.Remove(h2); err != nil {
		t.Fatal(err)
	}
	if h4 := table.Add("d"); h4 != 4 {
		t.Fatalf("Add after Remove(2) = %d, want 4", h4)
	}

	// A stale handle stays dead even after more inserts.
	if _, err := table.Get(h2); !errors.IsNotFound(err) {
		t.Fatalf("stale handle resolved: %v", err)
	}
}

func TestTable_NoReuseAfterDrain(t *testing.T) {
	table := NewTable[int]("framebuffer")
	for i := 0; i < 5; i++ {
		table.Add(i)
	}

	var released []Handle
	table.Drain(func(h Handle, _ int) {
		released = append(released, h)
	})
	if len(released) != 5 || released[0] != 1 || released[4] != 5 {
		t.Fatalf("Drain released %v, want 1..5 in order", released)
	}
	if table.Len() != 0 {
		t.Fatalf("Len after Drain = %d", table.Len())
	}
	if h := table.Add(100); h != 6 {
		t.Fatalf("Add after Drain = %d, want 6", h)
	}
}

func TestTable_DoubleRemove(t *testing.T) {
	table := NewTable[string]("buffer")
	h := table.Add("x")

	if _, err := table.Remove(h); err != nil {
		t.Fatal(err)
	}
	_, err := table.Remove(h)
	if !errors.IsNotFound(err) {
		t.Fatalf("second Remove = %v, want not_found", err)
	}
	var e *errors.Error
	if !asError(err, &e) || e.Category != "buffer" || e.Handle != uint32(h) {
		t.Fatalf("error should name category and handle, got %v", err)
	}
}

func TestTable_Observer(t *testing.T) {
	table := NewTable[string]("texture")
	obs := &testObserver{}
	table.Subscribe(obs)

	h := table.Add("test")
	if len(obs.events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(obs.events))
	}
	if obs.events[0].Type != EventCreated || obs.events[0].Handle != h {
		t.Fatalf("unexpected event %+v", obs.events[0])
	}
	if obs.events[0].Category != "texture" {
		t.Fatalf("Category = %q", obs.events[0].Category)
	}

	table.Remove(h)
	if len(obs.events) != 2 || obs.events[1].Type != EventRemoved {
		t.Fatalf("Expected EventRemoved, got %+v", obs.events)
	}

	// Failed removals are not reported.
	table.Remove(h)
	if len(obs.events) != 2 {
		t.Fatalf("failed Remove emitted an event")
	}

	table.Unsubscribe(obs)
	table.Add("other")
	if len(obs.events) != 2 {
		t.Fatal("Unsubscribed observer still notified")
	}
}

func TestTable_EachOrder(t *testing.T) {
	table := NewTable[string]("program")
	for _, s := range []string{"a", "b", "c", "d"} {
		table.Add(s)
	}
	table.Remove(2)

	var got []Handle
	table.Each(func(h Handle, _ string) bool {
		got = append(got, h)
		return true
	})
	want := []Handle{1, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("Each visited %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Each visited %v, want %v", got, want)
		}
	}

	var first []Handle
	table.Each(func(h Handle, _ string) bool {
		first = append(first, h)
		return false
	})
	if len(first) != 1 {
		t.Fatalf("Each did not stop early: %v", first)
	}
	if table.Issued() != 4 {
		t.Fatalf("Issued = %d, want 4", table.Issued())
	}
}

func asError(err error, target **errors.Error) bool {
	e, ok := err.(*errors.Error)
	if ok {
		*target = e
	}
	return ok
}
