package playback

import (
	"context"
	"sort"
	"testing"
)

func queueIDs(tracks []Track) []string {
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	return ids
}

func TestShuffled_KeepsCurrentFirst(t *testing.T) {
	tracks := testTracks("a", "b", "c", "d", "e")

	for current := range tracks {
		got := shuffled(tracks, current)
		if got[0].ID != tracks[current].ID {
			t.Errorf("shuffled(_, %d)[0].ID = %q, want %q", current, got[0].ID, tracks[current].ID)
		}
	}
}

func TestShuffled_PreservesMultiset(t *testing.T) {
	tracks := testTracks("a", "b", "c", "d", "e", "f")

	got := shuffled(tracks, 2)

	if len(got) != len(tracks) {
		t.Fatalf("len = %d, want %d", len(got), len(tracks))
	}
	gotIDs := queueIDs(got)
	wantIDs := queueIDs(tracks)
	sort.Strings(gotIDs)
	sort.Strings(wantIDs)
	for i := range wantIDs {
		if gotIDs[i] != wantIDs[i] {
			t.Fatalf("shuffled ids = %v, want permutation of %v", gotIDs, wantIDs)
		}
	}
}

func TestShuffled_DoesNotMutateInput(t *testing.T) {
	tracks := testTracks("a", "b", "c")

	_ = shuffled(tracks, 1)

	for i, want := range []string{"a", "b", "c"} {
		if tracks[i].ID != want {
			t.Errorf("input[%d].ID = %q, want %q", i, tracks[i].ID, want)
		}
	}
}

func TestShuffled_SingleTrack(t *testing.T) {
	tracks := testTracks("a")

	got := shuffled(tracks, 0)

	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("shuffled single = %+v, want [a]", got)
	}
}

func TestIndexByID(t *testing.T) {
	tracks := testTracks("a", "b", "c")

	if got := indexByID(tracks, "b"); got != 1 {
		t.Errorf("indexByID(b) = %d, want 1", got)
	}
	if got := indexByID(tracks, "missing"); got != -1 {
		t.Errorf("indexByID(missing) = %d, want -1", got)
	}
}

func TestToggleShuffle_CurrentStaysAtHead(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	if err := o.LoadQueue(context.Background(), testTracks("a", "b", "c", "d"), 2); err != nil {
		t.Fatal(err)
	}

	if err := o.ToggleShuffle(context.Background()); err != nil {
		t.Fatal(err)
	}

	if !o.Shuffle() {
		t.Error("Shuffle() = false after toggle on")
	}
	if o.Index() != 0 {
		t.Errorf("Index() = %d after shuffle, want 0", o.Index())
	}
	if cur := o.CurrentTrack(); cur == nil || cur.ID != "c" {
		t.Errorf("CurrentTrack() = %+v, want id c", cur)
	}
	if len(o.Queue()) != 4 {
		t.Errorf("queue length = %d after shuffle, want 4", len(o.Queue()))
	}
}

func TestToggleShuffle_RoundTrip(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	if err := o.LoadQueue(context.Background(), testTracks("a", "b", "c", "d", "e"), 3); err != nil {
		t.Fatal(err)
	}

	if err := o.ToggleShuffle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := o.ToggleShuffle(context.Background()); err != nil {
		t.Fatal(err)
	}

	if o.Shuffle() {
		t.Error("Shuffle() = true after round trip, want false")
	}
	if cur := o.CurrentTrack(); cur == nil || cur.ID != "d" {
		t.Errorf("CurrentTrack() = %+v after round trip, want id d", cur)
	}
	queue := queueIDs(o.Queue())
	base := queueIDs(o.BaseQueue())
	if len(queue) != 5 {
		t.Fatalf("queue length = %d, want 5", len(queue))
	}
	for i := range queue {
		if queue[i] != base[i] {
			t.Errorf("queue[%d] = %q, base[%d] = %q; queue must equal base order after round trip", i, queue[i], i, base[i])
		}
	}
}

func TestToggleShuffle_EmptyQueueFlipsFlagOnly(t *testing.T) {
	o, tr, _ := newTestOrchestrator(t)

	if err := o.ToggleShuffle(context.Background()); err != nil {
		t.Fatal(err)
	}

	if !o.Shuffle() {
		t.Error("Shuffle() = false, want true")
	}
	if tr.TransportCalls() != 0 {
		t.Errorf("transport calls = %d, want 0", tr.TransportCalls())
	}

	if err := o.ToggleShuffle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if o.Shuffle() {
		t.Error("Shuffle() = true, want false")
	}
}

func TestToggleShuffle_ReloadsTransport(t *testing.T) {
	o, tr, _ := newTestOrchestrator(t)
	if err := o.LoadQueue(context.Background(), testTracks("a", "b", "c"), 1); err != nil {
		t.Fatal(err)
	}

	if err := o.ToggleShuffle(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Shuffle reloads the full playlist: one reset+add per load.
	if tr.ResetCalls() != 2 {
		t.Errorf("reset calls = %d, want 2", tr.ResetCalls())
	}
	adds := tr.AddCalls()
	if len(adds) != 2 || len(adds[1]) != 3 {
		t.Fatalf("add calls = %d, want second call with full playlist", len(adds))
	}
	// Progress does not survive the reload.
	if o.Position() != 0 {
		t.Errorf("Position() = %v after shuffle reload, want 0", o.Position())
	}
}
