package recorder

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/JamesWuHK/demo-video-generator/internal/browser"
	"github.com/JamesWuHK/demo-video-generator/internal/script"
)

func newRecorderUnderTest() (*Recorder, *fakeClock, *fakeDriver) {
	clock := newFakeClock()
	drv := &fakeDriver{clock: clock}
	return New(drv, clock, 1440, 900), clock, drv
}

func TestRecordTimestampAccumulation(t *testing.T) {
	r, _, _ := newRecorderUnderTest()

	scenes := []script.Scene{
		{ID: "a"},
		{ID: "b"},
		{ID: "c"},
	}
	durations := map[string]float64{"a": 3.0, "b": 2.5, "c": 4.0}

	res, err := r.Record(context.Background(), scenes, durations, nil)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries := res.Timestamps.Entries()
	if len(entries) != len(scenes) {
		t.Fatalf("entries = %d, want %d", len(entries), len(scenes))
	}

	// entries[i].start == lead_in (zero here) + sum of prior resolved durations.
	wantStart := 0.0
	for i, e := range entries {
		if e.SceneID != scenes[i].ID {
			t.Errorf("entry %d scene = %q, want %q", i, e.SceneID, scenes[i].ID)
		}
		if math.Abs(e.Start-wantStart) > 1e-9 {
			t.Errorf("entry %d start = %v, want %v", i, e.Start, wantStart)
		}
		if e.AudioDuration != durations[e.SceneID] {
			t.Errorf("entry %d audio_duration = %v, want %v", i, e.AudioDuration, durations[e.SceneID])
		}
		wantStart += e.AudioDuration
	}

	if math.Abs(res.TotalDuration-9.5) > 1e-9 {
		t.Errorf("total = %v, want 9.5", res.TotalDuration)
	}
	if res.LeadInDuration != 0 {
		t.Errorf("lead-in = %v, want 0", res.LeadInDuration)
	}
}

func TestRecordLoginPhase(t *testing.T) {
	r, clock, _ := newRecorderUnderTest()

	login := func(ctx context.Context, drv browser.Driver) error {
		// Simulate a 4s manual login against the live session.
		clock.advance(4 * time.Second)
		return nil
	}

	scenes := []script.Scene{{ID: "a"}}
	res, err := r.Record(context.Background(), scenes, map[string]float64{"a": 3.0}, login)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	if res.LeadInDuration != 4.0 {
		t.Errorf("lead-in = %v, want 4.0", res.LeadInDuration)
	}
	// Scene starts are relative to the capture origin, so the first scene
	// begins after the lead-in.
	if res.Timestamps.Entries()[0].Start != 4.0 {
		t.Errorf("first scene start = %v, want 4.0 (lead-in included)", res.Timestamps.Entries()[0].Start)
	}
}

func TestRecordUnreachableClickDoesNotAbort(t *testing.T) {
	r, _, drv := newRecorderUnderTest()
	drv.clickErr = errors.New("selector matched nothing")

	scenes := []script.Scene{
		{ID: "a", Actions: []script.Action{{Type: script.ActionClick, Selector: "#gone", TimeoutMS: 500}}},
		{ID: "b"},
	}
	durations := map[string]float64{"a": 2.0, "b": 1.0}

	res, err := r.Record(context.Background(), scenes, durations, nil)
	if err != nil {
		t.Fatalf("Record must not abort on unreachable click target: %v", err)
	}

	entries := res.Timestamps.Entries()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	// The failing scene's entry is unaffected by the failure.
	if entries[0].Start != 0 || entries[0].AudioDuration != 2.0 {
		t.Errorf("failing scene entry = %+v", entries[0])
	}
	if entries[1].Start != 2.0 {
		t.Errorf("next scene start = %v, want 2.0", entries[1].Start)
	}
}

func TestRecordNavigationFailureIsNotFatal(t *testing.T) {
	r, _, drv := newRecorderUnderTest()
	drv.navErr = errors.New("dns failure")

	scenes := []script.Scene{{ID: "a", URL: "https://unreachable.example.com"}}
	res, err := r.Record(context.Background(), scenes, map[string]float64{"a": 1.0}, nil)
	if err != nil {
		t.Fatalf("Record: navigation failure must be non-fatal, got %v", err)
	}
	if res.Timestamps.Len() != 1 {
		t.Errorf("entries = %d, want 1", res.Timestamps.Len())
	}
}

func TestRecordSkipsNavigationForFragmentOnlyDifference(t *testing.T) {
	r, _, drv := newRecorderUnderTest()
	drv.currentURL = "https://example.com/page#top"

	// Same base URL, no fragment on the scene target: no navigation.
	scenes := []script.Scene{{ID: "a", URL: "https://example.com/page"}}
	if _, err := r.Record(context.Background(), scenes, map[string]float64{"a": 1.0}, nil); err != nil {
		t.Fatalf("Record: %v", err)
	}
	for _, call := range drv.calls {
		if call == "navigate:https://example.com/page" {
			t.Error("navigated despite fragment-only difference")
		}
	}
}

func TestRecordNavigatesToFragmentTarget(t *testing.T) {
	r, _, drv := newRecorderUnderTest()
	drv.currentURL = "https://example.com/page"

	scenes := []script.Scene{{ID: "a", URL: "https://example.com/page#pricing"}}
	if _, err := r.Record(context.Background(), scenes, map[string]float64{"a": 1.0}, nil); err != nil {
		t.Fatalf("Record: %v", err)
	}
	found := false
	for _, call := range drv.calls {
		if call == "navigate:https://example.com/page#pricing" {
			found = true
		}
	}
	if !found {
		t.Errorf("fragment navigation missing: %v", drv.calls)
	}
}

func TestRecordMissingCaptureIsFatal(t *testing.T) {
	r, _, drv := newRecorderUnderTest()
	drv.captureGone = true

	_, err := r.Record(context.Background(), []script.Scene{{ID: "a"}}, map[string]float64{"a": 1.0}, nil)
	if !errors.Is(err, ErrRecordingFailed) {
		t.Errorf("err = %v, want ErrRecordingFailed", err)
	}
}

func TestRecordOverrunShiftsLaterScenes(t *testing.T) {
	r, _, drv := newRecorderUnderTest()
	// Every driver call costs 1s, so scene a's click (1s call + 0.5s
	// settle) overruns its 1s budget.
	drv.actionCost = time.Second

	scenes := []script.Scene{
		{ID: "a", Actions: []script.Action{{Type: script.ActionClick, Selector: "#x", TimeoutMS: 500}}},
		{ID: "b"},
	}
	durations := map[string]float64{"a": 1.0, "b": 1.0}

	res, err := r.Record(context.Background(), scenes, durations, nil)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries := res.Timestamps.Entries()
	// Scene b starts when a actually finished (1.5s), not at a's nominal
	// budget: cumulative drift is tolerated, not truncated.
	if math.Abs(entries[1].Start-1.5) > 1e-9 {
		t.Errorf("scene b start = %v, want 1.5 (actual elapsed)", entries[1].Start)
	}
	// Its recorded audio_duration is still the resolved duration.
	if entries[1].AudioDuration != 1.0 {
		t.Errorf("scene b audio_duration = %v, want 1.0", entries[1].AudioDuration)
	}
}
