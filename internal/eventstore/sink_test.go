package eventstore

import (
	"errors"
	"testing"
	"time"

	"git.home.luguber.info/inful/freezer/internal/build"
)

func TestSinkRecordsBuild(t *testing.T) {
	store := newTestStore(t)
	projection := NewBuildHistoryProjection(store, 10)
	sink := NewSink(store, projection)
	ctx := t.Context()

	events := []build.Event{
		{Phase: build.PhaseStart, Message: "starting build"},
		{Phase: build.PhaseBuildPages, Message: "building pages", Total: 1},
		{Phase: build.PhaseBuildPages, Message: "/", Advance: 1, Total: 1},
		{Phase: build.PhaseEnd, Message: "build finished", Advance: 1, Total: 1},
	}
	for _, ev := range events {
		if err := sink.BuildEvent(ctx, testBuildID, ev); err != nil {
			t.Fatalf("BuildEvent: %v", err)
		}
	}
	result := &build.BuildResult{
		BuildID:  testBuildID,
		Status:   build.BuildStatusSuccess,
		Pages:    1,
		Duration: 2 * time.Second,
		Report:   &build.Report{Outcome: build.OutcomeSuccess, Revision: "abc123"},
	}
	if err := sink.BuildFinished(ctx, result); err != nil {
		t.Fatalf("BuildFinished: %v", err)
	}

	stored, err := store.GetByBuildID(ctx, testBuildID)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	want := []string{TypeBuildStarted, TypePhaseStarted, TypePageBuilt, TypePhaseStarted, TypeBuildCompleted}
	if len(stored) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(stored))
	}
	for i, e := range stored {
		if e.Type() != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], e.Type())
		}
	}

	summary, ok := projection.GetBuild(testBuildID)
	if !ok {
		t.Fatal("expected projected build")
	}
	if summary.Status != "success" || summary.Result.Revision != "abc123" {
		t.Errorf("unexpected summary %+v", summary)
	}
}

func TestSinkRecordsFailure(t *testing.T) {
	store := newTestStore(t)
	sink := NewSink(store, nil)

	err := sink.BuildFinished(t.Context(), &build.BuildResult{
		BuildID: testBuildID,
		Status:  build.BuildStatusFailed,
		Err:     errors.New("config required"),
	})
	if err != nil {
		t.Fatalf("BuildFinished: %v", err)
	}

	stored, err := store.GetByBuildID(t.Context(), testBuildID)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(stored) != 1 || stored[0].Type() != TypeBuildFailed {
		t.Fatalf("expected one BuildFailed event, got %d", len(stored))
	}
	var data ResultData
	if !decode(stored[0], &data) || data.Error != "config required" {
		t.Errorf("unexpected payload %s", stored[0].Payload())
	}
}

func TestSinkRetention(t *testing.T) {
	store := newTestStore(t)
	sink := NewSink(store, nil).WithRetention(2)
	ctx := t.Context()

	for _, id := range []string{"b1", "b2", "b3"} {
		if err := sink.BuildEvent(ctx, id, build.Event{Phase: build.PhaseStart}); err != nil {
			t.Fatalf("BuildEvent: %v", err)
		}
		if err := sink.BuildFinished(ctx, &build.BuildResult{BuildID: id, Status: build.BuildStatusSuccess}); err != nil {
			t.Fatalf("BuildFinished: %v", err)
		}
	}

	if events, _ := store.GetByBuildID(ctx, "b1"); len(events) != 0 {
		t.Errorf("expected b1 pruned, found %d events", len(events))
	}
	if events, _ := store.GetByBuildID(ctx, "b3"); len(events) != 2 {
		t.Errorf("expected b3 kept with 2 events, found %d", len(events))
	}
}
