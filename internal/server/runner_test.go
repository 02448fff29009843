package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/forPelevin/clipfeed/internal/pipeline"
	"github.com/forPelevin/clipfeed/internal/services"
	"github.com/forPelevin/clipfeed/internal/types"
)

type fakePipeline struct {
	release chan struct{}
	err     error

	active  atomic.Int32
	maxSeen atomic.Int32

	mu     sync.Mutex
	runIDs []string
	marks  []string
}

func (f *fakePipeline) Run(ctx context.Context, req pipeline.Request) (types.RunReport, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		cur := f.maxSeen.Load()
		if n <= cur || f.maxSeen.CompareAndSwap(cur, n) {
			break
		}
	}
	id, _ := services.RunIDFromContext(ctx)
	f.mu.Lock()
	f.runIDs = append(f.runIDs, id)
	f.marks = append(f.marks, req.WatermarkPath)
	f.mu.Unlock()

	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return types.RunReport{}, f.err
	}
	return types.RunReport{RunID: id, VideoID: req.VideoURLOrID, Success: true, ClipsProcessed: 2}, nil
}

func (f *fakePipeline) watermarks() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.marks...)
}

func waitState(t *testing.T, r *Runner, id, want string) RunStatus {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st, ok := r.Status(id); ok && st.State == want {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
	st, _ := r.Status(id)
	t.Fatalf("run %s: state=%q, want %q", id, st.State, want)
	return RunStatus{}
}

func TestRunnerCompletesRun(t *testing.T) {
	fp := &fakePipeline{}
	r := NewRunner(fp, 2, 10, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	id, err := r.Submit(ctx, pipeline.Request{VideoURLOrID: "abc"})
	cancel()
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	st := waitState(t, r, id, StateDone)
	if st.Report == nil || st.Report.RunID != id || st.Report.ClipsProcessed != 2 {
		t.Fatalf("status=%+v", st)
	}
}

func TestRunnerRecordsFailure(t *testing.T) {
	fp := &fakePipeline{err: errors.New("metadata: not found")}
	r := NewRunner(fp, 1, 10, zerolog.Nop())
	id, err := r.Submit(context.Background(), pipeline.Request{VideoURLOrID: "zzz"})
	if err != nil {
		t.Fatal(err)
	}
	st := waitState(t, r, id, StateFailed)
	if st.Error != "metadata: not found" || st.Report != nil {
		t.Fatalf("status=%+v", st)
	}
}

func TestRunnerBoundsConcurrency(t *testing.T) {
	fp := &fakePipeline{release: make(chan struct{})}
	r := NewRunner(fp, 2, 10, zerolog.Nop())

	var ids []string
	for i := 0; i < 5; i++ {
		id, err := r.Submit(context.Background(), pipeline.Request{VideoURLOrID: fmt.Sprintf("v%d", i)})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	time.Sleep(50 * time.Millisecond)
	if got := fp.active.Load(); got != 2 {
		t.Fatalf("active=%d, want 2", got)
	}
	close(fp.release)
	for _, id := range ids {
		waitState(t, r, id, StateDone)
	}
	if got := fp.maxSeen.Load(); got != 2 {
		t.Fatalf("max concurrent=%d", got)
	}
}

func TestRunnerEvictsOldestFinished(t *testing.T) {
	r := NewRunner(&fakePipeline{}, 1, 2, zerolog.Nop())
	var ids []string
	for i := 0; i < 3; i++ {
		id, err := r.Submit(context.Background(), pipeline.Request{VideoURLOrID: "v"})
		if err != nil {
			t.Fatal(err)
		}
		waitState(t, r, id, StateDone)
		ids = append(ids, id)
	}
	if _, ok := r.Status(ids[0]); ok {
		t.Fatal("oldest run should be evicted")
	}
	for _, id := range ids[1:] {
		if _, ok := r.Status(id); !ok {
			t.Fatalf("run %s should be retained", id)
		}
	}
}

func TestRunnerShutdown(t *testing.T) {
	fp := &fakePipeline{release: make(chan struct{})}
	r := NewRunner(fp, 1, 10, zerolog.Nop())
	if _, err := r.Submit(context.Background(), pipeline.Request{VideoURLOrID: "v"}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := r.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Shutdown with in-flight run: %v", err)
	}
	if _, err := r.Submit(context.Background(), pipeline.Request{VideoURLOrID: "late"}); !errors.Is(err, ErrShuttingDown) {
		t.Fatalf("Submit after shutdown: %v", err)
	}

	close(fp.release)
	if err := r.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
