package jobs

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Blessan-Alex/MalRag/core"
)

func TestStore_Create(t *testing.T) {
	store := NewStore()

	id := store.Create("report.pdf")
	require.NotEmpty(t, id)

	job, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, id, job.ID)
	assert.Equal(t, "report.pdf", job.Filename)
	assert.Equal(t, core.JobStatusQueued, job.Status)
	assert.Equal(t, core.JobStepUploaded, job.Step)
	assert.Equal(t, 0, job.Progress)
	assert.Equal(t, CreatedMessage, job.Message)
	assert.False(t, job.CreatedAt.IsZero())
	assert.NoError(t, core.ValidateJob(job))
}

func TestStore_CreateUniqueIDs(t *testing.T) {
	store := NewStore()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := store.Create("f.txt")
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestStore_GetUnknown(t *testing.T) {
	store := NewStore()

	job, err := store.Get("nonexistent")
	assert.ErrorIs(t, err, core.ErrJobNotFound)
	assert.Nil(t, job, "must not return a default job")
}

func TestStore_GetReturnsCopy(t *testing.T) {
	store := NewStore()
	id := store.Create("a.txt")

	job, err := store.Get(id)
	require.NoError(t, err)
	job.Status = core.JobStatusCompleted
	job.Message = "tampered"

	again, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, core.JobStatusQueued, again.Status)
	assert.Equal(t, CreatedMessage, again.Message)
}

func TestStore_PartialUpdate(t *testing.T) {
	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(WithClock(func() time.Time { return clock }))
	id := store.Create("a.txt")

	clock = clock.Add(time.Second)
	ok := store.Update(id, WithMessage("still waiting"))
	require.True(t, ok)

	job, _ := store.Get(id)
	assert.Equal(t, core.JobStatusQueued, job.Status, "status untouched")
	assert.Equal(t, core.JobStepUploaded, job.Step, "step untouched")
	assert.Equal(t, "still waiting", job.Message)
	assert.True(t, job.UpdatedAt.After(job.CreatedAt), "updated_at refreshed")
}

func TestStore_UpdateUnknownIsNoop(t *testing.T) {
	store := NewStore()
	assert.False(t, store.Update("missing", WithStatus(core.JobStatusProcessing)))
	assert.False(t, store.MarkFailed("missing", "boom"))
	assert.Empty(t, store.List())
}

func TestStore_ProgressNeverDecreases(t *testing.T) {
	store := NewStore()
	id := store.Create("a.txt")

	store.Update(id, WithStatus(core.JobStatusProcessing), WithProgress(50))
	store.Update(id, WithProgress(30), WithMessage("late"))

	job, _ := store.Get(id)
	assert.Equal(t, 50, job.Progress)
	assert.Equal(t, "late", job.Message)
}

func TestStore_ProgressClamped(t *testing.T) {
	store := NewStore()
	id := store.Create("a.txt")

	store.Update(id, WithProgress(250))
	job, _ := store.Get(id)
	assert.Equal(t, 100, job.Progress)

	id2 := store.Create("b.txt")
	store.Update(id2, WithProgress(-5))
	job2, _ := store.Get(id2)
	assert.Equal(t, 0, job2.Progress)
}

func TestStore_CompletedForcesReady(t *testing.T) {
	store := NewStore()
	id := store.Create("a.txt")

	store.Update(id, WithStatus(core.JobStatusCompleted))

	job, _ := store.Get(id)
	assert.Equal(t, core.JobStepReady, job.Step)
	assert.Equal(t, 100, job.Progress)
	assert.NoError(t, core.ValidateJob(job))
}

func TestStore_MarkFailed(t *testing.T) {
	store := NewStore()
	id := store.Create("a.txt")
	store.Update(id,
		WithStatus(core.JobStatusProcessing),
		WithStep(core.JobStepEmbedding),
		WithProgress(50))

	ok := store.MarkFailed(id, "embedding provider exhausted")
	require.True(t, ok)

	job, _ := store.Get(id)
	assert.Equal(t, core.JobStatusFailed, job.Status)
	assert.Equal(t, 0, job.Progress)
	assert.Equal(t, "embedding provider exhausted", job.Message)
	assert.Equal(t, core.JobStepEmbedding, job.Step, "step records where it failed")
}

func TestStore_TerminalJobsAreFrozen(t *testing.T) {
	store := NewStore()

	done := store.Create("done.txt")
	store.Update(done, WithStatus(core.JobStatusCompleted), WithMessage("ok"))
	assert.False(t, store.Update(done, WithStatus(core.JobStatusProcessing)))
	assert.False(t, store.MarkFailed(done, "late failure"))

	job, _ := store.Get(done)
	assert.Equal(t, core.JobStatusCompleted, job.Status)
	assert.Equal(t, "ok", job.Message)

	failed := store.Create("bad.txt")
	store.MarkFailed(failed, "first")
	assert.False(t, store.MarkFailed(failed, "second"))
	assert.False(t, store.Update(failed, WithStatus(core.JobStatusCompleted)))

	job, _ = store.Get(failed)
	assert.Equal(t, core.JobStatusFailed, job.Status)
	assert.Equal(t, "first", job.Message)
}

func TestStore_ListNewestFirst(t *testing.T) {
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewStore(WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}))

	first := store.Create("1.txt")
	second := store.Create("2.txt")
	third := store.Create("3.txt")

	list := store.List()
	require.Len(t, list, 3)
	assert.Equal(t, []string{third, second, first}, []string{list[0].ID, list[1].ID, list[2].ID})
}

func TestStore_Counts(t *testing.T) {
	store := NewStore()
	a := store.Create("a")
	b := store.Create("b")
	store.Create("c")
	store.Update(a, WithStatus(core.JobStatusCompleted))
	store.MarkFailed(b, "x")

	counts := store.Counts()
	assert.Equal(t, 1, counts[core.JobStatusCompleted])
	assert.Equal(t, 1, counts[core.JobStatusFailed])
	assert.Equal(t, 1, counts[core.JobStatusQueued])
}

func TestStore_ObserverSeesUpdatesInOrder(t *testing.T) {
	var mu sync.Mutex
	var seen []int
	store := NewStore(WithObserver(func(job core.Job) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, job.Progress)
	}))

	id := store.Create("a.txt")
	for _, p := range []int{10, 20, 30, 50, 70, 90} {
		store.Update(id, WithProgress(p))
	}
	store.Update(id, WithStatus(core.JobStatusCompleted))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 10, 20, 30, 50, 70, 90, 100}, seen)
}

func TestStore_ObserverMayReadStore(t *testing.T) {
	store := NewStore()
	var got *core.Job
	store.Observe(func(job core.Job) {
		got, _ = store.Get(job.ID)
	})

	id := store.Create("a.txt")
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := NewStore()
	const workers = 20

	var wg sync.WaitGroup
	ids := make([]string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := store.Create(fmt.Sprintf("file-%d.txt", i))
			ids[i] = id
			for p := 10; p <= 90; p += 10 {
				store.Update(id, WithStatus(core.JobStatusProcessing), WithProgress(p))
				job, err := store.Get(id)
				assert.NoError(t, err)
				assert.NoError(t, core.ValidateJob(job))
			}
			if i%2 == 0 {
				store.Update(id, WithStatus(core.JobStatusCompleted))
			} else {
				store.MarkFailed(id, "odd")
			}
		}(i)
	}
	wg.Wait()

	for i, id := range ids {
		job, err := store.Get(id)
		require.NoError(t, err)
		if i%2 == 0 {
			assert.Equal(t, core.JobStatusCompleted, job.Status)
		} else {
			assert.Equal(t, core.JobStatusFailed, job.Status)
		}
	}
}

func TestStore_ConcurrentUpdatesWithReadingObserver(t *testing.T) {
	store := NewStore()
	store.Observe(func(job core.Job) {
		_, _ = store.Get(job.ID)
		_ = store.List()
	})

	const workers = 8
	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id := store.Create(fmt.Sprintf("file-%d.txt", i))
				for p := 1; p <= 50; p++ {
					store.Update(id, WithProgress(p))
				}
				store.MarkFailed(id, "done")
			}(i)
		}
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("concurrent updates with a store-reading observer did not finish")
	}
	assert.Equal(t, workers, store.Counts()[core.JobStatusFailed])
}
