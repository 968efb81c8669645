package jobstore

import (
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	st, err := New(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return st
}

func TestNextIDMonotonic(t *testing.T) {
	st := newTestStore(t)

	var last uint32
	for i := 0; i < 5; i++ {
		id := st.NextID()
		if id <= last {
			t.Fatalf("job id not increasing: got %d after %d", id, last)
		}
		last = id
	}
}

func TestSaveAndList(t *testing.T) {
	st := newTestStore(t)

	id1 := st.NextID()
	if _, err := st.Save(id1, []byte("first"), "application/pdf", "application/pdf", "pdf"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	time.Sleep(2 * time.Millisecond)

	id2 := st.NextID()
	if _, err := st.Save(id2, []byte("second"), "image/jpeg", "image/jpeg", "jpg"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	jobs, err := st.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("List() returned %d jobs, want 2", len(jobs))
	}
	if jobs[0].ID != id2 {
		t.Errorf("List()[0].ID = %d, want newest %d", jobs[0].ID, id2)
	}
}

func TestSaveWritesAtomically(t *testing.T) {
	st := newTestStore(t)
	id := st.NextID()

	job, err := st.Save(id, []byte("payload"), "text/plain", "text/plain", "txt")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := os.Stat(job.FilePath + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after successful save")
	}
	data, err := os.ReadFile(job.FilePath)
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("saved content = %q, want %q", data, "payload")
	}
}

func TestDeleteRemovesOnlyMatchingJob(t *testing.T) {
	st := newTestStore(t)
	id1, id2 := st.NextID(), st.NextID()
	st.Save(id1, []byte("a"), "text/plain", "text/plain", "txt")
	st.Save(id2, []byte("b"), "text/plain", "text/plain", "txt")

	if err := st.Delete(id1); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	jobs, _ := st.List()
	if len(jobs) != 1 || jobs[0].ID != id2 {
		t.Fatalf("after Delete(%d), jobs = %+v", id1, jobs)
	}
}

func TestDeleteAll(t *testing.T) {
	st := newTestStore(t)
	for i := 0; i < 3; i++ {
		id := st.NextID()
		st.Save(id, []byte("x"), "text/plain", "text/plain", "txt")
	}

	if err := st.DeleteAll(); err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}
	jobs, _ := st.List()
	if len(jobs) != 0 {
		t.Fatalf("jobs remaining after DeleteAll: %+v", jobs)
	}
}

func TestBusDeliversOnSave(t *testing.T) {
	st := newTestStore(t)
	sub := st.Bus().Subscribe()

	id := st.NextID()
	st.Save(id, []byte("event me"), "text/plain", "text/plain", "txt")

	select {
	case evt := <-sub:
		if evt.JobID != id {
			t.Errorf("event job id = %d, want %d", evt.JobID, id)
		}
		if evt.ByteLen != len("event me") {
			t.Errorf("event byte len = %d, want %d", evt.ByteLen, len("event me"))
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for JobCreated event")
	}
}

func TestBusDropsOldestWhenSubscriberFull(t *testing.T) {
	st := newTestStore(t)
	sub := st.Bus().Subscribe()

	total := subscriberBuffer + 5
	for i := 0; i < total; i++ {
		id := st.NextID()
		st.Save(id, []byte("x"), "text/plain", "text/plain", "txt")
	}

	// Publishing must never block the producer even though nothing has
	// drained sub yet; draining now should yield the most recent events,
	// not the oldest.
	var last JobCreated
	count := 0
	for {
		select {
		case evt := <-sub:
			last = evt
			count++
		default:
			goto done
		}
	}
done:
	if count != subscriberBuffer {
		t.Fatalf("buffered events = %d, want %d", count, subscriberBuffer)
	}
	if last.JobID != uint32(total) {
		t.Fatalf("last drained job id = %d, want newest %d", last.JobID, total)
	}
}
