// Package jobstore persists print job artifacts to a flat directory keyed
// by job id, allocates job ids, and broadcasts a JobCreated event after
// every successful write.
//
// Persistence follows the write-temp-then-rename idiom the teacher uses in
// avahi.Manager.atomicWrite, so a reader never observes a partially written
// job file. Enumeration and deletion work directly against the directory
// rather than an in-memory index, since the store is the sole owner of its
// backing directory and there's nothing else to keep in sync.
package jobstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Job is the persisted record of one accepted print job.
type Job struct {
	ID             uint32
	ReceivedAt     time.Time
	DeclaredFormat string
	DetectedFormat string
	ByteLen        int
	FilePath       string
}

// Store owns a directory of job artifacts.
type Store struct {
	dir     string
	log     zerolog.Logger
	counter uint32

	mu  sync.Mutex
	bus *Bus
}

// New creates a Store rooted at dir, creating the directory if necessary.
func New(dir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("jobstore: create dir: %w", err)
	}
	return &Store{
		dir: dir,
		log: log.With().Str("component", "jobstore").Logger(),
		bus: NewBus(),
	}, nil
}

// NextID allocates the next monotonically increasing job id.
func (s *Store) NextID() uint32 {
	return atomic.AddUint32(&s.counter, 1)
}

// Bus returns the event bus subscribers use to observe newly created jobs.
func (s *Store) Bus() *Bus {
	return s.bus
}

// filename returns the on-disk name for a job with the given id and
// extension, following the print_job_<id>.<ext> convention.
func filename(id uint32, ext string) string {
	return fmt.Sprintf("print_job_%d.%s", id, ext)
}

// Save persists data under the job-scoped filename derived from id and ext,
// using write-then-rename so a reader never sees a partial file. On success
// it returns the Job descriptor and delivers a JobCreated event exactly once.
func (s *Store) Save(id uint32, data []byte, declaredFormat, detectedFormat, ext string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	finalPath := filepath.Join(s.dir, filename(id, ext))
	tmpPath := finalPath + ".tmp"

	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return nil, fmt.Errorf("jobstore: write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("jobstore: rename temp file: %w", err)
	}

	job := &Job{
		ID:             id,
		ReceivedAt:     time.Now(),
		DeclaredFormat: declaredFormat,
		DetectedFormat: detectedFormat,
		ByteLen:        len(data),
		FilePath:       finalPath,
	}

	s.log.Info().Uint32("job_id", id).Str("path", finalPath).Int("bytes", len(data)).Msg("job persisted")

	s.bus.publish(JobCreated{
		Path:         finalPath,
		ByteLen:      len(data),
		JobID:        id,
		DeclaredMIME: declaredFormat,
		DetectedMIME: detectedFormat,
	})

	return job, nil
}

// List enumerates stored jobs newest-first by modification time.
func (s *Store) List() ([]*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("jobstore: read dir: %w", err)
	}

	byID := map[uint32]*Job{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id, ok := parseJobID(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		existing, seen := byID[id]
		if seen && existing.ReceivedAt.After(info.ModTime()) {
			continue
		}
		byID[id] = &Job{
			ID:         id,
			ReceivedAt: info.ModTime(),
			ByteLen:    int(info.Size()),
			FilePath:   filepath.Join(s.dir, e.Name()),
		}
	}

	jobs := make([]*Job, 0, len(byID))
	for _, j := range byID {
		jobs = append(jobs, j)
	}
	sort.Slice(jobs, func(i, k int) bool {
		return jobs[i].ReceivedAt.After(jobs[k].ReceivedAt)
	})
	return jobs, nil
}

// Delete removes every file sharing id's print_job_<id> prefix.
func (s *Store) Delete(id uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletePrefixLocked(fmt.Sprintf("print_job_%d.", id))
}

// DeleteAll removes every job file in the store.
func (s *Store) DeleteAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletePrefixLocked("print_job_")
}

func (s *Store) deletePrefixLocked(prefix string) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("jobstore: read dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("jobstore: remove %s: %w", e.Name(), err)
		}
	}
	return nil
}

// parseJobID extracts the numeric id from a print_job_<id>.<ext> filename.
func parseJobID(name string) (uint32, bool) {
	const prefix = "print_job_"
	if !strings.HasPrefix(name, prefix) {
		return 0, false
	}
	rest := strings.TrimPrefix(name, prefix)
	dot := strings.IndexByte(rest, '.')
	if dot < 0 {
		return 0, false
	}
	n, err := strconv.ParseUint(rest[:dot], 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}
