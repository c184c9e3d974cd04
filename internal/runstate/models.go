package runstate

import "time"

// Status represents the lifecycle of a task unit.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusReview    Status = "review"
)

var allStatuses = []Status{
	StatusPending,
	StatusRunning,
	StatusCompleted,
	StatusFailed,
	StatusReview,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Valid reports whether the status is one of the known lifecycle states.
func (s Status) Valid() bool {
	_, ok := statusSet[s]
	return ok
}

// Task is one persisted task unit state.
type Task struct {
	ID               int64
	Stage            string
	GroupKey         string
	Status           Status
	ManifestChecksum string
	CorrelationID    string
	ErrorMessage     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CompletedWith reports whether the task already completed against the same
// manifest. Such units are skipped on re-runs.
func (t Task) CompletedWith(checksum string) bool {
	return t.Status == StatusCompleted && t.ManifestChecksum == checksum && checksum != ""
}

// Summary describes aggregated task counts per lifecycle state.
type Summary struct {
	Total     int
	Pending   int
	Running   int
	Completed int
	Failed    int
	Review    int
}
