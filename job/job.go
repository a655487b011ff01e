// Package job tracks long-running summarization tasks: one mutable record
// per task, driven by a single strategy goroutine and polled by callers.
package job

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hrygo/condense/fault"
)

// Status is a linear state machine: pending → processing → {complete | error}.
// Terminal states are final.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
)

// Failure is the serializable description of a terminal error. For
// unprocessable outcomes it also carries the best-effort value and the
// final raw model reply.
type Failure struct {
	Kind        fault.Kind `json:"kind"`
	Message     string     `json:"message"`
	BestEffort  any        `json:"bestEffort,omitempty"`
	RawResponse string     `json:"rawResponse,omitempty"`
}

// Job is a short-lived, single-owner record of an in-flight task. The
// driving strategy is the only writer; polling callers read snapshots.
type Job struct {
	mu sync.RWMutex

	id        string
	method    string
	request   any // immutable snapshot of the caller's parameters
	createdAt time.Time

	status          Status
	chunksTotal     int
	chunksCompleted int
	result          any
	failure         *Failure
	finishedAt      time.Time
}

// Snapshot is a consistent read of a job for polling callers.
type Snapshot struct {
	ID              string    `json:"id"`
	Method          string    `json:"method"`
	Status          Status    `json:"status"`
	ChunksTotal     int       `json:"chunksTotal"`
	ChunksCompleted int       `json:"chunksCompleted"`
	Result          any       `json:"result,omitempty"`
	Failure         *Failure  `json:"error,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// New creates a pending job.
func New(method string, request any) *Job {
	return &Job{
		id:        uuid.New().String(),
		method:    method,
		request:   request,
		createdAt: time.Now(),
		status:    StatusPending,
	}
}

func (j *Job) ID() string { return j.id }

// Request returns the immutable parameter snapshot captured at creation.
func (j *Job) Request() any { return j.request }

// Start moves the job from pending to processing. It is a no-op if the job
// already left pending; the state machine admits no other transition in.
func (j *Job) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status == StatusPending {
		j.status = StatusProcessing
	}
}

// SetChunksTotal records the number of steps the strategy will take.
func (j *Job) SetChunksTotal(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.terminal() {
		return
	}
	j.chunksTotal = n
	if j.chunksCompleted > n {
		j.chunksCompleted = n
	}
}

// StepCompleted advances the progress counter. Progress is monotonic and
// never exceeds the total.
func (j *Job) StepCompleted() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.terminal() {
		return
	}
	if j.chunksCompleted < j.chunksTotal {
		j.chunksCompleted++
	}
}

// Complete moves the job to its complete terminal state with a result.
// Once terminal, the job never transitions again.
func (j *Job) Complete(result any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.terminal() {
		return
	}
	j.status = StatusComplete
	j.result = result
	j.finishedAt = time.Now()
}

// Fail moves the job to its error terminal state.
func (j *Job) Fail(f *Failure) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.terminal() {
		return
	}
	j.status = StatusError
	j.failure = f
	j.finishedAt = time.Now()
}

// Terminal reports whether the job reached complete or error.
func (j *Job) Terminal() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.terminal()
}

func (j *Job) terminal() bool {
	return j.status == StatusComplete || j.status == StatusError
}

// FinishedAt returns when the job reached a terminal state (zero if it has
// not).
func (j *Job) FinishedAt() time.Time {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.finishedAt
}

// Snapshot returns a consistent copy for polling.
func (j *Job) Snapshot() Snapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return Snapshot{
		ID:              j.id,
		Method:          j.method,
		Status:          j.status,
		ChunksTotal:     j.chunksTotal,
		ChunksCompleted: j.chunksCompleted,
		Result:          j.result,
		Failure:         j.failure,
		CreatedAt:       j.createdAt,
	}
}
