package llm

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/ahrav/go-rubric/internal/domain"
)

// mockReply mirrors the structured reply shape the prompt requests from a
// grading backend.
type mockReply struct {
	Scores []mockScore `json:"scores"`
}

type mockScore struct {
	Criterion  string  `json:"criterion"`
	Score      int     `json:"score"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

// MockClient is a deterministic, network-free grading backend for tests and
// dry runs. For a given (prompt, criteria, seed) triple it always produces
// the same in-range scores, so evaluations are reproducible without network
// access.
//
// The zero value is not usable; construct with NewMockClient. Behavior can
// be scripted per instance: FixedScore forces one score for every criterion,
// Err makes every call fail, and CompleteFunc overrides the reply entirely.
// The client records its concurrent in-flight high-water mark so tests can
// assert concurrency bounds.
type MockClient struct {
	criteria domain.Criteria
	seed     int64

	// FixedScore, when set, is returned for every criterion instead of the
	// seeded value. It must be a declared level score for each criterion the
	// test exercises.
	FixedScore *int

	// Err, when set, fails every call with this error.
	Err error

	// CompleteFunc, when set, replaces the default reply construction.
	CompleteFunc func(ctx context.Context, prompt string, cfg Config) (string, error)

	// Latency delays each call, for exercising in-flight accounting.
	Latency time.Duration

	mu          sync.Mutex
	inFlight    int
	maxInFlight int
	calls       int64
}

var _ Client = (*MockClient)(nil)

// NewMockClient creates a deterministic mock for the given rubric and seed.
func NewMockClient(criteria domain.Criteria, seed int64) *MockClient {
	return &MockClient{criteria: criteria, seed: seed}
}

// Complete returns a structured reply with one in-range score per criterion.
func (m *MockClient) Complete(ctx context.Context, prompt string, cfg Config) (string, error) {
	m.enter()
	defer m.exit()

	if m.Latency > 0 {
		select {
		case <-time.After(m.Latency):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt, cfg)
	}
	if m.Err != nil {
		return "", m.Err
	}

	reply := mockReply{Scores: make([]mockScore, 0, m.criteria.Len())}
	for _, crit := range m.criteria.Criteria {
		score, confidence := m.seededScore(prompt, crit)
		if m.FixedScore != nil {
			score = *m.FixedScore
		}
		reply.Scores = append(reply.Scores, mockScore{
			Criterion:  crit.Name,
			Score:      score,
			Reasoning:  fmt.Sprintf("mock evaluation of %q", crit.Name),
			Confidence: confidence,
		})
	}

	out, err := json.Marshal(reply)
	if err != nil {
		return "", fmt.Errorf("marshaling mock reply: %w", err)
	}
	return string(out), nil
}

// seededScore derives a stable (score, confidence) pair for one criterion
// from the prompt, criterion name, and seed.
func (m *MockClient) seededScore(prompt string, crit domain.Criterion) (int, float64) {
	h := fnv.New64a()
	h.Write([]byte(prompt))
	h.Write([]byte{0})
	h.Write([]byte(crit.Name))
	var seedBytes [8]byte
	binary.LittleEndian.PutUint64(seedBytes[:], uint64(m.seed))
	h.Write(seedBytes[:])
	sum := h.Sum64()

	score := crit.Levels[sum%uint64(len(crit.Levels))].Score
	confidence := 0.5 + float64(sum%50)/100.0
	return score, confidence
}

// MaxInFlight returns the highest number of simultaneous Complete calls
// observed since construction.
func (m *MockClient) MaxInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight
}

// Calls returns the total number of Complete calls.
func (m *MockClient) Calls() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockClient) enter() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
}

func (m *MockClient) exit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight--
}
