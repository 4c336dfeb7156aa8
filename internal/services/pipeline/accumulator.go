package pipeline

import (
	"sort"
	"sync"

	"github.com/ternarybob/venari/internal/models"
)

// RunAccumulator threads the shared run counters and per-stage error
// aggregates through the pipeline steps. It is passed by reference so
// concurrent updates stay auditable in one place.
type RunAccumulator struct {
	mu          sync.Mutex
	counts      models.RunCounts
	stageErrors map[string]map[string]*stageMessage
}

type stageMessage struct {
	kind  models.ErrorKind
	count int
}

// NewRunAccumulator creates an empty accumulator
func NewRunAccumulator() *RunAccumulator {
	return &RunAccumulator{
		stageErrors: make(map[string]map[string]*stageMessage),
	}
}

// Update applies a mutation to the counters under the lock
func (a *RunAccumulator) Update(fn func(*models.RunCounts)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(&a.counts)
}

// Counts returns a copy of the current counters
func (a *RunAccumulator) Counts() models.RunCounts {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counts
}

// RecordStageError aggregates a failure message under its stage
func (a *RunAccumulator) RecordStageError(stage, message string, kind models.ErrorKind) {
	a.mu.Lock()
	defer a.mu.Unlock()

	messages, ok := a.stageErrors[stage]
	if !ok {
		messages = make(map[string]*stageMessage)
		a.stageErrors[stage] = messages
	}
	if entry, ok := messages[message]; ok {
		entry.count++
		return
	}
	messages[message] = &stageMessage{kind: kind, count: 1}
}

// StageErrors returns the aggregates, each stage keeping its top-3 messages
// by count. Ordering is deterministic: stages alphabetically, messages by
// count descending then text.
func (a *RunAccumulator) StageErrors() []models.StageErrorAggregate {
	a.mu.Lock()
	defer a.mu.Unlock()

	stages := make([]string, 0, len(a.stageErrors))
	for stage := range a.stageErrors {
		stages = append(stages, stage)
	}
	sort.Strings(stages)

	var aggregates []models.StageErrorAggregate
	for _, stage := range stages {
		aggregate := models.StageErrorAggregate{Stage: stage}

		var messages []models.StageErrorMessage
		for text, entry := range a.stageErrors[stage] {
			aggregate.Count += entry.count
			messages = append(messages, models.StageErrorMessage{
				Message:   text,
				ErrorType: entry.kind,
				Count:     entry.count,
			})
		}
		sort.Slice(messages, func(i, j int) bool {
			if messages[i].Count != messages[j].Count {
				return messages[i].Count > messages[j].Count
			}
			return messages[i].Message < messages[j].Message
		})
		if len(messages) > 3 {
			messages = messages[:3]
		}
		aggregate.TopMessages = messages
		aggregates = append(aggregates, aggregate)
	}
	return aggregates
}
