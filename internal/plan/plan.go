// Package plan defines the unified research/writing plan executed by the
// report workflow: item types, lifecycle statuses, dependency validation,
// and the dispatch helpers the supervisor loops rely on.
package plan

// TaskType discriminates research items from writing items.
type TaskType string

const (
	TaskResearch TaskType = "RESEARCH"
	TaskWriting  TaskType = "WRITING"
)

// Status is the lifecycle state of a plan item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusReady      Status = "ready"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Item is one task descriptor in the plan.
//
// Content holds raw research snippets for RESEARCH items and the finished
// chapter text for WRITING items. Dependencies are meaningful only for
// WRITING items and always reference RESEARCH item ids once the plan has
// been validated.
type Item struct {
	ItemID       string   `json:"item_id"`
	TaskType     TaskType `json:"task_type"`
	Description  string   `json:"description"`
	Dependencies []string `json:"dependencies,omitempty"`
	Status       Status   `json:"status"`
	Content      string   `json:"content,omitempty"`
	Summary      string   `json:"summary,omitempty"`
	ExecutionLog []string `json:"execution_log,omitempty"`
	Evaluation   string   `json:"evaluation_results,omitempty"`
	AttemptCount int      `json:"attempt_count"`
}

// Clone returns a deep copy of the item.
func (it Item) Clone() Item {
	out := it
	out.Dependencies = append([]string(nil), it.Dependencies...)
	out.ExecutionLog = append([]string(nil), it.ExecutionLog...)
	return out
}

// CloneItems deep-copies a plan snapshot. Each workflow transition operates
// on a fresh copy so earlier snapshots stay inspectable.
func CloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

// Find returns the item with the given id and its index, or (nil, -1).
func Find(items []Item, id string) (*Item, int) {
	for i := range items {
		if items[i].ItemID == id {
			return &items[i], i
		}
	}
	return nil, -1
}

// resolved reports whether an item no longer blocks its dependents.
// A failed item that has exhausted its attempts counts as resolved.
func resolved(it Item, maxAttempts int) bool {
	if it.Status == StatusCompleted {
		return true
	}
	return it.Status == StatusFailed && it.AttemptCount >= maxAttempts
}

// MarkReady promotes pending items whose dependencies have all resolved.
// Research items carry no dependencies and become ready immediately.
func MarkReady(items []Item, maxAttempts int) {
	for i := range items {
		if items[i].Status != StatusPending {
			continue
		}
		blocked := false
		for _, dep := range items[i].Dependencies {
			d, _ := Find(items, dep)
			if d == nil || !resolved(*d, maxAttempts) {
				blocked = true
				break
			}
		}
		if !blocked {
			items[i].Status = StatusReady
		}
	}
}

// NextEligible scans the plan in stored order and returns the index of the
// first item of the given type that still needs work: anything not yet
// completed whose attempt budget is not exhausted. Failed items are selected
// again until they hit the attempt cap. Returns -1 when the phase is done.
func NextEligible(items []Item, tt TaskType, maxAttempts int) int {
	for i := range items {
		if items[i].TaskType != tt {
			continue
		}
		if items[i].Status == StatusCompleted {
			continue
		}
		if items[i].AttemptCount >= maxAttempts {
			continue
		}
		return i
	}
	return -1
}

// ResearchIDs returns the ids of all RESEARCH items in plan order.
func ResearchIDs(items []Item) []string {
	var ids []string
	for _, it := range items {
		if it.TaskType == TaskResearch {
			ids = append(ids, it.ItemID)
		}
	}
	return ids
}

// WritingItems returns the WRITING items in plan order.
func WritingItems(items []Item) []Item {
	var out []Item
	for _, it := range items {
		if it.TaskType == TaskWriting {
			out = append(out, it)
		}
	}
	return out
}
