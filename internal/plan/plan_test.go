package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePlan() []Item {
	return []Item{
		{ItemID: "research_1", TaskType: TaskResearch, Description: "a", Status: StatusPending},
		{ItemID: "research_2", TaskType: TaskResearch, Description: "b", Status: StatusPending},
		{ItemID: "writing_1", TaskType: TaskWriting, Description: "c", Dependencies: []string{"research_1", "research_2"}, Status: StatusPending},
	}
}

func TestMarkReady_ResearchIsImmediatelyReady(t *testing.T) {
	items := samplePlan()
	MarkReady(items, 3)

	assert.Equal(t, StatusReady, items[0].Status)
	assert.Equal(t, StatusReady, items[1].Status)
	// Writing stays pending until its research resolves.
	assert.Equal(t, StatusPending, items[2].Status)
}

func TestMarkReady_WritingUnblocksWhenDepsResolve(t *testing.T) {
	items := samplePlan()
	items[0].Status = StatusCompleted
	items[1].Status = StatusFailed
	items[1].AttemptCount = 3

	MarkReady(items, 3)
	assert.Equal(t, StatusReady, items[2].Status)
}

func TestMarkReady_FailedDepWithAttemptsLeftStillBlocks(t *testing.T) {
	items := samplePlan()
	items[0].Status = StatusCompleted
	items[1].Status = StatusFailed
	items[1].AttemptCount = 1

	MarkReady(items, 3)
	assert.Equal(t, StatusPending, items[2].Status)
}

func TestNextEligible_PlanOrderAndAttemptCap(t *testing.T) {
	items := samplePlan()
	MarkReady(items, 3)

	assert.Equal(t, 0, NextEligible(items, TaskResearch, 3))

	items[0].Status = StatusCompleted
	assert.Equal(t, 1, NextEligible(items, TaskResearch, 3))

	// A failed item is picked again until its attempts run out.
	items[1].Status = StatusFailed
	items[1].AttemptCount = 2
	assert.Equal(t, 1, NextEligible(items, TaskResearch, 3))

	items[1].AttemptCount = 3
	assert.Equal(t, -1, NextEligible(items, TaskResearch, 3))

	assert.Equal(t, 2, NextEligible(items, TaskWriting, 3))
}

func TestCloneItems_IsolatesSnapshots(t *testing.T) {
	items := samplePlan()
	clone := CloneItems(items)
	clone[2].Dependencies[0] = "mutated"
	clone[0].ExecutionLog = append(clone[0].ExecutionLog, "entry")

	assert.Equal(t, "research_1", items[2].Dependencies[0])
	assert.Empty(t, items[0].ExecutionLog)
}

func TestFind(t *testing.T) {
	items := samplePlan()
	it, idx := Find(items, "writing_1")
	require.NotNil(t, it)
	assert.Equal(t, 2, idx)

	it, idx = Find(items, "missing")
	assert.Nil(t, it)
	assert.Equal(t, -1, idx)
}

func TestWritingItemsAndResearchIDs(t *testing.T) {
	items := samplePlan()
	assert.Equal(t, []string{"research_1", "research_2"}, ResearchIDs(items))

	writing := WritingItems(items)
	require.Len(t, writing, 1)
	assert.Equal(t, "writing_1", writing[0].ItemID)
}
