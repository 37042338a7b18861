package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fencedPlan = "Here is the plan:\n```json\n{\n  \"plan\": [\n    {\"item_id\": \"research_1\", \"task_type\": \"RESEARCH\", \"description\": \"dig\", \"dependencies\": []},\n    {\"item_id\": \"writing_1\", \"task_type\": \"WRITING\", \"description\": \"write\", \"dependencies\": [\"research_1\"]}\n  ],\n  \"overall_outline\": \"# Outline\"\n}\n```\nDone."

func TestParsePlannerOutput_FencedJSON(t *testing.T) {
	items, outline, err := ParsePlannerOutput(fencedPlan)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "research_1", items[0].ItemID)
	assert.Equal(t, TaskResearch, items[0].TaskType)
	assert.Equal(t, TaskWriting, items[1].TaskType)
	assert.Equal(t, []string{"research_1"}, items[1].Dependencies)
	assert.Equal(t, "# Outline", outline)

	// Items always start pending, whatever the model said.
	for _, it := range items {
		assert.Equal(t, StatusPending, it.Status)
		assert.Zero(t, it.AttemptCount)
	}
}

func TestParsePlannerOutput_BareJSON(t *testing.T) {
	items, outline, err := ParsePlannerOutput(`{"plan": [], "overall_outline": "x"}`)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, "x", outline)
}

func TestParsePlannerOutput_Malformed(t *testing.T) {
	_, _, err := ParsePlannerOutput("I could not produce a plan, sorry.")
	assert.Error(t, err)
}

func TestCleanJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, CleanJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, CleanJSON("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, CleanJSON(`  {"a":1}  `))
}
