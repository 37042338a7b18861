package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_DropsGhostDependencies(t *testing.T) {
	items := []Item{
		{ItemID: "research_1", TaskType: TaskResearch},
		{ItemID: "writing_1", TaskType: TaskWriting, Dependencies: []string{"research_1", "research_99"}},
	}

	out, errs := Validate(items)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "research_99")
	assert.Equal(t, []string{"research_1"}, out[1].Dependencies)
	// Input is untouched.
	assert.Equal(t, []string{"research_1", "research_99"}, items[1].Dependencies)
}

func TestValidate_DropsCrossTypeDependencies(t *testing.T) {
	items := []Item{
		{ItemID: "research_1", TaskType: TaskResearch},
		{ItemID: "writing_1", TaskType: TaskWriting, Dependencies: []string{"research_1"}},
		{ItemID: "writing_2", TaskType: TaskWriting, Dependencies: []string{"writing_1", "research_1"}},
	}

	out, errs := Validate(items)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `"writing_1"`)
	assert.Equal(t, []string{"research_1"}, out[2].Dependencies)
}

func TestValidate_ResearchItemsNeverAltered(t *testing.T) {
	// Planner bugs sometimes attach dependencies to research items; the
	// validator leaves them alone since dispatch ignores them.
	items := []Item{
		{ItemID: "research_1", TaskType: TaskResearch, Dependencies: []string{"bogus"}},
	}
	out, errs := Validate(items)
	assert.Empty(t, errs)
	assert.Equal(t, []string{"bogus"}, out[0].Dependencies)
}

func TestValidate_Idempotent(t *testing.T) {
	items := []Item{
		{ItemID: "research_1", TaskType: TaskResearch},
		{ItemID: "writing_1", TaskType: TaskWriting, Dependencies: []string{"research_1", "ghost"}},
	}

	once, errs1 := Validate(items)
	require.Len(t, errs1, 1)

	twice, errs2 := Validate(once)
	assert.Empty(t, errs2)
	assert.Equal(t, once, twice)
}
