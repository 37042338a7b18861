package plan

import (
	"encoding/json"
	"regexp"
	"strings"
)

// fenceRegex extracts the body of a ```json ... ``` fenced block. Planner
// models routinely wrap their JSON output in markdown fences.
var fenceRegex = regexp.MustCompile("(?s)```(?:json)?(.*)```")

// CleanJSON strips markdown code fences from raw model output.
func CleanJSON(raw string) string {
	if m := fenceRegex.FindStringSubmatch(raw); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}

type plannerItem struct {
	ItemID       string   `json:"item_id"`
	TaskType     string   `json:"task_type"`
	Description  string   `json:"description"`
	Dependencies []string `json:"dependencies"`
}

type plannerOutput struct {
	Plan           []plannerItem `json:"plan"`
	OverallOutline string        `json:"overall_outline"`
}

// ParsePlannerOutput decodes the planner's JSON into plan items plus the
// report outline. Every item starts pending with zero attempts regardless of
// any status the model may have emitted.
func ParsePlannerOutput(raw string) ([]Item, string, error) {
	var out plannerOutput
	if err := json.Unmarshal([]byte(CleanJSON(raw)), &out); err != nil {
		return nil, "", err
	}
	items := make([]Item, 0, len(out.Plan))
	for _, p := range out.Plan {
		items = append(items, Item{
			ItemID:       p.ItemID,
			TaskType:     TaskType(p.TaskType),
			Description:  p.Description,
			Dependencies: p.Dependencies,
			Status:       StatusPending,
		})
	}
	return items, out.OverallOutline, nil
}
