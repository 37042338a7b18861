package plan

import "fmt"

// Validate corrects dependency references in a freshly generated plan.
//
// For every WRITING item it drops dependency ids that do not exist in the
// plan, and ids that name a non-RESEARCH item. RESEARCH items are never
// altered. The returned errors are diagnostic only; the corrected plan is
// always usable. Validate is idempotent: re-validating an already corrected
// plan is a no-op.
func Validate(items []Item) ([]Item, []string) {
	var errs []string
	out := CloneItems(items)

	researchIDs := make(map[string]bool)
	allIDs := make(map[string]bool)
	for _, it := range out {
		allIDs[it.ItemID] = true
		if it.TaskType == TaskResearch {
			researchIDs[it.ItemID] = true
		}
	}

	for i := range out {
		if out[i].TaskType != TaskWriting {
			continue
		}
		kept := out[i].Dependencies[:0]
		for _, dep := range out[i].Dependencies {
			if !allIDs[dep] {
				errs = append(errs, fmt.Sprintf("dependency %q does not exist, removed", dep))
				continue
			}
			if !researchIDs[dep] {
				errs = append(errs, fmt.Sprintf("writing task %q depends on non-research task %q, removed", out[i].ItemID, dep))
				continue
			}
			kept = append(kept, dep)
		}
		out[i].Dependencies = kept
	}
	return out, errs
}
