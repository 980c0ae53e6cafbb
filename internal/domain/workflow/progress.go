package workflow

// Progress derives a 0-100 completion percentage from a checklist and the
// set of completed items. Completed entries are deduplicated before
// counting; an empty checklist always reads as 0.
func Progress(todoList, completedTasks []string) int {
	if len(todoList) == 0 || len(completedTasks) == 0 {
		return 0
	}

	seen := make(map[string]bool, len(completedTasks))
	for _, task := range completedTasks {
		seen[task] = true
	}

	pct := len(seen) * 100 / len(todoList)
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
