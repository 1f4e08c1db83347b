package feedback

import "sort"

// SortMessages returns a copy of messages ordered by ascending Index.
// Messages sharing an index keep their input order.
func SortMessages(messages []Message) []Message {
	sorted := make([]Message, len(messages))
	copy(sorted, messages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Index < sorted[j].Index
	})
	return sorted
}
