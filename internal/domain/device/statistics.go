package device

// GroupField names a column grouped counts can be computed over.
type GroupField string

const (
	GroupByType     GroupField = "type"
	GroupByStatus   GroupField = "status"
	GroupByLocation GroupField = "location"
)

// GroupCount is one row of a grouped count.
type GroupCount struct {
	Key   string
	Count int64
}

// Statistics represents device statistics
type Statistics struct {
	Total      int64
	ByType     map[string]int64
	ByStatus   map[string]int64
	ByLocation map[string]int64
}

// CountsToMap reshapes grouped rows into a map keyed by the group value.
// Groups without devices never appear, so there is no zero filling.
func CountsToMap(rows []GroupCount) map[string]int64 {
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Key] += row.Count
	}
	return out
}
