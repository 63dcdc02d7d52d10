package custody

import (
	"sort"
	"strconv"
	"strings"

	"github.com/fieldserve/tool-custody/internal/models"
)

// CompareNumbers orders tool display numbers numerically when both sides
// parse as integers ("2" < "10"), puts numeric numbers before free-text
// ones, and falls back to case-insensitive text order otherwise.
func CompareNumbers(a, b string) int {
	na, errA := strconv.Atoi(strings.TrimSpace(a))
	nb, errB := strconv.Atoi(strings.TrimSpace(b))

	switch {
	case errA == nil && errB == nil:
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}

	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// SortToolsByNumber sorts in place using CompareNumbers, with name as a
// stable tie-break for duplicate numbers.
func SortToolsByNumber(tools []models.Tool) {
	sort.SliceStable(tools, func(i, j int) bool {
		if c := CompareNumbers(tools[i].Number, tools[j].Number); c != 0 {
			return c < 0
		}
		return strings.ToLower(tools[i].Name) < strings.ToLower(tools[j].Name)
	})
}
