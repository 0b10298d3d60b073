package sources

import (
	"strconv"
	"strings"
)

// Filter narrows all by a 1-based index range ("2-5") or list ("1,3").
// A range wins over a list; with neither, all is returned.
func Filter(all []Source, rng, list string) []Source {
	if rng != "" {
		return FilterRange(all, rng)
	}
	if list != "" {
		return FilterList(all, list)
	}

	return all
}

func FilterRange(all []Source, rng string) []Source {
	parts := strings.Split(rng, "-")
	if len(parts) != 2 {
		return nil
	}

	start, err1 := atoi(parts[0])
	end, err2 := atoi(parts[1])
	if err1 != nil || err2 != nil {
		return nil
	}
	if start <= 0 || start > end || end > len(all) {
		return nil
	}

	return all[start-1 : end]
}

// FilterList skips indices that are malformed or out of range.
func FilterList(all []Source, list string) []Source {
	var out []Source
	for p := range strings.SplitSeq(list, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		idx, err := atoi(p)
		if err != nil || idx <= 0 || idx > len(all) {
			continue
		}

		out = append(out, all[idx-1])
	}

	return out
}

func atoi(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
