package entity

import (
	"sort"
	"strings"
)

// Tag candidate priorities. Directly observed behavior (memberships, going
// RSVPs) ranks above profile-declared attributes.
const (
	TagPriorityMembership     = 100
	TagPriorityRSVP           = 90
	TagPriorityInterest       = 50
	TagPriorityCustomInterest = 40
	TagPriorityExperience     = 30
	TagPriorityLocation       = 20
)

const (
	maxTagLength    = 50
	DefaultTagLimit = 10
)

// TagCandidate is a (tag, priority) pair collected from one source.
type TagCandidate struct {
	Name     string
	Priority int
}

type rankedTag struct {
	display   string
	priority  int
	frequency int
}

// RankTags merges candidates into a ranked tag list. Tags are deduplicated
// case-insensitively keeping the highest-priority occurrence; empty strings
// and tags longer than 50 characters are discarded. Survivors are ordered by
// priority desc, then frequency desc, then lexically, and capped at limit.
// The result is deterministic for identical inputs and never nil.
func RankTags(candidates []TagCandidate, limit int) []string {
	if limit <= 0 {
		limit = DefaultTagLimit
	}

	merged := make(map[string]*rankedTag)
	for _, c := range candidates {
		name := strings.TrimSpace(c.Name)
		if name == "" || len(name) > maxTagLength {
			continue
		}

		key := strings.ToLower(name)
		existing, ok := merged[key]
		if !ok {
			merged[key] = &rankedTag{display: name, priority: c.Priority, frequency: 1}
			continue
		}

		existing.frequency++
		if c.Priority > existing.priority {
			existing.priority = c.Priority
			existing.display = name
		}
	}

	ranked := make([]*rankedTag, 0, len(merged))
	for _, t := range merged {
		ranked = append(ranked, t)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].priority != ranked[j].priority {
			return ranked[i].priority > ranked[j].priority
		}
		if ranked[i].frequency != ranked[j].frequency {
			return ranked[i].frequency > ranked[j].frequency
		}
		return strings.ToLower(ranked[i].display) < strings.ToLower(ranked[j].display)
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	result := make([]string, 0, len(ranked))
	for _, t := range ranked {
		result = append(result, t.display)
	}
	return result
}
