package registry

import (
	"cmp"
	"slices"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/zjrosen/fedrepo/internal/log"
)

// sortSemverDesc orders tags by descending semantic version. A single tag
// that does not parse as a version leaves the listing in provider order.
func sortSemverDesc(tags []string) []string {
	type parsed struct {
		tag string
		v   *semver.Version
	}
	versions := make([]parsed, 0, len(tags))
	for _, tag := range tags {
		v, err := semver.NewVersion(tag)
		if err != nil {
			log.Warn(log.CatRegistry, "tag is not a version, keeping registry order", "tag", tag, "error", err)
			return slices.Clone(tags)
		}
		versions = append(versions, parsed{tag: tag, v: v})
	}
	slices.SortStableFunc(versions, func(a, b parsed) int {
		return b.v.Compare(a.v)
	})

	out := make([]string, 0, len(tags))
	for _, p := range versions {
		out = append(out, p.tag)
	}
	return out
}

// timedTags is a group of tags sharing one push or creation time.
type timedTags struct {
	tags []string
	at   time.Time
}

// flattenByTimeDesc returns the tags of every group, newest group first.
func flattenByTimeDesc(groups []timedTags) []string {
	slices.SortStableFunc(groups, func(a, b timedTags) int {
		return cmp.Compare(b.at.UnixNano(), a.at.UnixNano())
	})
	var out []string
	for _, g := range groups {
		out = append(out, g.tags...)
	}
	return out
}
