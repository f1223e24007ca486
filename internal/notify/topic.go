package notify

import "strings"

// Topic is a hierarchical notification type in dot notation, for example
// "comment.changed". Subscription patterns may use "*" for exactly one
// segment and "**" for zero or more segments.
type Topic string

const (
	wildcardSingle = "*"
	wildcardMulti  = "**"
	separator      = "."
)

// Well-known topics.
const (
	TopicToast           Topic = "toast.show"
	TopicCommentChanged  Topic = "comment.changed"
	TopicFavoriteChanged Topic = "favorite.changed"
	TopicProfileChanged  Topic = "profile.changed"
	TopicReactionChanged Topic = "reaction.changed"
)

// Segments returns the topic split on dots.
func (t Topic) Segments() []string {
	if t == "" {
		return nil
	}
	return strings.Split(string(t), separator)
}

// IsPattern reports whether t contains a wildcard.
func (t Topic) IsPattern() bool {
	for _, s := range t.Segments() {
		if s == wildcardSingle || s == wildcardMulti {
			return true
		}
	}
	return false
}

// Matches reports whether t matches pattern.
func (t Topic) Matches(pattern Topic) bool {
	return matchSegments(t.Segments(), pattern.Segments())
}

func matchSegments(topic, pattern []string) bool {
	ti, pi := 0, 0
	for pi < len(pattern) {
		if pattern[pi] == wildcardMulti {
			for ; ti <= len(topic); ti++ {
				if matchSegments(topic[ti:], pattern[pi+1:]) {
					return true
				}
			}
			return false
		}
		if ti >= len(topic) {
			return false
		}
		if pattern[pi] != wildcardSingle && pattern[pi] != topic[ti] {
			return false
		}
		ti++
		pi++
	}
	return ti == len(topic)
}
