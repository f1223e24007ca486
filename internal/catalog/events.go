package catalog

// Payloads of the cross-feature notifications.

// FavoriteChange is published on notify.TopicFavoriteChanged.
type FavoriteChange struct {
	MakgeolliID string
	IsFavorite  bool
}

// CommentChange is published on notify.TopicCommentChanged.
type CommentChange struct {
	MakgeolliID string
	CommentID   string
	Deleted     bool
}

// ReactionChange is published on notify.TopicReactionChanged.
type ReactionChange struct {
	MakgeolliID string
	Reaction    Reaction
}

// ProfileChange is published on notify.TopicProfileChanged.
type ProfileChange struct {
	Profile Profile
}
