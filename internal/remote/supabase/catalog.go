package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/sjson"

	"github.com/dshills/julook/internal/catalog"
)

// Table and bucket names of the Julook project.
const (
	TableMakgeolli = "makgeolli"
	TableComments  = "comments"
	TableReactions = "reactions"
	TableUsers     = "users"
	BucketImages   = "makgeolli-images"
)

// Catalog implements catalog.Remote over PostgREST.
type Catalog struct {
	client *Client
	now    func() time.Time
}

var _ catalog.Remote = (*Catalog)(nil)

// NewCatalog wraps client.
func NewCatalog(client *Client) *Catalog {
	return &Catalog{client: client, now: time.Now}
}

// ListMakgeollis returns one page of the catalog narrowed by filter.
func (c *Catalog) ListMakgeollis(ctx context.Context, filter catalog.TasteFilter, limit, offset int) ([]catalog.Makgeolli, error) {
	q := c.client.From(TableMakgeolli).Select("*")
	for _, attr := range catalog.Attributes {
		if levels := filter.Levels[attr]; len(levels) > 0 {
			q.InInts(string(attr), levels...)
		}
	}
	if filter.Carbonated != nil {
		q.Eq("carbonated", *filter.Carbonated)
	}
	if filter.MinPrice > 0 {
		q.Gte("price", filter.MinPrice)
	}
	if filter.MaxPrice > 0 {
		q.Lte("price", filter.MaxPrice)
	}
	q.Order("name", true).Order("id", true).Limit(limit).Offset(offset)

	var out []catalog.Makgeolli
	if err := c.get(ctx, q, &out); err != nil {
		return nil, fmt.Errorf("list makgeolli: %w", err)
	}
	return out, nil
}

// GetMakgeolli returns one makgeolli.
func (c *Catalog) GetMakgeolli(ctx context.Context, id string) (catalog.Makgeolli, error) {
	var m catalog.Makgeolli
	q := c.client.From(TableMakgeolli).Select("*").Eq("id", id).Single()
	if err := c.get(ctx, q, &m); err != nil {
		return catalog.Makgeolli{}, fmt.Errorf("get makgeolli %s: %w", id, err)
	}
	return m, nil
}

// GetMakgeollis returns the makgeollis with ids, in the order of ids.
// Missing ids are skipped.
func (c *Catalog) GetMakgeollis(ctx context.Context, ids []string) ([]catalog.Makgeolli, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []catalog.Makgeolli
	q := c.client.From(TableMakgeolli).Select("*").In("id", ids...)
	if err := c.get(ctx, q, &rows); err != nil {
		return nil, fmt.Errorf("get makgeollis: %w", err)
	}
	byID := make(map[string]catalog.Makgeolli, len(rows))
	for _, m := range rows {
		byID[m.ID] = m
	}
	out := make([]catalog.Makgeolli, 0, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

// SearchMakgeollis matches query against name and brewery.
func (c *Catalog) SearchMakgeollis(ctx context.Context, query string, limit int) ([]catalog.Makgeolli, error) {
	term := sanitizeTerm(query)
	if term == "" {
		return nil, nil
	}
	pattern := "*" + term + "*"
	q := c.client.From(TableMakgeolli).Select("*").
		Or("name.ilike."+pattern, "brewery.ilike."+pattern).
		Order("like_count", false).
		Limit(limit)

	var out []catalog.Makgeolli
	if err := c.get(ctx, q, &out); err != nil {
		return nil, fmt.Errorf("search makgeolli: %w", err)
	}
	return out, nil
}

// sanitizeTerm strips characters with meaning inside a PostgREST or=() list.
func sanitizeTerm(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		switch r {
		case ',', '(', ')', '*', '%', '"':
			return -1
		}
		return r
	}, s))
}

// FetchImage downloads a catalog image.
func (c *Catalog) FetchImage(ctx context.Context, path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("fetch image: %w", catalog.ErrNotFound)
	}
	data, err := c.client.Download(ctx, BucketImages, path)
	if err != nil {
		return nil, fmt.Errorf("fetch image %s: %w", path, err)
	}
	return data, nil
}

// ListComments returns the comments on a makgeolli, newest first.
func (c *Catalog) ListComments(ctx context.Context, makgeolliID string) ([]catalog.Comment, error) {
	var out []catalog.Comment
	q := c.client.From(TableComments).Select("*").Eq("makgeolli_id", makgeolliID).Order("created_at", false)
	if err := c.get(ctx, q, &out); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return out, nil
}

// CreateComment stores cm and returns the stored row.
func (c *Catalog) CreateComment(ctx context.Context, cm catalog.Comment) (catalog.Comment, error) {
	if cm.ID == "" {
		cm.ID = uuid.NewString()
	}
	if cm.CreatedAt.IsZero() {
		cm.CreatedAt = c.now().UTC()
	}
	body, err := json.Marshal(cm)
	if err != nil {
		return catalog.Comment{}, fmt.Errorf("create comment: %w", err)
	}
	resp, err := c.client.From(TableComments).Insert(ctx, body)
	if err != nil {
		return catalog.Comment{}, fmt.Errorf("create comment: %w", err)
	}
	var rows []catalog.Comment
	if err := resp.JSON(&rows); err != nil {
		return catalog.Comment{}, err
	}
	if len(rows) == 0 {
		return cm, nil
	}
	return rows[0], nil
}

// DeleteComment removes a comment.
func (c *Catalog) DeleteComment(ctx context.Context, id string) error {
	if _, err := c.client.From(TableComments).Eq("id", id).Delete(ctx); err != nil {
		return fmt.Errorf("delete comment %s: %w", id, err)
	}
	return nil
}

// UpsertReaction sets the user's reaction on a makgeolli.
func (c *Catalog) UpsertReaction(ctx context.Context, userID, makgeolliID string, r catalog.Reaction) error {
	body, err := reactionBody(userID, makgeolliID, r)
	if err != nil {
		return fmt.Errorf("upsert reaction: %w", err)
	}
	if _, err := c.client.From(TableReactions).Upsert(ctx, body, "user_id,makgeolli_id"); err != nil {
		return fmt.Errorf("upsert reaction: %w", err)
	}
	return nil
}

func reactionBody(userID, makgeolliID string, r catalog.Reaction) ([]byte, error) {
	body, err := sjson.SetBytes([]byte(`{}`), "user_id", userID)
	if err != nil {
		return nil, err
	}
	if body, err = sjson.SetBytes(body, "makgeolli_id", makgeolliID); err != nil {
		return nil, err
	}
	return sjson.SetBytes(body, "reaction", r.String())
}

// DeleteReaction clears the user's reaction on a makgeolli.
func (c *Catalog) DeleteReaction(ctx context.Context, userID, makgeolliID string) error {
	q := c.client.From(TableReactions).Eq("user_id", userID).Eq("makgeolli_id", makgeolliID)
	if _, err := q.Delete(ctx); err != nil {
		return fmt.Errorf("delete reaction: %w", err)
	}
	return nil
}

// GetProfile returns a user's profile.
func (c *Catalog) GetProfile(ctx context.Context, userID string) (catalog.Profile, error) {
	var p catalog.Profile
	q := c.client.From(TableUsers).Select("id,nickname").Eq("id", userID).Single()
	if err := c.get(ctx, q, &p); err != nil {
		return catalog.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// NicknameExists reports whether any user already uses nickname.
func (c *Catalog) NicknameExists(ctx context.Context, nickname string) (bool, error) {
	var rows []catalog.Profile
	q := c.client.From(TableUsers).Select("id").Eq("nickname", nickname).Limit(1)
	if err := c.get(ctx, q, &rows); err != nil {
		return false, fmt.Errorf("check nickname: %w", err)
	}
	return len(rows) > 0, nil
}

// UpdateNickname changes the user's nickname.
func (c *Catalog) UpdateNickname(ctx context.Context, userID, nickname string) (catalog.Profile, error) {
	body, err := sjson.SetBytes([]byte(`{}`), "nickname", nickname)
	if err != nil {
		return catalog.Profile{}, fmt.Errorf("update nickname: %w", err)
	}
	resp, err := c.client.From(TableUsers).Eq("id", userID).Update(ctx, body)
	if err != nil {
		return catalog.Profile{}, fmt.Errorf("update nickname: %w", err)
	}
	var rows []catalog.Profile
	if err := resp.JSON(&rows); err != nil {
		return catalog.Profile{}, err
	}
	if len(rows) == 0 {
		return catalog.Profile{}, fmt.Errorf("update nickname: %w", catalog.ErrNotFound)
	}
	return rows[0], nil
}

func (c *Catalog) get(ctx context.Context, q *Query, v any) error {
	resp, err := q.Get(ctx)
	if err != nil {
		return err
	}
	return resp.JSON(v)
}
