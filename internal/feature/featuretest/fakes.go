// Package featuretest provides in-memory collaborators for feature tests.
package featuretest

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dshills/julook/internal/catalog"
	"github.com/dshills/julook/internal/notify"
)

// Calls counts collaborator calls by method name.
type Calls struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *Calls) add(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	c.counts[name]++
}

// Count returns how often name was called.
func (c *Calls) Count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[name]
}

// Remote is an in-memory catalog.Remote.
type Remote struct {
	Calls

	mu        sync.Mutex
	items     []catalog.Makgeolli
	comments  map[string][]catalog.Comment
	profiles  map[string]catalog.Profile
	reactions map[string]catalog.Reaction
	queries   []string
	failures  map[string]error
	nextID    int
}

// NewRemote returns a remote serving items.
func NewRemote(items ...catalog.Makgeolli) *Remote {
	return &Remote{
		items:     items,
		comments:  make(map[string][]catalog.Comment),
		profiles:  make(map[string]catalog.Profile),
		reactions: make(map[string]catalog.Reaction),
		failures:  make(map[string]error),
	}
}

// Fail makes every later call to method return err. A nil err clears it.
func (r *Remote) Fail(method string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.failures, method)
		return
	}
	r.failures[method] = err
}

// SetProfile stores a profile.
func (r *Remote) SetProfile(p catalog.Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.UserID] = p
}

// AddComment stores a comment.
func (r *Remote) AddComment(c catalog.Comment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comments[c.MakgeolliID] = append(r.comments[c.MakgeolliID], c)
}

// Queries returns the search queries received, in order.
func (r *Remote) Queries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.queries)
}

// Reaction returns the stored reaction of user on makgeolliID.
func (r *Remote) Reaction(userID, makgeolliID string) catalog.Reaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reactions[userID+"/"+makgeolliID]
}

func (r *Remote) begin(method string) error {
	r.add(method)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failures[method]
}

// ListMakgeollis implements catalog.Remote.
func (r *Remote) ListMakgeollis(_ context.Context, filter catalog.TasteFilter, limit, offset int) ([]catalog.Makgeolli, error) {
	if err := r.begin("ListMakgeollis"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []catalog.Makgeolli
	for _, m := range r.items {
		if filter.Matches(m) {
			matched = append(matched, m)
		}
	}
	if offset >= len(matched) {
		return nil, nil
	}
	end := len(matched)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return slices.Clone(matched[offset:end]), nil
}

// GetMakgeolli implements catalog.Remote.
func (r *Remote) GetMakgeolli(_ context.Context, id string) (catalog.Makgeolli, error) {
	if err := r.begin("GetMakgeolli"); err != nil {
		return catalog.Makgeolli{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.items {
		if m.ID == id {
			return m, nil
		}
	}
	return catalog.Makgeolli{}, catalog.ErrNotFound
}

// GetMakgeollis implements catalog.Remote.
func (r *Remote) GetMakgeollis(_ context.Context, ids []string) ([]catalog.Makgeolli, error) {
	if err := r.begin("GetMakgeollis"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []catalog.Makgeolli
	for _, id := range ids {
		for _, m := range r.items {
			if m.ID == id {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

// SearchMakgeollis implements catalog.Remote.
func (r *Remote) SearchMakgeollis(_ context.Context, query string, limit int) ([]catalog.Makgeolli, error) {
	if err := r.begin("SearchMakgeollis"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, query)
	var out []catalog.Makgeolli
	for _, m := range r.items {
		if strings.Contains(m.Name, query) || strings.Contains(m.Brewery, query) {
			out = append(out, m)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// FetchImage implements catalog.Remote.
func (r *Remote) FetchImage(_ context.Context, path string) ([]byte, error) {
	if err := r.begin("FetchImage"); err != nil {
		return nil, err
	}
	return []byte("img:" + path), nil
}

// ListComments implements catalog.Remote.
func (r *Remote) ListComments(_ context.Context, makgeolliID string) ([]catalog.Comment, error) {
	if err := r.begin("ListComments"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := slices.Clone(r.comments[makgeolliID])
	slices.Reverse(out)
	return out, nil
}

// CreateComment implements catalog.Remote.
func (r *Remote) CreateComment(_ context.Context, c catalog.Comment) (catalog.Comment, error) {
	if err := r.begin("CreateComment"); err != nil {
		return catalog.Comment{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c.ID = fmt.Sprintf("c%d", r.nextID)
	c.CreatedAt = time.Date(2024, 1, 1, 0, 0, r.nextID, 0, time.UTC)
	r.comments[c.MakgeolliID] = append(r.comments[c.MakgeolliID], c)
	return c, nil
}

// DeleteComment implements catalog.Remote.
func (r *Remote) DeleteComment(_ context.Context, id string) error {
	if err := r.begin("DeleteComment"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for mid, list := range r.comments {
		r.comments[mid] = slices.DeleteFunc(list, func(c catalog.Comment) bool { return c.ID == id })
	}
	return nil
}

// UpsertReaction implements catalog.Remote.
func (r *Remote) UpsertReaction(_ context.Context, userID, makgeolliID string, reaction catalog.Reaction) error {
	if err := r.begin("UpsertReaction"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reactions[userID+"/"+makgeolliID] = reaction
	return nil
}

// DeleteReaction implements catalog.Remote.
func (r *Remote) DeleteReaction(_ context.Context, userID, makgeolliID string) error {
	if err := r.begin("DeleteReaction"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reactions, userID+"/"+makgeolliID)
	return nil
}

// GetProfile implements catalog.Remote.
func (r *Remote) GetProfile(_ context.Context, userID string) (catalog.Profile, error) {
	if err := r.begin("GetProfile"); err != nil {
		return catalog.Profile{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return catalog.Profile{}, catalog.ErrNotFound
	}
	return p, nil
}

// NicknameExists implements catalog.Remote.
func (r *Remote) NicknameExists(_ context.Context, nickname string) (bool, error) {
	if err := r.begin("NicknameExists"); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.Nickname == nickname {
			return true, nil
		}
	}
	return false, nil
}

// UpdateNickname implements catalog.Remote.
func (r *Remote) UpdateNickname(_ context.Context, userID, nickname string) (catalog.Profile, error) {
	if err := r.begin("UpdateNickname"); err != nil {
		return catalog.Profile{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p := catalog.Profile{UserID: userID, Nickname: nickname}
	r.profiles[userID] = p
	return p, nil
}

// Local is an in-memory catalog.Local.
type Local struct {
	Calls

	mu        sync.Mutex
	kv        map[string]string
	favorites []string
	reactions map[string]catalog.Reaction
	err       error
}

// NewLocal returns an empty store.
func NewLocal() *Local {
	return &Local{kv: make(map[string]string), reactions: make(map[string]catalog.Reaction)}
}

// FailAll makes every later call return err. A nil err clears it.
func (l *Local) FailAll(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
}

func (l *Local) begin(method string) error {
	l.add(method)
	return l.err
}

// Get implements catalog.Local.
func (l *Local) Get(_ context.Context, key string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.begin("Get"); err != nil {
		return "", false, err
	}
	v, ok := l.kv[key]
	return v, ok, nil
}

// Set implements catalog.Local.
func (l *Local) Set(_ context.Context, key, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.begin("Set"); err != nil {
		return err
	}
	l.kv[key] = value
	return nil
}

// Delete implements catalog.Local.
func (l *Local) Delete(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.begin("Delete"); err != nil {
		return err
	}
	delete(l.kv, key)
	return nil
}

// IsFavorite implements catalog.Local.
func (l *Local) IsFavorite(_ context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.begin("IsFavorite"); err != nil {
		return false, err
	}
	return slices.Contains(l.favorites, id), nil
}

// SetFavorite implements catalog.Local.
func (l *Local) SetFavorite(_ context.Context, id string, favorite bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.begin("SetFavorite"); err != nil {
		return err
	}
	l.favorites = slices.DeleteFunc(l.favorites, func(s string) bool { return s == id })
	if favorite {
		l.favorites = append([]string{id}, l.favorites...)
	}
	return nil
}

// ListFavorites implements catalog.Local.
func (l *Local) ListFavorites(context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.begin("ListFavorites"); err != nil {
		return nil, err
	}
	return slices.Clone(l.favorites), nil
}

// CachedReaction implements catalog.Local.
func (l *Local) CachedReaction(_ context.Context, id string) (catalog.Reaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.begin("CachedReaction"); err != nil {
		return catalog.ReactionNone, err
	}
	return l.reactions[id], nil
}

// CacheReaction implements catalog.Local.
func (l *Local) CacheReaction(_ context.Context, id string, r catalog.Reaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.begin("CacheReaction"); err != nil {
		return err
	}
	if r == catalog.ReactionNone {
		delete(l.reactions, id)
	} else {
		l.reactions[id] = r
	}
	return nil
}

// Identity is a fixed catalog.Identity.
type Identity struct {
	ID  string
	Err error
}

// UserID implements catalog.Identity.
func (i Identity) UserID(context.Context) (string, error) {
	if i.Err != nil {
		return "", i.Err
	}
	if i.ID == "" {
		return "", catalog.ErrNoSession
	}
	return i.ID, nil
}

type listener struct {
	pattern notify.Topic
	fn      func(notify.Envelope)
}

// Notifier is a synchronous catalog.Notifier that records every envelope.
type Notifier struct {
	mu        sync.Mutex
	emitted   []notify.Envelope
	listeners map[int]listener
	next      int
}

// NewNotifier returns an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{listeners: make(map[int]listener)}
}

// Emit implements catalog.Notifier. Matching listeners are called before
// Emit returns.
func (n *Notifier) Emit(_ context.Context, topic notify.Topic, payload any, source string) error {
	env := notify.NewEnvelope(topic, payload, source)
	n.mu.Lock()
	n.emitted = append(n.emitted, env)
	var fns []func(notify.Envelope)
	for _, l := range n.listeners {
		if topic.Matches(l.pattern) {
			fns = append(fns, l.fn)
		}
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(env)
	}
	return nil
}

// Listen implements catalog.Notifier.
func (n *Notifier) Listen(ctx context.Context, pattern notify.Topic, fn func(notify.Envelope)) error {
	n.mu.Lock()
	id := n.next
	n.next++
	n.listeners[id] = listener{pattern: pattern, fn: fn}
	n.mu.Unlock()

	<-ctx.Done()

	n.mu.Lock()
	delete(n.listeners, id)
	n.mu.Unlock()
	return nil
}

// Listeners returns the number of active listeners.
func (n *Notifier) Listeners() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.listeners)
}

// Emitted returns the envelopes published on topic.
func (n *Notifier) Emitted(topic notify.Topic) []notify.Envelope {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notify.Envelope
	for _, env := range n.emitted {
		if env.Topic == topic {
			out = append(out, env)
		}
	}
	return out
}

// Toasts returns the published toasts.
func (n *Notifier) Toasts() []catalog.Toast {
	var out []catalog.Toast
	for _, env := range n.Emitted(notify.TopicToast) {
		if t, ok := notify.PayloadAs[catalog.Toast](env); ok {
			out = append(out, t)
		}
	}
	return out
}

var (
	_ catalog.Remote   = (*Remote)(nil)
	_ catalog.Local    = (*Local)(nil)
	_ catalog.Identity = Identity{}
	_ catalog.Notifier = (*Notifier)(nil)
)
