package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/julook/internal/catalog"
	"github.com/dshills/julook/internal/feature/coordinator"
	"github.com/dshills/julook/internal/feature/filter"
	"github.com/dshills/julook/internal/feature/home"
	"github.com/dshills/julook/internal/feature/information"
	"github.com/dshills/julook/internal/feature/mymakgeolli"
	"github.com/dshills/julook/internal/feature/search"
	"github.com/dshills/julook/internal/feature/settings"
	"github.com/dshills/julook/internal/nav"
)

var errQuit = errors.New("quit")

// driver is the part of the application the shell talks to.
type driver interface {
	Send(coordinator.Action)
	State() coordinator.State
	Wait(ctx context.Context) error
}

// shell reads one command per line, turns it into root actions and prints
// the resulting screen.
type shell struct {
	app    driver
	in     *bufio.Scanner
	out    io.Writer
	prompt string
	width  int
	// settle bounds how long a command waits for its effects.
	settle time.Duration
}

func newShell(app driver, in io.Reader, out io.Writer) *shell {
	return &shell{
		app:    app,
		in:     bufio.NewScanner(in),
		out:    out,
		width:  60,
		settle: 10 * time.Second,
	}
}

type command struct {
	usage string
	help  string
	run   func(sh *shell, args []string) error
}

func commandTable() map[string]command {
	return map[string]command{
		"help":    {"help", "list commands", (*shell).help},
		"quit":    {"quit", "exit julook", func(*shell, []string) error { return errQuit }},
		"state":   {"state", "show the current screen", func(*shell, []string) error { return nil }},
		"tab":     {"tab <home|filter|my|settings>", "switch tabs", (*shell).tab},
		"open":    {"open <n|id>", "open a makgeolli from the visible list", (*shell).open},
		"more":    {"more", "load the next page", (*shell).more},
		"refresh": {"refresh", "reload the current tab", (*shell).refresh},
		"back":    {"back", "pop the top screen", (*shell).back},
		"root":    {"root", "close every screen", (*shell).root},
		"results": {"results", "go back to the search results", (*shell).results},
		"close":   {"close", "close the top screen", (*shell).closeTop},
		"fav":     {"fav", "toggle favorite on the open makgeolli", (*shell).fav},
		"like":    {"like", "like the open makgeolli", react(catalog.ReactionLike)},
		"dislike": {"dislike", "dislike the open makgeolli", react(catalog.ReactionDislike)},
		"comment": {"comment <text>", "post a comment", (*shell).comment},
		"delete":  {"delete <comment id>", "delete one of your comments", (*shell).deleteComment},
		"search":  {"search [query]", "open search, optionally running a query", (*shell).search},
		"recent":  {"recent <n>", "rerun a recent search", (*shell).recent},
		"taste":   {"taste <attribute> <1-5>", "toggle a taste level in the filter", (*shell).taste},
		"fizzy":   {"fizzy", "cycle the carbonation filter", (*shell).fizzy},
		"price":   {"price <min> <max>", "set the price range", (*shell).price},
		"apply":   {"apply", "run the filter", (*shell).apply},
		"reset":   {"reset", "clear the filter", (*shell).reset},
		"remove":  {"remove <n|id>", "remove a favorite", (*shell).remove},
		"nick":    {"nick <name>", "change your nickname", (*shell).nick},
	}
}

// run executes commands until input ends, quit is entered or ctx is done.
func (sh *shell) run(ctx context.Context) error {
	sh.render(sh.app.State())
	for ctx.Err() == nil {
		if sh.prompt != "" {
			fmt.Fprint(sh.out, sh.prompt)
		}
		if !sh.in.Scan() {
			return sh.in.Err()
		}
		if err := sh.exec(ctx, sh.in.Text()); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintf(sh.out, "error: %v\n", err)
		}
	}
	return nil
}

// exec runs one line, waits for its effects and prints the result.
func (sh *shell) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, ok := commandTable()[strings.ToLower(fields[0])]
	if !ok {
		return fmt.Errorf("unknown command %q (try help)", fields[0])
	}
	if err := cmd.run(sh, fields[1:]); err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, sh.settle)
	defer cancel()
	if err := sh.app.Wait(waitCtx); err != nil && ctx.Err() == nil {
		fmt.Fprintln(sh.out, "still working...")
	}
	sh.render(sh.app.State())
	return nil
}

func (sh *shell) help([]string) error {
	table := commandTable()
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(sh.out, "  %-26s %s\n", table[name].usage, table[name].help)
	}
	return nil
}

func (sh *shell) tab(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: tab <home|filter|my|settings>")
	}
	t, ok := coordinator.ParseTab(strings.ToLower(args[0]))
	if !ok {
		return fmt.Errorf("unknown tab %q", args[0])
	}
	sh.app.Send(coordinator.TabSelected{Tab: t})
	return nil
}

// visible returns the list the user is looking at: search results when the
// search cover is on top, otherwise the current tab's list.
func visible(st coordinator.State) []catalog.Makgeolli {
	if top, ok := st.Path.Top(); ok && top.Screen.Search != nil {
		return top.Screen.Search.Results
	}
	switch st.Tab {
	case coordinator.TabFilter:
		return st.Filter.Items
	case coordinator.TabMy:
		return st.My.Items
	default:
		return st.Home.Items
	}
}

// resolve turns a 1-based list position or an id into a makgeolli id.
func resolve(items []catalog.Makgeolli, arg string) string {
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(items) {
		return items[n-1].ID
	}
	return arg
}

func (sh *shell) open(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: open <n|id>")
	}
	st := sh.app.State()
	id := resolve(visible(st), args[0])
	if top, ok := st.Path.Top(); ok && top.Screen.Search != nil {
		sh.sendScreen(top.ID, coordinator.ScreenAction{Search: search.ResultTapped{ID: id}})
		return nil
	}
	sh.app.Send(coordinator.OpenItem{ID: id})
	return nil
}

func (sh *shell) more([]string) error {
	switch sh.app.State().Tab {
	case coordinator.TabHome:
		sh.app.Send(coordinator.HomeAction{Action: home.LoadNextPage{}})
	case coordinator.TabFilter:
		sh.app.Send(coordinator.FilterAction{Action: filter.LoadMore{}})
	default:
		return errors.New("nothing to page on this tab")
	}
	return nil
}

func (sh *shell) refresh([]string) error {
	switch sh.app.State().Tab {
	case coordinator.TabHome:
		sh.app.Send(coordinator.HomeAction{Action: home.Refresh{}})
	case coordinator.TabFilter:
		sh.app.Send(coordinator.FilterAction{Action: filter.Apply{}})
	case coordinator.TabMy:
		sh.app.Send(coordinator.MyAction{Action: mymakgeolli.Reload{}})
	default:
		return errors.New("nothing to refresh on this tab")
	}
	return nil
}

func (sh *shell) back([]string) error {
	sh.app.Send(coordinator.BackTapped{})
	return nil
}

func (sh *shell) root([]string) error {
	sh.app.Send(coordinator.PopToRoot{})
	return nil
}

func (sh *shell) results([]string) error {
	if _, ok := findSearch(sh.app.State().Path); !ok {
		return errors.New("search is not open")
	}
	sh.app.Send(coordinator.BackToSearch{})
	return nil
}

func (sh *shell) closeTop([]string) error {
	top, ok := sh.app.State().Path.Top()
	if !ok {
		return errors.New("no screen is open")
	}
	switch {
	case top.Screen.Information != nil:
		sh.sendScreen(top.ID, coordinator.ScreenAction{Information: information.CloseTapped{}})
	case top.Screen.Search != nil:
		sh.sendScreen(top.ID, coordinator.ScreenAction{Search: search.CloseTapped{}})
	}
	return nil
}

func (sh *shell) sendScreen(id nav.EntryID, a coordinator.ScreenAction) {
	sh.app.Send(coordinator.PathAction{Element: nav.ElementAction[coordinator.ScreenAction]{ID: id, Action: a}})
}

// detail returns the id of the information screen on top of the stack.
func (sh *shell) detail() (nav.EntryID, error) {
	top, ok := sh.app.State().Path.Top()
	if !ok || top.Screen.Information == nil {
		return 0, errors.New("open a makgeolli first")
	}
	return top.ID, nil
}

func (sh *shell) sendDetail(actions ...information.Action) error {
	id, err := sh.detail()
	if err != nil {
		return err
	}
	for _, a := range actions {
		sh.sendScreen(id, coordinator.ScreenAction{Information: a})
	}
	return nil
}

func (sh *shell) fav([]string) error {
	return sh.sendDetail(information.ToggleFavorite{})
}

func react(r catalog.Reaction) func(*shell, []string) error {
	return func(sh *shell, _ []string) error {
		return sh.sendDetail(information.React{Reaction: r})
	}
}

func (sh *shell) comment(args []string) error {
	return sh.sendDetail(
		information.DraftChanged{Text: strings.Join(args, " ")},
		information.SubmitComment{},
	)
}

func (sh *shell) deleteComment(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: delete <comment id>")
	}
	return sh.sendDetail(information.DeleteComment{ID: args[0]})
}

// searchScreen returns the id of the search cover, presenting it if needed.
func (sh *shell) searchScreen() (nav.EntryID, error) {
	if id, ok := findSearch(sh.app.State().Path); ok {
		return id, nil
	}
	sh.app.Send(coordinator.SearchTapped{})
	if id, ok := findSearch(sh.app.State().Path); ok {
		return id, nil
	}
	return 0, errors.New("search is unavailable")
}

func findSearch(path nav.Stack[coordinator.Screen]) (nav.EntryID, bool) {
	for _, e := range path.Entries() {
		if e.Screen.Search != nil {
			return e.ID, true
		}
	}
	return 0, false
}

func (sh *shell) search(args []string) error {
	id, err := sh.searchScreen()
	if err != nil || len(args) == 0 {
		return err
	}
	sh.sendScreen(id, coordinator.ScreenAction{Search: search.QueryChanged{Query: strings.Join(args, " ")}})
	sh.sendScreen(id, coordinator.ScreenAction{Search: search.Submit{}})
	return nil
}

func (sh *shell) recent(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: recent <n>")
	}
	id, err := sh.searchScreen()
	if err != nil {
		return err
	}
	top, _ := sh.app.State().Path.Entry(id)
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(top.Screen.Search.Recent) {
		return fmt.Errorf("no recent search %q", args[0])
	}
	sh.sendScreen(id, coordinator.ScreenAction{Search: search.RecentTapped{Query: top.Screen.Search.Recent[n-1]}})
	return nil
}

// parseAttribute accepts an attribute name or any unambiguous prefix.
func parseAttribute(s string) (catalog.Attribute, error) {
	s = strings.ToLower(s)
	var match []catalog.Attribute
	for _, a := range catalog.Attributes {
		if strings.HasPrefix(string(a), s) {
			match = append(match, a)
		}
	}
	if len(match) != 1 || s == "" {
		return "", fmt.Errorf("unknown taste %q", s)
	}
	return match[0], nil
}

func (sh *shell) taste(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: taste <attribute> <1-5>")
	}
	attr, err := parseAttribute(args[0])
	if err != nil {
		return err
	}
	level, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("level %q is not a number", args[1])
	}
	sh.app.Send(coordinator.FilterAction{Action: filter.ToggleLevel{Attribute: attr, Level: level}})
	return nil
}

func (sh *shell) fizzy([]string) error {
	sh.app.Send(coordinator.FilterAction{Action: filter.ToggleCarbonated{}})
	return nil
}

func (sh *shell) price(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: price <min> <max>")
	}
	lo, err1 := strconv.Atoi(args[0])
	hi, err2 := strconv.Atoi(args[1])
	if err := errors.Join(err1, err2); err != nil {
		return fmt.Errorf("price: %w", err)
	}
	sh.app.Send(coordinator.FilterAction{Action: filter.SetPriceRange{Min: lo, Max: hi}})
	return nil
}

func (sh *shell) apply([]string) error {
	sh.app.Send(coordinator.FilterAction{Action: filter.Apply{}})
	return nil
}

func (sh *shell) reset([]string) error {
	sh.app.Send(coordinator.FilterAction{Action: filter.Reset{}})
	return nil
}

func (sh *shell) remove(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: remove <n|id>")
	}
	id := resolve(sh.app.State().My.Items, args[0])
	sh.app.Send(coordinator.MyAction{Action: mymakgeolli.RemoveFavorite{ID: id}})
	return nil
}

func (sh *shell) nick(args []string) error {
	sh.app.Send(coordinator.SettingsAction{Action: settings.DraftChanged{Text: strings.Join(args, " ")}})
	sh.app.Send(coordinator.SettingsAction{Action: settings.SaveTapped{}})
	return nil
}
