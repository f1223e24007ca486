package main

import (
	"fmt"
	"strings"

	"github.com/rivo/uniseg"

	"github.com/dshills/julook/internal/catalog"
	"github.com/dshills/julook/internal/feature/coordinator"
	"github.com/dshills/julook/internal/feature/information"
	"github.com/dshills/julook/internal/feature/search"
)

// render prints the screen on top of the stack, or the current tab.
func (sh *shell) render(st coordinator.State) {
	var b strings.Builder
	sh.header(&b, st)

	if top, ok := st.Path.Top(); ok {
		switch {
		case top.Screen.Information != nil:
			renderInformation(&b, *top.Screen.Information)
		case top.Screen.Search != nil:
			renderSearch(&b, *top.Screen.Search)
		}
	} else {
		renderTab(&b, st)
	}

	if st.Toast != nil {
		mark := "i"
		if st.Toast.Level == catalog.ToastError {
			mark = "!"
		}
		fmt.Fprintf(&b, "[%s] %s\n", mark, st.Toast.Message)
	}
	fmt.Fprint(sh.out, b.String())
}

func (sh *shell) header(b *strings.Builder, st coordinator.State) {
	title := st.Tab.String()
	for _, e := range st.Path.Entries() {
		title += " > " + e.Screen.Name()
	}
	title = " " + title + " "
	fill := max(sh.width-uniseg.StringWidth(title), 4)
	b.WriteString(strings.Repeat("-", 2) + title + strings.Repeat("-", fill-2) + "\n")
}

func renderTab(b *strings.Builder, st coordinator.State) {
	switch st.Tab {
	case coordinator.TabHome:
		renderList(b, st.Home.Items, st.Home.IsLoading, st.Home.Err)
		if st.Home.HasMore {
			b.WriteString("  (more)\n")
		}
	case coordinator.TabFilter:
		fmt.Fprintf(b, "  filter: %s\n", describeFilter(st.Filter.Filter))
		if st.Filter.Dirty() {
			b.WriteString("  (changed, apply to search)\n")
		}
		renderList(b, st.Filter.Items, st.Filter.IsLoading, st.Filter.Err)
	case coordinator.TabMy:
		renderList(b, st.My.Items, st.My.IsLoading, st.My.Err)
	case coordinator.TabSettings:
		nick := st.Settings.Nickname()
		if nick == "" {
			nick = "(none)"
		}
		fmt.Fprintf(b, "  nickname: %s\n", nick)
		if st.Settings.IsSaving {
			b.WriteString("  saving...\n")
		}
		renderErr(b, st.Settings.Err)
	}
}

func renderList(b *strings.Builder, items []catalog.Makgeolli, loading bool, err *catalog.Error) {
	if loading {
		b.WriteString("  loading...\n")
	}
	if len(items) == 0 && !loading {
		b.WriteString("  (empty)\n")
	}
	for i, m := range items {
		fmt.Fprintf(b, "  %2d. %s %s\n", i+1, pad(m.Name, 20), m.ID)
	}
	renderErr(b, err)
}

func renderInformation(b *strings.Builder, st information.State) {
	if st.Item == nil {
		if st.IsLoading {
			b.WriteString("  loading...\n")
		}
		renderErr(b, st.Err)
		return
	}
	m := st.Item
	fmt.Fprintf(b, "  %s (%s)\n", m.Name, m.Brewery)
	fmt.Fprintf(b, "  %.1f%%  %dml  %d won\n", m.ABV, m.Volume, m.Price)
	fmt.Fprintf(b, "  sweet %d  sour %d  thick %d  fresh %d\n", m.Sweetness, m.Sourness, m.Thickness, m.Freshness)
	fav := "no"
	if st.IsFavorite {
		fav = "yes"
	}
	fmt.Fprintf(b, "  like %d  dislike %d  you: %s  favorite: %s\n", m.LikeCount, m.DislikeCount, st.Reaction, fav)

	fmt.Fprintf(b, "  comments (%d)\n", len(st.Comments))
	for _, c := range st.Comments {
		mine := ""
		if st.CanDelete(c) {
			mine = " *"
		}
		fmt.Fprintf(b, "    %s: %s [%s]%s\n", pad(c.Nickname, 10), c.Content, c.ID, mine)
	}
	renderErr(b, st.Err)
}

func renderSearch(b *strings.Builder, st search.State) {
	fmt.Fprintf(b, "  query: %s\n", st.Query)
	if st.Query == "" {
		for i, q := range st.Recent {
			fmt.Fprintf(b, "  recent %d. %s\n", i+1, q)
		}
		return
	}
	renderList(b, st.Results, st.IsSearching, st.Err)
}

func renderErr(b *strings.Builder, err *catalog.Error) {
	if err != nil {
		fmt.Fprintf(b, "  error: %s\n", err.Message())
	}
}

func describeFilter(f catalog.TasteFilter) string {
	if f.IsEmpty() {
		return "everything"
	}
	var parts []string
	for _, a := range catalog.Attributes {
		if levels := f.Levels[a]; len(levels) > 0 {
			parts = append(parts, fmt.Sprintf("%s %v", a, levels))
		}
	}
	if f.Carbonated != nil {
		parts = append(parts, fmt.Sprintf("carbonated=%t", *f.Carbonated))
	}
	if f.MinPrice > 0 || f.MaxPrice > 0 {
		parts = append(parts, fmt.Sprintf("price %d-%d", f.MinPrice, f.MaxPrice))
	}
	return strings.Join(parts, ", ")
}

// pad right-pads s to width terminal columns. Hangul takes two columns per
// syllable.
func pad(s string, width int) string {
	if w := uniseg.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
