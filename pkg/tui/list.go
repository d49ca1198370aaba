package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/irfansharif/articles/pkg/article"
	"github.com/irfansharif/articles/pkg/editor"
)

// truncateString truncates a string to the given width, adding ellipsis if needed.
func truncateString(s string, width int) string {
	if width <= 3 {
		return s
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

// firstLine returns the first non-blank line of s.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// renderArticleItem renders a single read-only article row: id, title and
// status on the first line, the start of the body on the second.
func renderArticleItem(a article.Article, selected bool, width int, styles Styles) string {
	var sb strings.Builder

	badge := styles.Unpublished.String()
	if a.Published {
		badge = styles.Published.String()
	}
	titleWidth := width - 4 - 6 - lipgloss.Width(badge) - 2
	title := truncateString(a.Title, titleWidth)
	desc := truncateString(firstLine(a.Body), width-4)

	if selected {
		sb.WriteString(styles.SelectionMarker.Render(""))
		sb.WriteString(styles.ID.Render("#" + a.ID.String()))
		sb.WriteString(styles.SelectedTitle.Render(title))
		sb.WriteString("  " + badge)
		sb.WriteString("\n  ")
		sb.WriteString(styles.SelectedDesc.Render(desc))
	} else {
		sb.WriteString("  ")
		sb.WriteString(styles.ID.Render("#" + a.ID.String()))
		sb.WriteString(styles.ListItemTitle.Render(title))
		sb.WriteString("  " + badge)
		sb.WriteString("\n  ")
		sb.WriteString(styles.ListItemDesc.Render(desc))
	}

	return sb.String()
}

// renderHeader renders the article count and the active filter.
func renderHeader(shown, total int, f editor.Filter, styles Styles) string {
	var head string
	if f == editor.FilterNone {
		head = styles.Header.Render(fmt.Sprintf("Articles (%d)", total))
	} else {
		head = styles.Header.Render(fmt.Sprintf("Articles (%d of %d)", shown, total))
	}
	return head + "  " + styles.FilterLabel.Render("filter: "+f.String())
}

// renderEmptyState renders the empty state message.
func renderEmptyState(f editor.Filter, styles Styles) string {
	if f != editor.FilterNone {
		return styles.Muted.Render(fmt.Sprintf("No %s articles. Press 'f' to change the filter.", f))
	}
	return styles.Muted.Render("No articles yet. Press 'n' to write one.")
}

// renderDetail renders a single article in full.
func renderDetail(a article.Article, styles Styles) string {
	var sb strings.Builder
	sb.WriteString(styles.Muted.Render("#" + a.ID.String()))
	sb.WriteString("  ")
	if a.Published {
		sb.WriteString(styles.Published.String())
	} else {
		sb.WriteString(styles.Unpublished.String())
	}
	sb.WriteString("\n")
	sb.WriteString(styles.DetailTitle.Render(a.Title))
	sb.WriteString("\n")
	sb.WriteString(styles.DetailBody.Render(a.Body))
	return sb.String()
}
