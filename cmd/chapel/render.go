package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"chapel/internal/models"
	"chapel/internal/views"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const wordWrap = 80

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#B45309"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B"))
	idStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#15803D"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#B91C1C"))
	activeItem = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#B45309"))
	badgeStyle = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#FFFFFF"))
)

var categoryLabels = map[string]string{
	models.CategoryTeaching:   "Enseignement",
	models.CategoryTestimony:  "Témoignage",
	models.CategoryMeditation: "Méditation",
	models.CategoryNews:       "Actualités",
}

func categoryLabel(c string) string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return c
}

func ago(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}

func badge(text, color string) string {
	return badgeStyle.Background(lipgloss.Color(color)).Render(text)
}

func postBadges(p models.Post) string {
	var parts []string
	if p.Published {
		parts = append(parts, badge("publié", "#15803D"))
	} else {
		parts = append(parts, badge("brouillon", "#64748B"))
	}
	if p.Featured {
		parts = append(parts, badge("à la une", "#B45309"))
	}
	return strings.Join(parts, " ")
}

func renderMenu(w io.Writer, items []views.MenuItem, current views.Section) {
	for _, it := range items {
		label := it.Label
		if it.Section == current {
			label = activeItem.Render("› " + label)
		} else {
			label = "  " + label
		}
		fmt.Fprintf(w, "%s %s\n", label, mutedStyle.Render("("+string(it.Section)+")"))
	}
}

func renderPostList(w io.Writer, posts []models.Post, withStatus bool) {
	if len(posts) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("Aucun article."))
		return
	}
	for _, p := range posts {
		line := titleStyle.Render(p.Title)
		if withStatus {
			line += " " + postBadges(p)
		}
		fmt.Fprintln(w, line)
		fmt.Fprintf(w, "  %s · %s · %s\n", categoryLabel(p.Category), p.AuthorName, ago(p.CreatedAt))
		if p.Excerpt != "" {
			fmt.Fprintf(w, "  %s\n", mutedStyle.Render(p.Excerpt))
		}
		fmt.Fprintf(w, "  %s\n\n", idStyle.Render(p.ID))
	}
}

// renderMarkdown falls back to the raw text when the renderer fails.
func renderMarkdown(md string) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(wordWrap))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func renderPost(w io.Writer, p *models.Post, comments []models.Comment) {
	fmt.Fprintln(w, titleStyle.Render(p.Title))
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%s · %s · %s", categoryLabel(p.Category), p.AuthorName, ago(p.CreatedAt))))
	fmt.Fprint(w, renderMarkdown(p.Content))

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Commentaires (%d)", len(comments))))
	for _, c := range comments {
		fmt.Fprintf(w, "%s %s\n  %s\n", c.UserName, mutedStyle.Render(ago(c.CreatedAt)), c.Content)
	}
}

func renderModerationComments(w io.Writer, comments []models.ModerationComment) {
	if len(comments) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("Aucun commentaire."))
		return
	}
	for _, c := range comments {
		status := warnStyle.Render("en attente")
		if c.Approved {
			status = okStyle.Render("approuvé")
		}
		fmt.Fprintf(w, "%s sur %s · %s · %s\n", c.UserName, titleStyle.Render(c.PostTitle), ago(c.CreatedAt), status)
		fmt.Fprintf(w, "  %s\n  %s\n\n", c.Content, idStyle.Render(c.ID))
	}
}

func renderProfiles(w io.Writer, profiles []models.Profile) {
	for _, p := range profiles {
		role := string(p.Role)
		if p.IsAdmin() {
			role = okStyle.Render(role)
		}
		fmt.Fprintf(w, "%-30s %-28s %s  %s\n", p.DisplayName(), p.Email, role, idStyle.Render(p.ID))
	}
}

func renderAudit(w io.Writer, events []models.ModerationEvent) {
	for _, e := range events {
		fmt.Fprintf(w, "%s  %-22s %s/%s  %s\n",
			mutedStyle.Render(e.CreatedAt.Local().Format("2006-01-02 15:04")),
			e.Action, e.TargetType, idStyle.Render(e.TargetID), mutedStyle.Render("par "+e.ActorID))
	}
}
