package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"

	"github.com/Saurabhh-37/supportsync/internal/model"
)

type ticketItem struct{ t model.Ticket }

func (i ticketItem) Title() string { return fmt.Sprintf("#%d %s", i.t.ID, i.t.Title) }

func (i ticketItem) Description() string {
	parts := []string{i.t.Status.Label(), i.t.Priority.Label()}
	if i.t.AssignedUser != nil {
		parts = append(parts, "→ "+i.t.AssignedUser.DisplayName())
	} else if i.t.AssignedTo != nil {
		parts = append(parts, fmt.Sprintf("→ user #%d", *i.t.AssignedTo))
	}
	if !i.t.CreatedAt.IsZero() {
		parts = append(parts, shortDate(i.t.CreatedAt))
	}
	return strings.Join(parts, " · ")
}

func (i ticketItem) FilterValue() string { return i.t.Title }

type featureItem struct{ f model.FeatureRequest }

func (i featureItem) Title() string { return fmt.Sprintf("#%d %s", i.f.ID, i.f.Title) }

func (i featureItem) Description() string {
	parts := []string{string(i.f.Status), string(i.f.Priority), fmt.Sprintf("▲ %d", i.f.UpvotesCount)}
	if !i.f.CreatedAt.IsZero() {
		parts = append(parts, shortDate(i.f.CreatedAt))
	}
	return strings.Join(parts, " · ")
}

func (i featureItem) FilterValue() string { return i.f.Title }

type userItem struct{ u model.User }

func (i userItem) Title() string { return i.u.DisplayName() }

func (i userItem) Description() string {
	return fmt.Sprintf("#%d · %s · %s", i.u.ID, i.u.Email, i.u.Role)
}

func (i userItem) FilterValue() string { return i.u.Username }

func shortDate(t time.Time) string {
	return t.Local().Format("2006-01-02")
}

// syncLists rebuilds the list models from the stores, keeping the cursor on
// the same record where it still exists.
func (m *appModel) syncLists() {
	syncList(&m.tickets, m.st.Tickets.Items, func(t model.Ticket) list.Item { return ticketItem{t} })
	syncList(&m.features, m.st.Features.Items, func(f model.FeatureRequest) list.Item { return featureItem{f} })
	syncList(&m.users, m.st.Users.Items, func(u model.User) list.Item { return userItem{u} })
}

type identified interface{ RecordID() int }

func syncList[T identified](l *list.Model, recs []T, wrap func(T) list.Item) {
	selID, hadSel := selectedID(l)
	items := make([]list.Item, len(recs))
	sel := -1
	for i, r := range recs {
		items[i] = wrap(r)
		if hadSel && r.RecordID() == selID {
			sel = i
		}
	}
	l.SetItems(items)
	switch {
	case sel >= 0:
		l.Select(sel)
	case l.Index() >= len(items) && len(items) > 0:
		l.Select(len(items) - 1)
	}
}

func selectedID(l *list.Model) (int, bool) {
	switch it := l.SelectedItem().(type) {
	case ticketItem:
		return it.t.ID, true
	case featureItem:
		return it.f.ID, true
	case userItem:
		return it.u.ID, true
	}
	return 0, false
}
