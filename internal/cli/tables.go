package cli

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/Saurabhh-37/supportsync/internal/format"
	"github.com/Saurabhh-37/supportsync/internal/model"
)

const cellWidth = 48

func cell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return ansi.Truncate(s, cellWidth, "…")
}

func day(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func ticketTable(ts []model.Ticket) format.Table {
	t := format.Table{Header: []string{"id", "title", "status", "priority", "assignee", "created"}}
	for _, tk := range ts {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(tk.ID),
			cell(tk.Title),
			tk.Status.Label(),
			tk.Priority.Label(),
			tk.AssignedUser.DisplayName(),
			day(tk.CreatedAt),
		})
	}
	return t
}

func featureTable(fs []model.FeatureRequest) format.Table {
	t := format.Table{Header: []string{"id", "title", "status", "priority", "upvotes", "requester"}}
	for _, fr := range fs {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(fr.ID),
			cell(fr.Title),
			string(fr.Status),
			string(fr.Priority),
			strconv.Itoa(fr.UpvotesCount),
			fr.Requester.DisplayName(),
		})
	}
	return t
}

func userTable(us []model.User) format.Table {
	t := format.Table{Header: []string{"id", "username", "email", "role"}}
	for _, u := range us {
		t.Rows = append(t.Rows, []string{strconv.Itoa(u.ID), u.Username, u.Email, string(u.Role)})
	}
	return t
}

func commentTable(cs []model.Comment) format.Table {
	t := format.Table{Header: []string{"id", "author", "created", "content"}}
	for _, c := range cs {
		author := c.User.DisplayName()
		if c.User == nil {
			author = "user #" + strconv.Itoa(c.UserID)
		}
		t.Rows = append(t.Rows, []string{strconv.Itoa(c.ID), author, day(c.CreatedAt), cell(c.Content)})
	}
	return t
}

// kvTable renders label/value pairs in order.
func kvTable(pairs ...string) format.Table {
	t := format.Table{Header: []string{"field", "value"}}
	for i := 0; i+1 < len(pairs); i += 2 {
		t.Rows = append(t.Rows, []string{pairs[i], pairs[i+1]})
	}
	return t
}
