package publish

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Saurabhh-37/supportsync/internal/model"
)

func RenderTicketMarkdown(t model.Ticket) string {
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	writeLn(fmt.Sprintf("# #%d %s", t.ID, strings.TrimSpace(t.Title)))
	writeLn("")
	writeLn("## Meta")
	writeLn("")
	writeLn("- ID: " + strconv.Itoa(t.ID))
	writeLn("- Status: " + t.Status.Label())
	writeLn("- Priority: " + t.Priority.Label())
	writeLn("- Reporter: " + userRef(t.User, t.UserID))
	switch {
	case t.AssignedUser != nil:
		writeLn("- Assignee: " + t.AssignedUser.DisplayName())
	case t.AssignedTo != nil:
		writeLn("- Assignee: " + userRef(nil, *t.AssignedTo))
	}
	writeLn("- Created: " + stamp(t.CreatedAt))
	if !t.UpdatedAt.IsZero() {
		writeLn("- Updated: " + stamp(t.UpdatedAt))
	}

	writeDescription(writeLn, t.Description)
	writeComments(writeLn, t.Comments)
	return buf.String()
}

func RenderFeatureMarkdown(f model.FeatureRequest) string {
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	writeLn(fmt.Sprintf("# #%d %s", f.ID, strings.TrimSpace(f.Title)))
	writeLn("")
	writeLn("## Meta")
	writeLn("")
	writeLn("- ID: " + strconv.Itoa(f.ID))
	writeLn("- Status: " + string(f.Status))
	writeLn("- Priority: " + string(f.Priority))
	writeLn("- Requester: " + userRef(f.Requester, f.RequesterID))
	writeLn("- Upvotes: " + strconv.Itoa(f.UpvotesCount))
	writeLn("- Created: " + stamp(f.CreatedAt))
	if !f.UpdatedAt.IsZero() {
		writeLn("- Updated: " + stamp(f.UpdatedAt))
	}

	writeDescription(writeLn, f.Description)
	writeComments(writeLn, f.Comments)
	return buf.String()
}

// RenderTicketIndexMarkdown is a table of tickets linking to their pages.
func RenderTicketIndexMarkdown(title string, ts []model.Ticket) string {
	var buf bytes.Buffer
	buf.WriteString("# " + title + "\n\n")
	if len(ts) == 0 {
		buf.WriteString("(no tickets)\n")
		return buf.String()
	}
	buf.WriteString("| ID | Title | Status | Priority |\n")
	buf.WriteString("| --- | --- | --- | --- |\n")
	for _, t := range ts {
		fmt.Fprintf(&buf, "| [#%d](%d.md) | %s | %s | %s |\n", t.ID, t.ID, cell(t.Title), t.Status.Label(), t.Priority.Label())
	}
	return buf.String()
}

func RenderFeatureIndexMarkdown(title string, fs []model.FeatureRequest) string {
	var buf bytes.Buffer
	buf.WriteString("# " + title + "\n\n")
	if len(fs) == 0 {
		buf.WriteString("(no feature requests)\n")
		return buf.String()
	}
	buf.WriteString("| ID | Title | Status | Upvotes |\n")
	buf.WriteString("| --- | --- | --- | --- |\n")
	for _, f := range fs {
		fmt.Fprintf(&buf, "| [#%d](%d.md) | %s | %s | %d |\n", f.ID, f.ID, cell(f.Title), f.Status, f.UpvotesCount)
	}
	return buf.String()
}

func writeDescription(writeLn func(string), desc string) {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return
	}
	writeLn("")
	writeLn("## Description")
	writeLn("")
	writeLn(desc)
}

func writeComments(writeLn func(string), cs []model.Comment) {
	if len(cs) == 0 {
		return
	}
	writeLn("")
	writeLn("## Comments")
	writeLn("")
	for _, c := range cs {
		writeLn("### " + userRef(c.User, c.UserID) + " (" + stamp(c.CreatedAt) + ")")
		writeLn("")
		body := strings.TrimSpace(c.Content)
		if body == "" {
			body = "(empty)"
		}
		writeLn(body)
		writeLn("")
	}
}

func userRef(u *model.User, id int) string {
	if u != nil {
		return u.DisplayName()
	}
	return "user #" + strconv.Itoa(id)
}

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// cell keeps a value on one table row.
func cell(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
