package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Prompt = ""
	ti.Cursor.SetMode(cursor.CursorStatic)
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(colorAccentFg).Background(colorAccent)
	ti.PlaceholderStyle = styleMuted()
	return ti
}

func newTextArea(placeholder string) textarea.Model {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(4)
	ta.Cursor.SetMode(cursor.CursorStatic)
	return ta
}

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	// The app renders its own header and footer.
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(false)
	// Search is server-side.
	l.SetFilteringEnabled(false)
	l.KeyMap.Quit.SetKeys("q")
	l.KeyMap.CursorUp.SetKeys(append(l.KeyMap.CursorUp.Keys(), "ctrl+p")...)
	l.KeyMap.CursorDown.SetKeys(append(l.KeyMap.CursorDown.Keys(), "ctrl+n")...)
	return l
}

// fieldSet is an ordered group of focusable fields.
type fieldSet struct {
	focus int
	n     int
}

func (f *fieldSet) next() { f.focus = (f.focus + 1) % f.n }

func (f *fieldSet) prev() { f.focus = (f.focus - 1 + f.n) % f.n }

type loginForm struct {
	fieldSet
	email    textinput.Model
	password textinput.Model
	remember bool
}

const (
	loginEmail = iota
	loginPassword
	loginRemember
)

func newLoginForm() loginForm {
	f := loginForm{
		fieldSet: fieldSet{n: 3},
		email:    newInput("you@example.com", 254),
		password: newInput("password", 128),
	}
	f.password.EchoMode = textinput.EchoPassword
	f.password.EchoCharacter = '•'
	f.sync()
	return f
}

func (f *loginForm) reset(email string) {
	f.email.SetValue(email)
	f.password.SetValue("")
	f.remember = email != ""
	f.focus = loginEmail
	if email != "" {
		f.focus = loginPassword
	}
	f.sync()
}

func (f *loginForm) sync() {
	f.email.Blur()
	f.password.Blur()
	switch f.focus {
	case loginEmail:
		f.email.Focus()
	case loginPassword:
		f.password.Focus()
	}
}

// update routes a key to the focused field. submit is true on enter from the
// last text field.
func (f *loginForm) update(msg tea.KeyMsg) (cmd tea.Cmd, submit bool) {
	switch msg.String() {
	case "tab", "down":
		f.next()
		f.sync()
		return nil, false
	case "shift+tab", "up":
		f.prev()
		f.sync()
		return nil, false
	case "enter":
		if f.focus == loginEmail {
			f.next()
			f.sync()
			return nil, false
		}
		return nil, true
	case " ":
		if f.focus == loginRemember {
			f.remember = !f.remember
			return nil, false
		}
	}
	switch f.focus {
	case loginEmail:
		f.email, cmd = f.email.Update(msg)
	case loginPassword:
		f.password, cmd = f.password.Update(msg)
	}
	return cmd, false
}

func (f loginForm) view() string {
	check := "[ ]"
	if f.remember {
		check = "[x]"
	}
	rememberLine := check + " Remember me"
	if f.focus == loginRemember {
		rememberLine = lipgloss.NewStyle().Bold(true).Render(rememberLine)
	}
	return strings.Join([]string{
		fieldLabel("Email", f.focus == loginEmail),
		f.email.View(),
		"",
		fieldLabel("Password", f.focus == loginPassword),
		f.password.View(),
		"",
		rememberLine,
	}, "\n")
}

type signupForm struct {
	fieldSet
	username textinput.Model
	email    textinput.Model
	password textinput.Model
}

func newSignupForm() signupForm {
	f := signupForm{
		fieldSet: fieldSet{n: 3},
		username: newInput("username", 64),
		email:    newInput("you@example.com", 254),
		password: newInput("password", 128),
	}
	f.password.EchoMode = textinput.EchoPassword
	f.password.EchoCharacter = '•'
	f.sync()
	return f
}

func (f *signupForm) reset() {
	f.username.SetValue("")
	f.email.SetValue("")
	f.password.SetValue("")
	f.focus = 0
	f.sync()
}

func (f *signupForm) fields() []*textinput.Model {
	return []*textinput.Model{&f.username, &f.email, &f.password}
}

func (f *signupForm) sync() {
	for i, in := range f.fields() {
		if i == f.focus {
			in.Focus()
		} else {
			in.Blur()
		}
	}
}

func (f *signupForm) update(msg tea.KeyMsg) (cmd tea.Cmd, submit bool) {
	switch msg.String() {
	case "tab", "down":
		f.next()
		f.sync()
		return nil, false
	case "shift+tab", "up":
		f.prev()
		f.sync()
		return nil, false
	case "enter":
		if f.focus < f.n-1 {
			f.next()
			f.sync()
			return nil, false
		}
		return nil, true
	}
	in := f.fields()[f.focus]
	*in, cmd = in.Update(msg)
	return cmd, false
}

func (f signupForm) view() string {
	return strings.Join([]string{
		fieldLabel("Username", f.focus == 0),
		f.username.View(),
		"",
		fieldLabel("Email", f.focus == 1),
		f.email.View(),
		"",
		fieldLabel("Password", f.focus == 2),
		f.password.View(),
	}, "\n")
}

// createForm is shared by the new-ticket and new-feature screens; only the
// priority values differ.
type createForm struct {
	fieldSet
	title       textinput.Model
	description textarea.Model
	priorities  []string
	priority    int
	// fieldErr maps a field name to its validation message.
	fieldErr map[string]string
}

const (
	createTitle = iota
	createDescription
	createPriority
)

func newCreateForm(priorities []string, def string) createForm {
	f := createForm{
		fieldSet:    fieldSet{n: 3},
		title:       newInput("Short summary", 200),
		description: newTextArea("Describe the problem or idea (markdown)"),
		priorities:  priorities,
		fieldErr:    map[string]string{},
	}
	for i, p := range priorities {
		if p == def {
			f.priority = i
		}
	}
	f.sync()
	return f
}

func (f *createForm) resize(w int) {
	f.title.Width = max(w-4, 10)
	f.description.SetWidth(max(w-2, 10))
}

func (f *createForm) sync() {
	f.title.Blur()
	f.description.Blur()
	switch f.focus {
	case createTitle:
		f.title.Focus()
	case createDescription:
		f.description.Focus()
	}
}

func (f *createForm) selectedPriority() string {
	if len(f.priorities) == 0 {
		return ""
	}
	return f.priorities[f.priority]
}

// update routes a key to the focused field. ctrl+s submits from anywhere.
func (f *createForm) update(msg tea.KeyMsg) (cmd tea.Cmd, submit bool) {
	switch msg.String() {
	case "ctrl+s":
		return nil, true
	case "tab":
		f.next()
		f.sync()
		return nil, false
	case "shift+tab":
		f.prev()
		f.sync()
		return nil, false
	}
	switch f.focus {
	case createTitle:
		if msg.String() == "enter" {
			f.next()
			f.sync()
			return nil, false
		}
		f.title, cmd = f.title.Update(msg)
	case createDescription:
		f.description, cmd = f.description.Update(msg)
	case createPriority:
		switch msg.String() {
		case "left", "h":
			f.priority = (f.priority - 1 + len(f.priorities)) % len(f.priorities)
		case "right", "l", " ":
			f.priority = (f.priority + 1) % len(f.priorities)
		case "enter":
			return nil, true
		}
	}
	return cmd, false
}

func (f createForm) view() string {
	var pri []string
	for i, p := range f.priorities {
		if i == f.priority {
			pri = append(pri, styleActiveTab().Render(p))
		} else {
			pri = append(pri, styleTab().Render(p))
		}
	}
	lines := []string{
		fieldLabel("Title", f.focus == createTitle),
		f.title.View(),
	}
	lines = append(lines, fieldErrLine(f.fieldErr["title"])...)
	lines = append(lines, "", fieldLabel("Description", f.focus == createDescription), f.description.View())
	lines = append(lines, fieldErrLine(f.fieldErr["description"])...)
	lines = append(lines, "", fieldLabel("Priority", f.focus == createPriority), strings.Join(pri, " "))
	lines = append(lines, fieldErrLine(f.fieldErr["priority"])...)
	return strings.Join(lines, "\n")
}

func fieldLabel(s string, focused bool) string {
	if focused {
		return styleTitle().Render(s)
	}
	return styleLabel().Render(s)
}

func fieldErrLine(msg string) []string {
	if msg == "" {
		return nil
	}
	return []string{styleError().Render(msg)}
}
