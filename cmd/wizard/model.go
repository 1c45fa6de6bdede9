package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pixelprint/storefront/internal/core/auth"
	"github.com/pixelprint/storefront/internal/core/catalog"
	"github.com/pixelprint/storefront/internal/core/product"
	"github.com/pixelprint/storefront/internal/core/wizard"
)

type step int

const (
	stepBlueprint step = iota
	stepProvider
	stepColors
	stepSizes
	stepTitle
	stepSubmitting
	stepDone
)

var stepNames = map[step]string{
	stepBlueprint: "Choose a product",
	stepProvider:  "Choose a print provider",
	stepColors:    "Choose colors (space to toggle, enter to continue)",
	stepSizes:     "Choose sizes (space to toggle, enter to continue)",
	stepTitle:     "Name your product",
}

// fetchedMsg carries a catalog reply back to Update together with the ticket
// it was issued for.
type fetchedMsg struct {
	ticket     wizard.Ticket
	blueprints []catalog.Blueprint
	providers  []catalog.Provider
	variants   []catalog.Variant
	err        error
}

type submittedMsg struct {
	result *product.Result
	err    error
}

type model struct {
	ctx       context.Context
	caller    auth.Session
	session   *wizard.Session
	catalog   wizard.Catalog
	submitter wizard.Submitter

	step   step
	cursor int
	title  textinput.Model

	result *product.Result
	status string
	quit   bool
}

func newModel(ctx context.Context, caller auth.Session, session *wizard.Session, cat wizard.Catalog, submitter wizard.Submitter) model {
	ti := textinput.New()
	ti.Placeholder = "Product title"
	ti.CharLimit = product.MaxTitleLength

	return model{
		ctx:       ctx,
		caller:    caller,
		session:   session,
		catalog:   cat,
		submitter: submitter,
		title:     ti,
	}
}

func (m model) Init() tea.Cmd {
	t, err := m.session.BeginFetch(wizard.FetchBlueprints)
	if err != nil {
		return nil
	}
	return m.fetch(t)
}

// fetch runs the catalog call for t off the update loop.
func (m model) fetch(t wizard.Ticket) tea.Cmd {
	ctx, cat, token := m.ctx, m.catalog, m.caller.Token
	return func() tea.Msg {
		msg := fetchedMsg{ticket: t}
		switch t.Kind {
		case wizard.FetchBlueprints:
			msg.blueprints, msg.err = cat.ListBlueprints(ctx, token)
		case wizard.FetchProviders:
			msg.providers, msg.err = cat.ListProviders(ctx, token, t.BlueprintID)
		case wizard.FetchVariants:
			msg.variants, msg.err = cat.ListVariants(ctx, token, t.BlueprintID, t.ProviderID)
		}
		return msg
	}
}

func (m model) submit() tea.Cmd {
	ctx, sub, caller, payload := m.ctx, m.submitter, m.caller, m.session.Payload()
	return func() tea.Msg {
		result, err := sub.Submit(ctx, caller, payload)
		return submittedMsg{result: result, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case fetchedMsg:
		m.apply(msg)
		return m, nil

	case submittedMsg:
		if msg.err != nil {
			m.step = stepTitle
			m.status = submitErrorText(msg.err)
			m.session.SetError(m.status)
			cmd := m.title.Focus()
			return m, cmd
		}
		m.result = msg.result
		m.step = stepDone
		return m, tea.Quit

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.step == stepTitle {
		var cmd tea.Cmd
		m.title, cmd = m.title.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) apply(msg fetchedMsg) {
	var err error
	switch {
	case msg.err != nil:
		err = m.session.FailFetch(msg.ticket, msg.err)
	case msg.ticket.Kind == wizard.FetchBlueprints:
		err = m.session.ApplyBlueprints(msg.ticket, msg.blueprints)
	case msg.ticket.Kind == wizard.FetchProviders:
		err = m.session.ApplyProviders(msg.ticket, msg.providers)
	case msg.ticket.Kind == wizard.FetchVariants:
		err = m.session.ApplyVariants(msg.ticket, msg.variants)
	}
	if errors.Is(err, wizard.ErrStale) {
		return
	}
	m.status = ""
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.quit = true
		return m, tea.Quit
	case tea.KeyEsc:
		if m.step > stepBlueprint && m.step <= stepTitle {
			m.title.Blur()
			m.step--
			m.cursor = 0
			return m, nil
		}
		m.quit = true
		return m, tea.Quit
	}

	if m.step == stepTitle {
		if msg.Type == tea.KeyEnter {
			m.session.SetDetails(m.title.Value(), "")
			if err := product.Validate(m.session.Payload().Normalize()); err != nil {
				m.status = err.Error()
				return m, nil
			}
			m.title.Blur()
			m.step = stepSubmitting
			return m, m.submit()
		}
		var cmd tea.Cmd
		m.title, cmd = m.title.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q":
		m.quit = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.options())-1 {
			m.cursor++
		}
	case "r":
		return m, m.reload()
	case " ":
		m.toggle()
	case "enter":
		return m.choose()
	}
	return m, nil
}

// reload re-runs the fetch that feeds the current step.
func (m *model) reload() tea.Cmd {
	kind := wizard.FetchBlueprints
	switch m.step {
	case stepProvider:
		kind = wizard.FetchProviders
	case stepColors, stepSizes:
		kind = wizard.FetchVariants
	}
	t, err := m.session.BeginFetch(kind)
	if err != nil {
		m.status = err.Error()
		return nil
	}
	return m.fetch(t)
}

func (m *model) toggle() {
	opts := m.options()
	if m.cursor >= len(opts) {
		return
	}
	var err error
	switch m.step {
	case stepColors:
		err = m.session.ToggleColor(opts[m.cursor].key)
	case stepSizes:
		err = m.session.ToggleVariant(opts[m.cursor].id)
	}
	if err != nil {
		m.status = err.Error()
	}
}

func (m model) choose() (tea.Model, tea.Cmd) {
	snap := m.session.Snapshot()
	opts := m.options()

	switch m.step {
	case stepBlueprint, stepProvider:
		if m.cursor >= len(opts) {
			return m, nil
		}
		var (
			t   wizard.Ticket
			err error
		)
		if m.step == stepBlueprint {
			t, err = m.session.SetBlueprint(opts[m.cursor].id)
		} else {
			t, err = m.session.SetProvider(opts[m.cursor].id)
		}
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.step++
		m.cursor = 0
		return m, m.fetch(t)

	case stepColors:
		if len(snap.SelectedColors) == 0 {
			m.status = "select at least one color"
			return m, nil
		}
		m.step = stepSizes
		m.cursor = 0

	case stepSizes:
		if len(snap.SelectedVariantIDs) == 0 {
			m.status = "select at least one size"
			return m, nil
		}
		m.step = stepTitle
		m.status = ""
		cmd := m.title.Focus()
		return m, cmd
	}
	m.status = ""
	return m, nil
}

type option struct {
	id      int
	key     string
	label   string
	checked bool
}

// options lists what the current step offers, derived from the session.
func (m model) options() []option {
	snap := m.session.Snapshot()
	var opts []option

	switch m.step {
	case stepBlueprint:
		for _, b := range snap.Blueprints {
			checked := snap.Blueprint != nil && snap.Blueprint.ID == b.ID
			opts = append(opts, option{id: b.ID, label: b.Title, checked: checked})
		}
	case stepProvider:
		for _, p := range snap.Providers {
			checked := snap.Provider != nil && snap.Provider.ID == p.ID
			opts = append(opts, option{id: p.ID, label: p.Title, checked: checked})
		}
	case stepColors:
		chosen := set(snap.SelectedColors)
		for _, g := range snap.Colors {
			label := fmt.Sprintf("%s (%s)", g.Color, strings.Join(g.Sizes, ", "))
			opts = append(opts, option{key: g.Color, label: label, checked: chosen[g.Color]})
		}
	case stepSizes:
		chosen := set(snap.SelectedColors)
		selected := map[int]bool{}
		for _, id := range snap.SelectedVariantIDs {
			selected[id] = true
		}
		for _, g := range snap.Colors {
			if !chosen[g.Color] {
				continue
			}
			for _, v := range g.Variants {
				if v.Available {
					opts = append(opts, option{id: v.ID, label: v.Title, checked: selected[v.ID]})
				}
			}
		}
	}
	return opts
}

func (m model) View() string {
	if m.quit || m.step == stepDone {
		return ""
	}
	snap := m.session.Snapshot()

	var b strings.Builder
	if m.step == stepSubmitting {
		b.WriteString("Creating product...\n")
		return b.String()
	}

	b.WriteString(stepNames[m.step] + "\n\n")

	if m.step == stepTitle {
		b.WriteString(m.title.View() + "\n")
	} else {
		opts := m.options()
		if len(snap.Loading) > 0 {
			b.WriteString("  loading...\n")
		} else if len(opts) == 0 {
			b.WriteString("  nothing to choose from (r to reload)\n")
		}
		for i, o := range opts {
			cursor := " "
			if i == m.cursor {
				cursor = ">"
			}
			mark := "[ ]"
			if o.checked {
				mark = "[x]"
			}
			fmt.Fprintf(&b, "%s %s %s\n", cursor, mark, o.label)
		}
	}

	if snap.Error != "" {
		b.WriteString("\n! " + snap.Error + "\n")
	}
	if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}
	b.WriteString("\nenter: choose  space: toggle  r: reload  esc: back  q: quit\n")
	return b.String()
}

func submitErrorText(err error) string {
	var serr *product.SubmissionError
	if errors.As(err, &serr) && serr.Message != "" {
		return serr.Message
	}
	return err.Error()
}

func set(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, s := range items {
		out[s] = true
	}
	return out
}
