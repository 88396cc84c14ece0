package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lotas/tabtidy/internal/analyzer"
	"github.com/lotas/tabtidy/internal/applog"
	"github.com/lotas/tabtidy/internal/export"
	"github.com/lotas/tabtidy/internal/groupstore"
	"github.com/lotas/tabtidy/internal/host"
	"github.com/lotas/tabtidy/internal/selection"
	"github.com/lotas/tabtidy/internal/server"
	"github.com/lotas/tabtidy/internal/settings"
	"github.com/lotas/tabtidy/internal/storage"
	"github.com/lotas/tabtidy/internal/tabops"
	"github.com/lotas/tabtidy/internal/types"
)

// --- Messages ---

type tabsLoadedMsg struct {
	tabs []types.LiveTab
	err  error
}

type groupsLoadedMsg struct {
	groups []types.TabGroup
	bytes  int
	err    error
}

type settingsLoadedMsg struct {
	settings settings.Settings
}

type savedMsg struct {
	name      string
	snapshots []types.TabSnapshot
	err       error
}

// actionDoneMsg reports a finished tab or group action.
type actionDoneMsg struct {
	status       string
	err          error
	reloadTabs   bool
	reloadGroups bool
}

type wsEventMsg struct{ msg server.IncomingMsg }
type wsClosedMsg struct{}

// --- Dialogs ---

type dialog int

const (
	dialogNone dialog = iota
	dialogSaveName
	dialogOverwrite
	dialogCloseAfterSave
	dialogConfirmDelete
)

// Deps are the services the UI acts through.
type Deps struct {
	Host   host.TabHost
	Ops    *tabops.Orchestrator
	Groups *groupstore.Store
	Docs   storage.Store
	// Events carries pushed extension events; nil when offline.
	Events <-chan server.IncomingMsg
	// Source labels where tabs come from, shown in the navbar.
	Source         string
	MaxNamePrompts int
}

// --- Model ---

type Model struct {
	ctx  context.Context
	deps Deps

	// Data
	tabs     []types.LiveTab
	groups   []types.TabGroup
	stats    types.Stats
	settings settings.Settings

	// UI state
	panel    Panel
	current  TabsView
	saved    SavedView
	tabSel   *selection.Set[int]
	groupSel *selection.Set[string]
	search   textinput.Model
	nameIn   textinput.Model
	dialog   dialog
	loading  bool
	status   string
	err      error
	width    int
	height   int

	// Save flow
	saveIDs     []int
	saveName    string
	namePrompts int
	justSaved   []types.TabSnapshot

	// Delete flow
	deleteIDs  []string
	deleteSnap *savedRow
}

func NewModel(ctx context.Context, deps Deps) Model {
	if deps.MaxNamePrompts <= 0 {
		deps.MaxNamePrompts = 3
	}
	tabSel := selection.New[int]()
	groupSel := selection.New[string]()

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search titles and URLs"

	nameIn := textinput.New()
	nameIn.Prompt = "Name: "
	nameIn.CharLimit = 120

	s := settings.Defaults()
	saved := NewSavedView(groupSel)
	saved.ShowTabCount = s.General.ShowTabCount
	current := NewTabsView(tabSel, s.General.DefaultView)
	current.MarkDupes = s.TabManagement.DuplicateDetection

	return Model{
		ctx:      ctx,
		deps:     deps,
		settings: s,
		current:  current,
		saved:    saved,
		tabSel:   tabSel,
		groupSel: groupSel,
		search:   search,
		nameIn:   nameIn,
		loading:  true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadSettings(),
		m.loadTabs(),
		m.loadGroups(),
		listenEvents(m.deps.Events),
	)
}

var currentWindow = host.Filter{CurrentWindow: true}

func (m Model) loadTabs() tea.Cmd {
	return func() tea.Msg {
		tabs, err := m.deps.Host.Query(m.ctx, currentWindow)
		return tabsLoadedMsg{tabs: tabs, err: err}
	}
}

func (m Model) loadGroups() tea.Cmd {
	return func() tea.Msg {
		groups, err := m.deps.Groups.List(m.ctx)
		if err != nil {
			return groupsLoadedMsg{err: err}
		}
		size, err := export.Size(m.ctx, m.deps.Docs)
		return groupsLoadedMsg{groups: groups, bytes: size, err: err}
	}
}

func (m Model) loadSettings() tea.Cmd {
	return func() tea.Msg {
		s, _ := settings.Load(m.ctx, m.deps.Docs)
		return settingsLoadedMsg{settings: s}
	}
}

func listenEvents(events <-chan server.IncomingMsg) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return wsClosedMsg{}
		}
		return wsEventMsg{msg: msg}
	}
}

// done wraps an action result.
func done(status string, err error, reloadTabs, reloadGroups bool) tea.Msg {
	return actionDoneMsg{status: status, err: err, reloadTabs: reloadTabs, reloadGroups: reloadGroups}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		paneHeight := m.height - 6 // navbar, search, bottom bar, borders
		if paneHeight < 1 {
			paneHeight = 1
		}
		m.current.Width = m.width - 2
		m.current.Cursor.Height = paneHeight
		m.saved.Width = m.width - 2
		m.saved.Cursor.Height = paneHeight
		m.search.Width = m.width - 4
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tabsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.tabs = msg.tabs
		m.current.SetTabs(m.tabs)
		m.pruneTabSelection()
		return m, nil

	case groupsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.groups = msg.groups
		m.stats = analyzer.ComputeStats(m.groups, msg.bytes)
		m.saved.SetGroups(m.groups)
		return m, nil

	case settingsLoadedMsg:
		m.settings = msg.settings
		m.current.Mode = msg.settings.General.DefaultView
		m.current.MarkDupes = msg.settings.TabManagement.DuplicateDetection
		m.saved.ShowTabCount = msg.settings.General.ShowTabCount
		return m, nil

	case savedMsg:
		return m.handleSaved(msg)

	case actionDoneMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
		} else {
			m.status = ""
		}
		var cmds []tea.Cmd
		if msg.reloadTabs {
			cmds = append(cmds, m.loadTabs())
		}
		if msg.reloadGroups {
			cmds = append(cmds, m.loadGroups())
		}
		return m, tea.Batch(cmds...)

	case wsEventMsg:
		next := listenEvents(m.deps.Events)
		switch msg.msg.Type {
		case "snapshot":
			tabs, err := server.ParseSnapshot(msg.msg)
			if err != nil {
				applog.Error("tui.snapshot", err)
				return m, next
			}
			m.tabs = tabs
			m.current.SetTabs(tabs)
			m.pruneTabSelection()
			return m, next
		case "tab.created", "tab.removed", "tab.updated", "tab.moved":
			return m, tea.Batch(m.loadTabs(), next)
		}
		return m, next

	case wsClosedMsg:
		m.err = server.ErrNotConnected
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.dialog {
	case dialogSaveName:
		return m.handleSaveNameKey(msg)
	case dialogOverwrite:
		return m.handleOverwriteKey(msg)
	case dialogCloseAfterSave:
		return m.handleCloseAfterSaveKey(msg)
	case dialogConfirmDelete:
		return m.handleConfirmDeleteKey(msg)
	}

	if m.search.Focused() {
		switch msg.String() {
		case "esc":
			m.search.Blur()
			m.search.SetValue("")
			m.setQuery("")
			return m, nil
		case "enter":
			m.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.setQuery(m.search.Value())
		return m, cmd
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "tab":
		if m.panel == PanelCurrent {
			m.panel = PanelSaved
		} else {
			m.panel = PanelCurrent
		}
	case "up", "k":
		if m.panel == PanelCurrent {
			m.current.MoveUp()
		} else {
			m.saved.MoveUp()
		}
	case "down", "j":
		if m.panel == PanelCurrent {
			m.current.MoveDown()
		} else {
			m.saved.MoveDown()
		}
	case "/":
		m.search.Focus()
		return m, textinput.Blink
	case "r":
		m.status = ""
		m.err = nil
		return m, tea.Batch(m.loadTabs(), m.loadGroups())
	case "m":
		set := m.activeSelection()
		if set.Active() {
			set.Exit()
		} else {
			set.Enter()
		}
	case "esc":
		m.tabSel.Exit()
		m.groupSel.Exit()
		if m.search.Value() != "" {
			m.search.SetValue("")
			m.setQuery("")
		}
	case " ", "space":
		m.toggleUnderCursor()
	case "a":
		if m.panel == PanelCurrent && m.tabSel.Active() {
			m.tabSel.ToggleAll(m.current.FilteredIDs())
		} else if m.panel == PanelSaved && m.groupSel.Active() {
			m.groupSel.ToggleAll(m.saved.FilteredIDs())
		}
	case "enter":
		return m.handleEnter()
	case "v":
		if m.panel == PanelCurrent {
			m.current.ToggleMode()
		}
	case "s":
		if m.panel == PanelCurrent {
			return m.openSaveDialog()
		}
	case "x":
		if m.panel == PanelCurrent {
			return m, m.closeTabs()
		}
		m.openDeleteDialog()
	case "d":
		if m.panel == PanelCurrent {
			return m, m.closeDuplicates()
		}
	case "o":
		if m.panel == PanelSaved {
			return m, m.restoreGroups()
		}
	}
	return m, nil
}

func (m *Model) setQuery(q string) {
	m.current.Query = q
	m.current.Cursor.Reset()
	m.saved.Query = q
	m.saved.Cursor.Reset()
}

func (m *Model) activeSelection() interface {
	Active() bool
	Enter()
	Exit()
} {
	if m.panel == PanelCurrent {
		return m.tabSel
	}
	return m.groupSel
}

func (m *Model) toggleUnderCursor() {
	if m.panel == PanelCurrent {
		if !m.tabSel.Active() {
			return
		}
		if row, ok := m.current.Current(); ok && row.tab != nil {
			m.tabSel.Toggle(row.tab.ID)
		}
		m.current.MoveDown()
		return
	}
	if !m.groupSel.Active() {
		return
	}
	if row, ok := m.saved.Current(); ok && row.index < 0 {
		m.groupSel.Toggle(row.group.ID)
	}
	m.saved.MoveDown()
}

// pruneTabSelection drops selected ids of tabs that are gone.
func (m *Model) pruneTabSelection() {
	if m.tabSel.Len() == 0 {
		return
	}
	open := make([]int, len(m.tabs))
	for i, t := range m.tabs {
		open[i] = t.ID
	}
	keep := m.tabSel.IDs(open)
	active := m.tabSel.Active()
	m.tabSel.Clear()
	for _, id := range keep {
		m.tabSel.Toggle(id)
	}
	if active {
		m.tabSel.Enter()
	}
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	if m.panel == PanelSaved {
		m.saved.Toggle()
		return m, nil
	}
	if m.current.ToggleDomain() {
		return m, nil
	}
	row, ok := m.current.Current()
	if !ok || row.tab == nil {
		return m, nil
	}
	id := row.tab.ID
	return m, func() tea.Msg {
		return done("", m.deps.Ops.Focus(m.ctx, id), false, false)
	}
}

// targetTabs returns the selected tabs, or the one under the cursor.
func (m Model) targetTabs() []types.LiveTab {
	if m.tabSel.Active() && m.tabSel.Len() > 0 {
		byID := make(map[int]types.LiveTab, len(m.tabs))
		order := make([]int, len(m.tabs))
		for i, t := range m.tabs {
			byID[t.ID] = t
			order[i] = t.ID
		}
		var out []types.LiveTab
		for _, id := range m.tabSel.IDs(order) {
			out = append(out, byID[id])
		}
		return out
	}
	if row, ok := m.current.Current(); ok && row.tab != nil {
		return []types.LiveTab{*row.tab}
	}
	return nil
}

func (m Model) closeTabs() tea.Cmd {
	targets := m.targetTabs()
	bulk := len(targets) > 1
	var ids []int
	for _, t := range targets {
		if bulk && t.Pinned {
			continue
		}
		ids = append(ids, t.ID)
	}
	if len(ids) == 0 {
		return nil
	}
	m.tabSel.Exit()
	return func() tea.Msg {
		n, err := m.deps.Ops.CloseInWindow(m.ctx, ids)
		return done(fmt.Sprintf("Closed %d %s", n, plural(n, "tab")), err, true, false)
	}
}

func (m Model) closeDuplicates() tea.Cmd {
	return func() tea.Msg {
		n, err := m.deps.Ops.CloseDuplicates(m.ctx)
		if err == nil && n == 0 {
			return done("No duplicate tabs", nil, false, false)
		}
		return done(fmt.Sprintf("Closed %d duplicate %s", n, plural(n, "tab")), err, true, false)
	}
}

func (m Model) restoreGroups() tea.Cmd {
	var groups []types.TabGroup
	if m.groupSel.Active() && m.groupSel.Len() > 0 {
		for _, g := range m.groups {
			if m.groupSel.Contains(g.ID) {
				groups = append(groups, g)
			}
		}
	} else if row, ok := m.saved.Current(); ok {
		groups = []types.TabGroup{*row.group}
	}
	if len(groups) == 0 {
		return nil
	}
	m.groupSel.Exit()
	return func() tea.Msg {
		total := 0
		for _, g := range groups {
			n, err := m.deps.Ops.Restore(m.ctx, g)
			total += n
			if err != nil {
				return done("", err, true, false)
			}
		}
		return done(fmt.Sprintf("Restored %d %s", total, plural(total, "tab")), nil, true, false)
	}
}

// --- Save flow ---

func (m Model) openSaveDialog() (tea.Model, tea.Cmd) {
	if len(m.tabs) == 0 {
		m.err = errors.New("no tabs to save")
		return m, nil
	}
	m.saveIDs = nil
	if m.tabSel.Active() && m.tabSel.Len() > 0 {
		m.saveIDs = m.tabSel.IDs(nil)
	}
	m.namePrompts = 0
	m.dialog = dialogSaveName
	m.nameIn.SetValue("")
	m.nameIn.Focus()
	m.err = nil
	return m, textinput.Blink
}

func (m Model) handleSaveNameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.dialog = dialogNone
		m.nameIn.Blur()
		m.status = groupstore.ErrCancelled.Error()
		return m, nil
	case "enter":
		name := strings.TrimSpace(m.nameIn.Value())
		if name == "" {
			m.err = errors.New("name must not be empty")
			return m, nil
		}
		m.saveName = name
		m.nameIn.Blur()
		m.dialog = dialogNone
		return m, m.save(name, nil)
	}
	var cmd tea.Cmd
	m.nameIn, cmd = m.nameIn.Update(msg)
	return m, cmd
}

func (m Model) save(name string, p groupstore.Prompter) tea.Cmd {
	ids := m.saveIDs
	return func() tea.Msg {
		snaps, err := m.deps.Ops.Capture(m.ctx, ids)
		if err != nil {
			return savedMsg{name: name, err: err}
		}
		_, err = m.deps.Groups.Save(m.ctx, name, snaps, p)
		return savedMsg{name: name, snapshots: snaps, err: err}
	}
}

func (m Model) handleSaved(msg savedMsg) (tea.Model, tea.Cmd) {
	if errors.Is(msg.err, groupstore.ErrNameTaken) {
		m.dialog = dialogOverwrite
		m.err = nil
		return m, nil
	}
	if msg.err != nil {
		m.err = msg.err
		return m, nil
	}
	m.err = nil
	m.status = fmt.Sprintf("Saved %q (%d %s)", msg.name, len(msg.snapshots), plural(len(msg.snapshots), "tab"))
	m.tabSel.Exit()
	m.justSaved = msg.snapshots

	switch m.settings.TabManagement.CloseAfterSave {
	case settings.CloseAlways:
		return m, tea.Batch(m.loadGroups(), m.closeSaved(msg.snapshots))
	case settings.ClosePrompt:
		m.dialog = dialogCloseAfterSave
	}
	return m, m.loadGroups()
}

func (m Model) handleOverwriteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.dialog = dialogNone
		return m, m.save(m.saveName, groupstore.Overwrite{})
	case "n", "N":
		if m.namePrompts >= m.deps.MaxNamePrompts {
			m.dialog = dialogNone
			m.err = groupstore.ErrTooManyPrompts
			return m, nil
		}
		m.namePrompts++
		m.dialog = dialogSaveName
		m.nameIn.SetValue(m.saveName)
		m.nameIn.CursorEnd()
		m.nameIn.Focus()
		return m, textinput.Blink
	case "esc":
		m.dialog = dialogNone
		m.status = groupstore.ErrCancelled.Error()
	}
	return m, nil
}

func (m Model) handleCloseAfterSaveKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.dialog = dialogNone
		return m, m.closeSaved(m.justSaved)
	case "n", "N", "esc":
		m.dialog = dialogNone
	}
	return m, nil
}

func (m Model) closeSaved(snaps []types.TabSnapshot) tea.Cmd {
	return func() tea.Msg {
		n, err := m.deps.Ops.CloseSaved(m.ctx, snaps)
		return done(fmt.Sprintf("Saved and closed %d %s", n, plural(n, "tab")), err, true, false)
	}
}

// --- Delete flow ---

func (m *Model) openDeleteDialog() {
	m.deleteIDs = nil
	m.deleteSnap = nil
	if m.groupSel.Active() && m.groupSel.Len() > 0 {
		m.deleteIDs = m.groupSel.IDs(m.saved.FilteredIDs())
	} else if row, ok := m.saved.Current(); ok {
		if row.index >= 0 {
			r := row
			m.deleteSnap = &r
		} else {
			m.deleteIDs = []string{row.group.ID}
		}
	}
	if len(m.deleteIDs) > 0 || m.deleteSnap != nil {
		m.dialog = dialogConfirmDelete
	}
}

func (m Model) handleConfirmDeleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.dialog = dialogNone
		if m.deleteSnap != nil {
			groupID, index := m.deleteSnap.group.ID, m.deleteSnap.index
			url := m.deleteSnap.group.Snapshots[index].URL
			return m, func() tea.Msg {
				deleted, err := m.deps.Groups.RemoveSnapshotURL(m.ctx, groupID, index, url)
				status := "Removed tab from group"
				if deleted {
					status = "Removed last tab, group deleted"
				}
				return done(status, err, false, true)
			}
		}
		ids := m.deleteIDs
		m.groupSel.Exit()
		return m, func() tea.Msg {
			err := m.deps.Groups.DeleteMany(m.ctx, ids)
			return done(fmt.Sprintf("Deleted %d %s", len(ids), plural(len(ids), "group")), err, false, true)
		}
	case "n", "N", "esc":
		m.dialog = dialogNone
	}
	return m, nil
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// --- View ---

func (m Model) View() string {
	if m.loading {
		return "\n  Loading tabs...\n"
	}

	if d := m.dialogView(); d != "" {
		box := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Render(d)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}

	counts := [2]int{len(m.tabs), len(m.groups)}
	status := analyzer.Describe(m.stats)
	if m.deps.Source != "" {
		status = m.deps.Source + "  " + status
	}
	navbar := renderNavbar(m.panel, counts, status, m.width)

	var searchLine string
	if m.search.Focused() || m.search.Value() != "" {
		searchLine = m.search.View()
	}

	var content string
	if m.panel == PanelCurrent {
		content = m.current.View()
	} else {
		content = m.saved.View()
	}
	pane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Width(m.width - 2).
		Height(m.current.Cursor.Height).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, navbar, searchLine, pane, m.bottomBar())
}

func (m Model) dialogView() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	hintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	switch m.dialog {
	case dialogSaveName:
		n := len(m.tabs)
		if len(m.saveIDs) > 0 {
			n = len(m.saveIDs)
		}
		s := titleStyle.Render(fmt.Sprintf("Save %d %s as group", n, plural(n, "tab"))) + "\n\n" + m.nameIn.View()
		if m.err != nil {
			s += "\n" + errStyle.Render(m.err.Error())
		}
		return s + "\n\n" + hintStyle.Render("enter save · esc cancel")
	case dialogOverwrite:
		return titleStyle.Render(fmt.Sprintf("A group named %q already exists.", m.saveName)) +
			"\n\nReplace it?\n\n" + hintStyle.Render("y replace · n choose another name · esc cancel")
	case dialogCloseAfterSave:
		n := len(m.justSaved)
		return titleStyle.Render(fmt.Sprintf("Close the %d saved %s?", n, plural(n, "tab"))) +
			"\n\n" + hintStyle.Render("y close · n keep open")
	case dialogConfirmDelete:
		var q string
		if m.deleteSnap != nil {
			q = fmt.Sprintf("Remove %q from %q?", m.deleteSnap.group.Snapshots[m.deleteSnap.index].Title, m.deleteSnap.group.Name)
		} else {
			q = fmt.Sprintf("Delete %d saved %s?", len(m.deleteIDs), plural(len(m.deleteIDs), "group"))
		}
		return titleStyle.Render(q) + "\n\n" + hintStyle.Render("y delete · n cancel")
	}
	return ""
}

func (m Model) bottomBar() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(0, 1)
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Padding(0, 1)
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("70")).Padding(0, 1)

	if m.err != nil {
		return errStyle.Render("Error: " + m.err.Error())
	}

	var text string
	if m.panel == PanelCurrent {
		if m.tabSel.Active() {
			text = fmt.Sprintf("%d selected · space toggle · a all · s save · x close · esc done · ", m.tabSel.Len())
		} else {
			text = "enter focus · s save · x close · d close dupes · v view · m select · "
		}
	} else {
		if m.groupSel.Active() {
			text = fmt.Sprintf("%d selected · space toggle · a all · o restore · x delete · esc done · ", m.groupSel.Len())
		} else {
			text = "enter expand · o restore · x delete · m select · "
		}
	}
	text += "/ search · tab switch · r refresh · q quit"

	bar := style.Render(text)
	if m.status != "" {
		bar = okStyle.Render(m.status) + bar
	}
	return bar
}
