package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tsync/internal/models"
	"github.com/desertthunder/tsync/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	UserListView ViewState = iota
	ConfirmView
	SyncView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       *tasks.Engine
	users        []*models.SyncUser
	selected     []*models.SyncUser
	userList     list.Model
	bar          progress.Model
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	report       *tasks.RunReport
	width        int
	height       int
	err          error
	help         help.Model
	keys         keyMap
}

type progressUpdateMsg tasks.ProgressUpdate

type syncCompleteMsg struct {
	report *tasks.RunReport
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, engine *tasks.Engine, users []*models.SyncUser) *Model {
	items := make([]list.Item, len(users))
	for i, user := range users {
		items[i] = userItem{user: user}
	}
	userList := list.New(items, list.NewDefaultDelegate(), 0, 0)
	userList.Title = "Sync Users"

	return &Model{
		ctx:      ctx,
		view:     UserListView,
		engine:   engine,
		users:    users,
		userList: userList,
		bar:      progress.New(progress.WithDefaultGradient()),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init implements [tea.Model].
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.userList.SetSize(msg.Width-4, msg.Height-8)
		m.bar.Width = msg.Width - 8
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case UserListView:
			return m.handleUserListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case syncCompleteMsg:
		m.report = msg.report
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	if m.view == UserListView {
		var cmd tea.Cmd
		m.userList, cmd = m.userList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case UserListView:
		return m.renderUserList()
	case ConfirmView:
		return m.renderConfirm()
	case SyncView:
		return m.renderSync()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleUserListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "a":
		m.selected = m.users
		m.view = ConfirmView
		return m, nil
	case "enter":
		selected := m.userList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(userItem); ok {
				m.selected = []*models.SyncUser{item.user}
				m.view = ConfirmView
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.userList, cmd = m.userList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = UserListView
		return m, nil
	case "y":
		m.view = SyncView
		return m, m.startSync()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = UserListView
		m.selected = nil
		m.report = nil
		m.progress = tasks.ProgressUpdate{}
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) startSync() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)

	go func() {
		report := m.engine.SyncAll(m.ctx, m.selected, m.progressChan)
		m.report = report
		close(m.progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return syncCompleteMsg{report: m.report}
		}

		update, ok := <-m.progressChan
		if !ok {
			return syncCompleteMsg{report: m.report}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderUserList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.all, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.userList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	var names string
	for i, user := range m.selected {
		if i > 0 {
			names += ", "
		}
		names += user.Name
	}

	title := styles.title.Render(fmt.Sprintf("Sync %d user(s) with Trakt?", len(m.selected)))
	info := fmt.Sprintf("\nUsers: %s\n", names)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderSync() string {
	title := styles.title.Render("Syncing with Trakt")

	message := m.progress.Message
	if message == "" {
		message = "Starting..."
	}
	if m.progress.User != "" {
		message = fmt.Sprintf("[%s] %s", m.progress.User, message)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.bar.ViewAs(m.progress.Percent/100), message)
}

func (m *Model) renderResult() string {
	if m.report == nil {
		return styles.err.Render("No report available\n\nPress r to restart, q to quit")
	}

	title := styles.ok.Render("✓ Sync Complete")

	var body string
	for _, user := range m.report.Users {
		if user.Error != "" {
			body += fmt.Sprintf("\n%s: %s", user.User, styles.err.Render(user.Error))
			continue
		}

		body += fmt.Sprintf("\n%s:", styles.title.Render(user.User))
		for _, result := range user.Results {
			line := fmt.Sprintf("  %s: %d movies, %d shows", result.Op, result.Movies, result.Shows)
			switch {
			case result.Err != nil:
				line = styles.err.Render(line + " (failed)")
			case result.Skipped && result.Movies == 0 && result.Shows == 0:
				line = styles.help.Render(line + " (skipped)")
			}
			body += "\n" + line
		}
		if user.LocalResets > 0 {
			body += "\n" + styles.warn.Render(fmt.Sprintf("  local watch-state resets: %d", user.LocalResets))
		}
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s", title, body, helpView)
}
