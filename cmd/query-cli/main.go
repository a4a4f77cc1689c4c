package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"query-server/services"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true).
			PaddingLeft(2)

	normalStyle = lipgloss.NewStyle().
			PaddingLeft(4)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

type step int

const (
	stepChoosingMode step = iota
	stepEnteringIdentifier
	stepEnteringPassword
	stepLoggingIn
	stepMenu
	stepEnteringText
	stepGenerating
	stepShowingQR
	stepLoadingHistory
	stepHistory
)

var modeChoices = []string{"Guest account login", "Cloud login", "Continue as guest"}

var menuChoices = []string{"Generate QR", "History", "Favorites", "Quit"}

type model struct {
	api      *apiClient
	codec    *services.QRCodec
	deviceID string

	step         step
	cursor       int
	mode         string
	identifier   string
	currentInput string
	message      string
	quitting     bool

	qrText    string
	qrASCII   string
	items     []historyItem
	favorites bool
}

type loginSuccessMsg struct{}
type generatedMsg struct {
	text  string
	ascii string
	saved bool
}
type historyLoadedMsg []historyItem
type itemChangedMsg struct{ note string }
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

func initialModel(api *apiClient, deviceID string) model {
	return model{
		api:      api,
		codec:    services.NewQRCodec(),
		deviceID: deviceID,
		step:     stepChoosingMode,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func loginUser(api *apiClient, mode, identifier, password string) tea.Cmd {
	return func() tea.Msg {
		if err := api.login(mode, identifier, password); err != nil {
			return errMsg{err}
		}
		return loginSuccessMsg{}
	}
}

func continueAsGuest(api *apiClient, deviceID string) tea.Cmd {
	return func() tea.Msg {
		if err := api.continueAsGuest(deviceID); err != nil {
			return errMsg{err}
		}
		return loginSuccessMsg{}
	}
}

func generateQR(api *apiClient, codec *services.QRCodec, text string) tea.Cmd {
	return func() tea.Msg {
		saved, err := api.generate(text)
		if err != nil {
			return errMsg{err}
		}
		ascii, err := codec.ASCII(text)
		if err != nil {
			return errMsg{err}
		}
		return generatedMsg{text: text, ascii: ascii, saved: saved}
	}
}

func loadHistory(api *apiClient, favorites bool) tea.Cmd {
	return func() tea.Msg {
		items, err := api.history(favorites)
		if err != nil {
			return errMsg{err}
		}
		return historyLoadedMsg(items)
	}
}

func toggleFavorite(api *apiClient, id string) tea.Cmd {
	return func() tea.Msg {
		if err := api.toggleFavorite(id); err != nil {
			return errMsg{err}
		}
		return itemChangedMsg{note: "✓ Favorite updated"}
	}
}

func deleteItem(api *apiClient, id string) tea.Cmd {
	return func() tea.Msg {
		if err := api.deleteItem(id); err != nil {
			return errMsg{err}
		}
		return itemChangedMsg{note: "✓ Deleted"}
	}
}

func (m model) typing() bool {
	return m.step == stepEnteringIdentifier || m.step == stepEnteringPassword || m.step == stepEnteringText
}

func (m model) listLen() int {
	switch m.step {
	case stepChoosingMode:
		return len(modeChoices)
	case stepMenu:
		return len(menuChoices)
	case stepHistory:
		return len(m.items)
	}
	return 0
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case loginSuccessMsg:
		m.step = stepMenu
		m.cursor = 0
		m.message = successStyle.Render("✓ Signed in")

	case generatedMsg:
		m.step = stepShowingQR
		m.qrText = msg.text
		m.qrASCII = msg.ascii
		if msg.saved {
			m.message = successStyle.Render("✓ Saved to history")
		} else {
			m.message = mutedStyle.Render("History is turned off, nothing was saved")
		}

	case historyLoadedMsg:
		m.items = []historyItem(msg)
		m.step = stepHistory
		if m.cursor >= len(m.items) {
			m.cursor = max(len(m.items)-1, 0)
		}

	case itemChangedMsg:
		m.message = successStyle.Render(msg.note)
		return m, loadHistory(m.api, m.favorites)

	case errMsg:
		m.message = errorStyle.Render("✗ " + msg.err.Error())
		switch m.step {
		case stepLoggingIn:
			m.step = stepChoosingMode
			m.cursor = 0
		case stepGenerating, stepLoadingHistory:
			m.step = stepMenu
			m.cursor = 0
		}
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" || (key == "q" && !m.typing()) {
		m.quitting = true
		return m, tea.Quit
	}

	if m.typing() {
		switch key {
		case "enter":
			return m.submitInput()
		case "esc":
			m.currentInput = ""
			m.step = stepMenu
			if m.api.token == "" {
				m.step = stepChoosingMode
			}
		case "backspace":
			if len(m.currentInput) > 0 {
				r := []rune(m.currentInput)
				m.currentInput = string(r[:len(r)-1])
			}
		default:
			if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
				m.currentInput += string(msg.Runes)
				if msg.Type == tea.KeySpace && len(msg.Runes) == 0 {
					m.currentInput += " "
				}
			}
		}
		return m, nil
	}

	switch key {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < m.listLen()-1 {
			m.cursor++
		}
	case "esc":
		if m.step == stepHistory || m.step == stepShowingQR {
			m.step = stepMenu
			m.cursor = 0
		}
	case "f":
		if m.step == stepHistory && len(m.items) > 0 {
			return m, toggleFavorite(m.api, m.items[m.cursor].ID)
		}
	case "d":
		if m.step == stepHistory && len(m.items) > 0 {
			return m, deleteItem(m.api, m.items[m.cursor].ID)
		}
	case "enter":
		return m.choose()
	}
	return m, nil
}

func (m model) choose() (tea.Model, tea.Cmd) {
	switch m.step {
	case stepChoosingMode:
		switch m.cursor {
		case 0:
			m.mode = "guest"
			m.step = stepEnteringIdentifier
		case 1:
			m.mode = "authenticated"
			m.step = stepEnteringIdentifier
		default:
			m.step = stepLoggingIn
			m.message = "Starting guest session..."
			return m, continueAsGuest(m.api, m.deviceID)
		}

	case stepMenu:
		switch menuChoices[m.cursor] {
		case "Generate QR":
			m.step = stepEnteringText
		case "History", "Favorites":
			m.favorites = menuChoices[m.cursor] == "Favorites"
			m.step = stepLoadingHistory
			m.cursor = 0
			return m, loadHistory(m.api, m.favorites)
		default:
			m.quitting = true
			return m, tea.Quit
		}
		m.message = ""

	case stepShowingQR:
		m.step = stepMenu
		m.cursor = 0
	}
	return m, nil
}

func (m model) submitInput() (tea.Model, tea.Cmd) {
	input := m.currentInput
	if strings.TrimSpace(input) == "" {
		return m, nil
	}
	m.currentInput = ""

	switch m.step {
	case stepEnteringIdentifier:
		m.identifier = strings.TrimSpace(input)
		m.step = stepEnteringPassword
	case stepEnteringPassword:
		m.step = stepLoggingIn
		m.message = "Logging in..."
		return m, loginUser(m.api, m.mode, m.identifier, input)
	case stepEnteringText:
		m.step = stepGenerating
		m.message = "Generating..."
		return m, generateQR(m.api, m.codec, input)
	}
	return m, nil
}

func (m model) renderList(s *strings.Builder, choices []string) {
	for i, choice := range choices {
		cursor := " "
		style := normalStyle
		if m.cursor == i {
			cursor = ">"
			style = selectedStyle
		}
		s.WriteString(fmt.Sprintf("%s %s\n", cursor, style.Render(choice)))
	}
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("QueRy\n\n"))
	if m.message != "" && m.step != stepLoggingIn && m.step != stepGenerating {
		s.WriteString(m.message + "\n\n")
	}

	switch m.step {
	case stepChoosingMode:
		s.WriteString(promptStyle.Render("How do you want to continue?\n\n"))
		m.renderList(&s, modeChoices)
		s.WriteString("\nUse ↑/↓, Enter to choose, q to quit\n")

	case stepEnteringIdentifier:
		label := "Enter your username:"
		if m.mode == "authenticated" {
			label = "Enter your email or username:"
		}
		s.WriteString(promptStyle.Render(label + "\n"))
		s.WriteString(inputStyle.Render("> " + m.currentInput))
		s.WriteString("\n\nPress Enter\n")

	case stepEnteringPassword:
		s.WriteString(promptStyle.Render("Enter your password:\n"))
		s.WriteString(inputStyle.Render("> " + strings.Repeat("•", len([]rune(m.currentInput)))))
		s.WriteString("\n\nPress Enter\n")

	case stepLoggingIn, stepGenerating, stepLoadingHistory:
		s.WriteString(m.message + "\n")

	case stepMenu:
		m.renderList(&s, menuChoices)
		s.WriteString("\nUse ↑/↓, Enter to choose, q to quit\n")

	case stepEnteringText:
		s.WriteString(promptStyle.Render("Enter text to convert to QR:\n"))
		s.WriteString(inputStyle.Render("> " + m.currentInput))
		s.WriteString("\n\nPress Enter, Esc to go back\n")

	case stepShowingQR:
		s.WriteString(m.qrASCII + "\n")
		s.WriteString(mutedStyle.Render(m.qrText) + "\n")
		s.WriteString("\nPress Enter to continue\n")

	case stepHistory:
		title := "History"
		if m.favorites {
			title = "Favorites"
		}
		s.WriteString(promptStyle.Render(title + "\n\n"))
		if len(m.items) == 0 {
			s.WriteString(mutedStyle.Render("No QR codes in history yet") + "\n")
		}
		for i, item := range m.items {
			cursor := " "
			style := normalStyle
			if m.cursor == i {
				cursor = ">"
				style = selectedStyle
			}
			star := " "
			if item.IsFavorite {
				star = "★"
			}
			s.WriteString(fmt.Sprintf("%s %s %s %s\n", cursor, star, style.Render(truncate(item.DisplayName, 40)),
				mutedStyle.Render(item.TypeLabel+" · "+item.RelativeTime)))
		}
		s.WriteString("\n↑/↓ move, f favorite, d delete, Esc back, q quit\n")
	}

	return s.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func deviceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return uuid.New().String()
	}
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(host)).String()
}

func main() {
	serverURL := flag.String("server", envOr("QUERY_SERVER", "http://localhost:3536"), "QueRy server base URL")
	lang := flag.String("lang", os.Getenv("QUERY_LANG"), "language for server messages (en, es)")
	flag.Parse()

	api := newAPIClient(strings.TrimRight(*serverURL, "/"), *lang)
	p := tea.NewProgram(initialModel(api, deviceID()))
	if _, err := p.Run(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
