package main

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aberthier/conteur/internal/engine"
	"github.com/aberthier/conteur/internal/storage"
	"github.com/aberthier/conteur/pkg/scenario"
	"github.com/aberthier/conteur/pkg/state"
)

const (
	AgentName       = "Conteur"
	PlaceHolderText = "Écris ton action ici, ou choisis un numéro..."
)

// surpriseOption is the extra sub-theme entry that lets the narrator pick
// the starting point itself.
const surpriseOption = "Laisse le conteur décider"

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	engine *engine.Engine
	illus  *engine.IllustrationCoordinator
	saves  *engine.SaveManager

	sess   *state.SessionState
	themes []scenario.Theme
	heroes []scenario.Hero

	maxTurns int

	storyViewport viewport.Model
	metaViewport  viewport.Model
	textarea      textarea.Model
	nameInput     textinput.Model

	ready  bool
	width  int
	height int

	// cursor is the highlighted index of whatever list the current view
	// shows.
	cursor    int
	saveList  []storage.SaveSummary
	saveError string

	// pickedTheme holds the theme being drilled into during sub-theme
	// selection.
	pickedTheme scenario.Theme

	showQuitModal bool
	progressTick  int

	// savePrompt is set while the name of a new save is being typed.
	savePrompt bool
}

type openingResultMsg struct {
	pending *engine.PendingTurn
	raw     string
	err     error
}

type turnResultMsg struct {
	pending *engine.PendingTurn
	raw     string
	err     error
}

type illustrationMsg struct {
	segmentID int64
	url       string
	err       error
}

type savesLoadedMsg struct {
	saves []storage.SaveSummary
	err   error
}

type sessionLoadedMsg struct {
	sess *state.SessionState
	err  error
}

type saveDoneMsg struct {
	name string
	err  error
}

type saveDeletedMsg struct {
	name string
	err  error
}

type progressTickMsg struct{}

func NewConsoleUI(eng *engine.Engine, illus *engine.IllustrationCoordinator, saves *engine.SaveManager, themes []scenario.Theme, maxTurns int) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 500
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	ti := textinput.New()
	ti.Placeholder = "Ton prénom"
	ti.CharLimit = 40

	storyVp := viewport.New(50, 20)
	storyVp.MouseWheelEnabled = true
	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		engine:        eng,
		illus:         illus,
		saves:         saves,
		sess:          state.NewSession(maxTurns),
		themes:        themes,
		heroes:        scenario.Heroes(),
		maxTurns:      maxTurns,
		storyViewport: storyVp,
		metaViewport:  metaVp,
		textarea:      ta,
		nameInput:     ti,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return nil
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		return m, nil

	case openingResultMsg:
		return m.handleOpeningResult(msg)

	case turnResultMsg:
		return m.handleTurnResult(msg)

	case illustrationMsg:
		m.illus.Complete(m.sess, msg.segmentID, msg.url, msg.err)
		m.writeStoryContent()
		m.writeMetadata()
		return m, nil

	case savesLoadedMsg:
		if msg.err != nil {
			m.saveError = msg.err.Error()
		} else {
			m.saveList = msg.saves
			m.cursor = 0
		}
		return m, nil

	case sessionLoadedMsg:
		if msg.err != nil || msg.sess == nil {
			m.saveError = "Impossible de charger cette partie."
			return m, nil
		}
		m.sess = msg.sess
		m.resize()
		m.writeStoryContent()
		m.writeMetadata()
		m.textarea.Focus()
		return m, textarea.Blink

	case saveDeletedMsg:
		if msg.err != nil {
			m.saveError = "La suppression a échoué."
			return m, nil
		}
		return m, m.loadSaveList()

	case saveDoneMsg:
		if msg.err != nil {
			m.sess.LastError = "La sauvegarde a échoué. Réessaie dans un instant."
		} else {
			m.sess.LastError = ""
		}
		m.writeStoryContent()
		return m, nil

	case progressTickMsg:
		if m.sess.Loading {
			m.progressTick++
			m.writeStoryContent()
			return m, progressTick()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var vpCmd, tiCmd tea.Cmd
	m.storyViewport, vpCmd = m.storyViewport.Update(msg)
	m.textarea, tiCmd = m.textarea.Update(msg)
	return m, tea.Batch(vpCmd, tiCmd)
}

func (m *ConsoleUI) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	storyWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - storyWidth - 6
	m.storyViewport.Width = storyWidth - 2
	m.storyViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(storyWidth - 4)
	m.writeStoryContent()
	m.writeMetadata()
}

func (m ConsoleUI) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.showQuitModal = true
		return m, nil
	}

	switch m.sess.View {
	case state.ViewMenu:
		return m.updateMenu(msg)
	case state.ViewThemeSelection:
		return m.updateThemeSelection(msg)
	case state.ViewSubThemeSelection:
		return m.updateSubThemeSelection(msg)
	case state.ViewHeroSelection:
		return m.updateHeroSelection(msg)
	case state.ViewNameInput:
		return m.updateNameInput(msg)
	case state.ViewLoadingGame:
		return m.updateLoadingGame(msg)
	case state.ViewGameActive, state.ViewGameEnded:
		return m.updateGame(msg)
	}
	return m, nil
}

func (m ConsoleUI) menuEntries() []string {
	entries := []string{"Nouvelle aventure"}
	if m.saves != nil {
		entries = append(entries, "Charger une partie")
	}
	return append(entries, "Quitter")
}

func (m ConsoleUI) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	entries := m.menuEntries()
	switch msg.Type {
	case tea.KeyEsc:
		m.showQuitModal = true
	case tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case tea.KeyDown:
		if m.cursor < len(entries)-1 {
			m.cursor++
		}
	case tea.KeyEnter:
		switch entries[m.cursor] {
		case "Nouvelle aventure":
			m.sess = state.NewSession(m.maxTurns)
			if err := m.sess.To(state.ViewThemeSelection); err != nil {
				return m, nil
			}
			m.cursor = 0
		case "Charger une partie":
			if err := m.sess.To(state.ViewLoadingGame); err != nil {
				return m, nil
			}
			m.cursor = 0
			m.saveList = nil
			m.saveError = ""
			return m, m.loadSaveList()
		case "Quitter":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m ConsoleUI) updateThemeSelection(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.backToMenu()
	case tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case tea.KeyDown:
		if m.cursor < len(m.themes)-1 {
			m.cursor++
		}
	case tea.KeyEnter:
		m.pickedTheme = m.themes[m.cursor]
		m.sess.Theme = m.pickedTheme.ID
		if err := m.sess.To(state.ViewSubThemeSelection); err != nil {
			return m, nil
		}
		m.cursor = 0
	}
	return m, nil
}

func (m ConsoleUI) updateSubThemeSelection(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	total := len(m.pickedTheme.SubThemes) + 1 // plus the surprise entry
	switch msg.Type {
	case tea.KeyEsc:
		m.backToMenu()
	case tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case tea.KeyDown:
		if m.cursor < total-1 {
			m.cursor++
		}
	case tea.KeyEnter:
		if m.cursor < len(m.pickedTheme.SubThemes) {
			m.sess.SubTheme = m.pickedTheme.SubThemes[m.cursor].ID
		} else {
			m.sess.SubTheme = ""
		}
		if err := m.sess.To(state.ViewHeroSelection); err != nil {
			return m, nil
		}
		m.cursor = 0
	}
	return m, nil
}

func (m ConsoleUI) updateHeroSelection(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.backToMenu()
	case tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case tea.KeyDown:
		if m.cursor < len(m.heroes)-1 {
			m.cursor++
		}
	case tea.KeyEnter:
		m.sess.Hero = m.heroes[m.cursor].ID
		if err := m.sess.To(state.ViewNameInput); err != nil {
			return m, nil
		}
		m.nameInput.SetValue("")
		m.nameInput.Focus()
		return m, textinput.Blink
	}
	return m, nil
}

func (m ConsoleUI) updateNameInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.backToMenu()
		return m, nil
	case tea.KeyEnter:
		name := strings.TrimSpace(m.nameInput.Value())
		if name == "" {
			name = state.DefaultPlayerName
		}
		m.sess.PlayerName = name
		pending, err := m.engine.StartGame(m.sess)
		if err != nil {
			m.sess.LastError = "Impossible de démarrer la partie."
			return m, nil
		}
		m.textarea.Focus()
		m.progressTick = 0
		m.writeStoryContent()
		m.writeMetadata()
		return m, tea.Batch(m.generateOpening(pending), progressTick(), textarea.Blink)
	}
	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m ConsoleUI) updateLoadingGame(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.backToMenu()
	case tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case tea.KeyDown:
		if m.cursor < len(m.saveList)-1 {
			m.cursor++
		}
	case tea.KeyEnter:
		if len(m.saveList) == 0 {
			return m, nil
		}
		return m, m.loadSession(m.saveList[m.cursor].Name)
	default:
		if msg.String() == "s" && len(m.saveList) > 0 {
			return m, m.deleteSave(m.saveList[m.cursor].Name)
		}
	}
	return m, nil
}

func (m ConsoleUI) updateGame(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		m.showQuitModal = true
		return m, nil
	}

	if m.sess.Loading {
		return m, nil
	}

	// Single digits pick from the offered choices when the input field is
	// otherwise empty.
	if key := msg.String(); len(key) == 1 && key >= "1" && key <= "9" && strings.TrimSpace(m.textarea.Value()) == "" {
		idx, _ := strconv.Atoi(key)
		if idx >= 1 && idx <= len(m.sess.Choices) {
			return m.submitAction(m.sess.Choices[idx-1])
		}
	}

	if msg.Type == tea.KeyEnter {
		input := strings.TrimSpace(m.textarea.Value())
		if input == "" {
			return m, nil
		}
		if strings.HasPrefix(input, "/") {
			return m.handleCommand(input)
		}
		if m.savePrompt {
			m.savePrompt = false
			m.textarea.Reset()
			m.textarea.Placeholder = PlaceHolderText
			return m, m.saveSession(input)
		}
		return m.submitAction(input)
	}

	var tiCmd, vpCmd tea.Cmd
	m.textarea, tiCmd = m.textarea.Update(msg)
	m.storyViewport, vpCmd = m.storyViewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd)
}

func (m ConsoleUI) submitAction(action string) (tea.Model, tea.Cmd) {
	pending, err := m.engine.BeginTurn(m.sess, action)
	if err != nil {
		if errors.Is(err, engine.ErrGameEnded) {
			m.sess.LastError = "L'histoire est terminée. Retourne au menu pour rejouer."
		} else {
			m.sess.LastError = "Cette action n'a pas pu être envoyée."
		}
		m.writeStoryContent()
		return m, nil
	}
	m.textarea.Reset()
	m.progressTick = 0
	m.writeStoryContent()
	m.writeMetadata()
	return m, tea.Batch(m.generateTurn(pending), progressTick())
}

func (m ConsoleUI) handleOpeningResult(msg openingResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.engine.RollbackTurn(m.sess, msg.pending, msg.err)
		m.writeStoryContent()
		return m, nil
	}
	report := m.engine.CommitTurn(m.sess, msg.pending, msg.raw)
	m.writeStoryContent()
	m.writeMetadata()
	return m, m.maybeIllustrate(report)
}

func (m ConsoleUI) handleTurnResult(msg turnResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.engine.RollbackTurn(m.sess, msg.pending, msg.err)
		m.writeStoryContent()
		m.writeMetadata()
		return m, nil
	}
	report := m.engine.CommitTurn(m.sess, msg.pending, msg.raw)
	m.writeStoryContent()
	m.writeMetadata()
	return m, m.maybeIllustrate(report)
}

func (m *ConsoleUI) maybeIllustrate(report *engine.TurnReport) tea.Cmd {
	if report.Segment == nil {
		return nil
	}
	segID := report.Segment.ID
	if !m.illus.Begin(m.sess, segID, report.IllustrationPrompt) {
		return nil
	}
	prompt := report.IllustrationPrompt
	return func() tea.Msg {
		url, err := m.illus.Generate(context.Background(), prompt)
		return illustrationMsg{segmentID: segID, url: url, err: err}
	}
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(strings.TrimSpace(input))
	cmd := strings.ToLower(fields[0])
	m.textarea.Reset()

	switch cmd {
	case "/aide":
		m.appendNotice(helpText())

	case "/copier":
		if err := clipboard.WriteAll(m.storyText()); err != nil {
			m.appendNotice(errorStyle.Render("Impossible de copier l'histoire."))
		} else {
			m.appendNotice(noticeStyle.Render("Histoire copiée dans le presse-papiers."))
		}

	case "/sauver":
		if m.saves == nil {
			m.appendNotice(errorStyle.Render("Sauvegarde indisponible (pas de Redis)."))
			return m, nil
		}
		if len(fields) > 1 {
			return m, m.saveSession(strings.Join(fields[1:], " "))
		}
		m.savePrompt = true
		m.textarea.Placeholder = "Nom de la sauvegarde, puis Entrée"

	case "/image":
		// Relaunch the newest failed illustration.
		for i := len(m.sess.Segments) - 1; i >= 0; i-- {
			seg := m.sess.Segments[i]
			if seg.Illustration == state.IllustrationFailed {
				if m.illus.Retry(m.sess, seg.ID) {
					segID := seg.ID
					prompt := seg.ImagePrompt
					m.writeStoryContent()
					return m, func() tea.Msg {
						url, err := m.illus.Generate(context.Background(), prompt)
						return illustrationMsg{segmentID: segID, url: url, err: err}
					}
				}
			}
		}
		m.appendNotice(noticeStyle.Render("Aucune illustration à relancer."))

	case "/menu":
		m.backToMenu()

	default:
		m.appendNotice(errorStyle.Render("Commande inconnue. Tape /aide pour la liste."))
	}
	return m, nil
}

func (m *ConsoleUI) backToMenu() {
	if err := m.sess.To(state.ViewMenu); err != nil {
		return
	}
	m.cursor = 0
	m.savePrompt = false
	m.textarea.Reset()
	m.textarea.Placeholder = PlaceHolderText
}

func (m ConsoleUI) generateOpening(p *engine.PendingTurn) tea.Cmd {
	return func() tea.Msg {
		raw, err := m.engine.Generate(context.Background(), p)
		return openingResultMsg{pending: p, raw: raw, err: err}
	}
}

func (m ConsoleUI) generateTurn(p *engine.PendingTurn) tea.Cmd {
	return func() tea.Msg {
		raw, err := m.engine.Generate(context.Background(), p)
		return turnResultMsg{pending: p, raw: raw, err: err}
	}
}

func (m ConsoleUI) loadSaveList() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		saves, err := m.saves.List(ctx)
		return savesLoadedMsg{saves: saves, err: err}
	}
}

func (m ConsoleUI) loadSession(name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		sess, err := m.saves.Load(ctx, name)
		return sessionLoadedMsg{sess: sess, err: err}
	}
}

func (m ConsoleUI) deleteSave(name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := m.saves.Delete(ctx, name)
		return saveDeletedMsg{name: name, err: err}
	}
}

func (m ConsoleUI) saveSession(name string) tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := m.saves.Save(ctx, sess, name)
		return saveDoneMsg{name: name, err: err}
	}
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "o", "O", "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				if m.sess.View == state.ViewGameActive {
					m.textarea.Focus()
					return m, textarea.Blink
				}
				return m, nil
			}
		}
	}
	return m, nil
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}

func helpText() string {
	return titleStyle.Render("Aide :") + `
• Tape une action et appuie sur Entrée
• Tape le numéro d'un choix pour le sélectionner
• /sauver [nom] - Sauvegarder la partie
• /copier - Copier l'histoire dans le presse-papiers
• /image - Relancer la dernière illustration échouée
• /menu - Revenir au menu principal
• Échap - Quitter
`
}
