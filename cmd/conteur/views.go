package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/aberthier/conteur/pkg/scenario"
	"github.com/aberthier/conteur/pkg/state"
)

var (
	storyPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	playerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")) // purple

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	imageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("111")) // light blue

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	listItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	listSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if !m.ready {
		return "\n  Initialisation..."
	}

	switch m.sess.View {
	case state.ViewMenu:
		return m.renderList("CONTEUR", "Une aventure racontée rien que pour toi.", m.menuEntries(), "")
	case state.ViewThemeSelection:
		return m.renderList("Choisis ton univers", "", themeNames(m.themes), "")
	case state.ViewSubThemeSelection:
		names := make([]string, 0, len(m.pickedTheme.SubThemes)+1)
		for _, st := range m.pickedTheme.SubThemes {
			names = append(names, st.Name)
		}
		names = append(names, surpriseOption)
		return m.renderList(m.pickedTheme.DisplayName(), "Choisis un point de départ", names, "")
	case state.ViewHeroSelection:
		names := make([]string, 0, len(m.heroes))
		for _, h := range m.heroes {
			names = append(names, h.DisplayName()+" · "+h.Description)
		}
		return m.renderList("Choisis ton héros", "", names, "")
	case state.ViewNameInput:
		return m.renderNameInput()
	case state.ViewLoadingGame:
		return m.renderSaveList()
	case state.ViewGameActive, state.ViewGameEnded:
		return m.renderGame()
	}
	return ""
}

func themeNames(themes []scenario.Theme) []string {
	names := make([]string, 0, len(themes))
	for _, t := range themes {
		names = append(names, t.DisplayName())
	}
	return names
}

func (m ConsoleUI) renderList(title, subtitle string, entries []string, footer string) string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render(title))
	content.WriteString("\n\n")
	if subtitle != "" {
		content.WriteString(subtitle + "\n\n")
	}
	for i, entry := range entries {
		if i == m.cursor {
			content.WriteString(listSelectedStyle.Render(fmt.Sprintf("▶ %s", entry)))
		} else {
			content.WriteString(listItemStyle.Render(fmt.Sprintf("  %s", entry)))
		}
		content.WriteString("\n")
	}
	content.WriteString("\n")
	if footer == "" {
		footer = "↑/↓ pour naviguer, Entrée pour choisir, Échap pour revenir"
	}
	content.WriteString(promptStyle.Render(footer))

	modal := modalStyle.Width(64).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderNameInput() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Comment t'appelles-tu ?"))
	content.WriteString("\n\n")
	content.WriteString(m.nameInput.View())
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Entrée pour commencer l'aventure, Échap pour revenir"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderSaveList() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Charger une partie"))
	content.WriteString("\n\n")

	switch {
	case m.saveError != "":
		content.WriteString(errorStyle.Render(m.saveError))
	case len(m.saveList) == 0:
		content.WriteString("Aucune partie sauvegardée.")
	default:
		for i, s := range m.saveList {
			line := fmt.Sprintf("%s · %s · tour %d/%d · %s",
				s.Name, s.PlayerName, s.Turn, s.MaxTurns, s.SavedAt.Local().Format("02/01 15:04"))
			if i == m.cursor {
				content.WriteString(listSelectedStyle.Render("▶ " + line))
			} else {
				content.WriteString(listItemStyle.Render("  " + line))
			}
			content.WriteString("\n")
		}
	}

	content.WriteString("\n")
	content.WriteString(promptStyle.Render("Entrée pour charger, S pour supprimer, Échap pour revenir"))
	modal := modalStyle.Width(70).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderGame() string {
	storyWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - storyWidth - 6

	storyPanel := storyPanelStyle.Width(storyWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.storyViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(storyWidth-4, 1))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, storyPanel, metaPanel)
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Chargement..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quitter ?"))
	content.WriteString("\n\n")
	content.WriteString("Veux-tu vraiment quitter l'aventure ?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("O pour quitter, N pour continuer"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

// writeStoryContent rebuilds the story panel from the session for the
// current viewport width.
func (m *ConsoleUI) writeStoryContent() {
	storyWidth := m.storyViewport.Width - 6
	if storyWidth <= 0 {
		storyWidth = 40
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("CONTEUR") + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(storyWidth-6, 1))) + "\n\n")

	for _, seg := range m.sess.Segments {
		switch seg.Speaker {
		case state.SpeakerPlayer:
			content.WriteString(playerStyle.Render(m.sess.PlayerName+" : ") + wordwrap.String(seg.Text, storyWidth-6) + "\n\n")
		case state.SpeakerNarrator:
			prefix := narratorStyle.Render(AgentName + " : ")
			content.WriteString(prefix + wordwrap.String(seg.Text, storyWidth-len(AgentName)-3) + "\n")
			content.WriteString(renderIllustrationLine(seg))
			content.WriteString("\n")
		}
	}

	if !m.sess.Loading && m.sess.View == state.ViewGameActive && len(m.sess.Choices) > 0 {
		content.WriteString(choiceStyle.Render("Que fais-tu ?") + "\n")
		for i, c := range m.sess.Choices {
			content.WriteString(choiceStyle.Render(fmt.Sprintf("  %d. %s", i+1, c)) + "\n")
		}
		content.WriteString("\n")
	}

	if m.sess.View == state.ViewGameEnded {
		content.WriteString(titleStyle.Render("✦ FIN ✦") + "\n")
		content.WriteString(promptStyle.Render("Tape /menu pour revenir au menu principal.") + "\n\n")
	}

	if m.sess.LastError != "" {
		content.WriteString(errorStyle.Render(m.sess.LastError) + "\n\n")
	}

	if m.sess.Loading {
		content.WriteString(m.renderProgressBar())
	}

	m.storyViewport.SetContent(content.String())
	m.storyViewport.GotoBottom()
}

func renderIllustrationLine(seg state.StorySegment) string {
	switch seg.Illustration {
	case state.IllustrationPending:
		return imageStyle.Render("  ◌ illustration en cours...") + "\n"
	case state.IllustrationReady:
		return imageStyle.Render("  ❁ illustration : "+seg.ImageURL) + "\n"
	case state.IllustrationFailed:
		return imageStyle.Render("  ✕ illustration indisponible (/image pour réessayer)") + "\n"
	}
	return ""
}

// writeMetadata refreshes the side panel with the game state summary.
func (m *ConsoleUI) writeMetadata() {
	if m.sess.Game == nil {
		m.metaViewport.SetContent("")
		return
	}
	gs := m.sess.Game

	var content strings.Builder
	content.WriteString(titleStyle.Render("TA PARTIE") + "\n\n")

	content.WriteString("Héros :\n")
	content.WriteString(fmt.Sprintf("%s (%s)\n\n", m.sess.PlayerName, m.sess.Hero))

	content.WriteString("Lieu :\n")
	content.WriteString(gs.Location + "\n\n")

	content.WriteString(fmt.Sprintf("Tour : %d / %d\n\n", m.sess.CurrentTurn, m.sess.MaxTurns))

	content.WriteString("Sac :\n")
	if len(gs.Inventory) == 0 {
		content.WriteString("vide\n")
	} else {
		for _, item := range gs.Inventory {
			if item.Quantity > 1 {
				content.WriteString(fmt.Sprintf("• %s ×%d\n", item.Name, item.Quantity))
			} else {
				content.WriteString(fmt.Sprintf("• %s\n", item.Name))
			}
		}
	}
	content.WriteString("\n")

	if len(gs.Emotions) > 0 {
		content.WriteString("Émotions :\n")
		content.WriteString(strings.Join(gs.Emotions, ", ") + "\n\n")
	}

	content.WriteString("Commandes :\n")
	content.WriteString("• /aide : Aide\n")
	content.WriteString("• /sauver : Sauvegarder\n")
	content.WriteString("• /copier : Copier\n")
	content.WriteString("• Échap : Quitter\n")

	m.metaViewport.SetContent(content.String())
}

// appendNotice adds a transient line under the current story content.
func (m *ConsoleUI) appendNotice(notice string) {
	m.writeStoryContent()
	current := m.storyViewport.View()
	m.storyViewport.SetContent(current + notice + "\n")
	m.storyViewport.GotoBottom()
}

// storyText renders the plain-text story for the clipboard.
func (m ConsoleUI) storyText() string {
	var sb strings.Builder
	for _, seg := range m.sess.Segments {
		switch seg.Speaker {
		case state.SpeakerPlayer:
			sb.WriteString(m.sess.PlayerName + " : " + seg.Text + "\n\n")
		case state.SpeakerNarrator:
			sb.WriteString(seg.Text + "\n\n")
		}
	}
	return sb.String()
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.storyViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}
