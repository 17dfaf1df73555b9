package cli

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"kilometers.ai/locator/internal/core/domain/datasource"
	"kilometers.ai/locator/internal/infrastructure/catalog"
	"kilometers.ai/locator/internal/interfaces/di"
	"kilometers.ai/locator/internal/logging"
)

// NewPickCommand creates the pick command
func NewPickCommand(container *CLIContainer) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "pick <folder>",
		Short: "Interactively pick a provider from a plugin folder",
		Long: `Open a terminal picker listing the providers of a plugin folder. The
folder is scanned in the background; press r to rescan. The chosen provider
is resolved and the resulting definition is printed.

Examples:
  kmds pick plugins/sales
  kmds pick plugins/sales --path Customers.Acme`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			relation, err := datasource.ParseRelationPath(path)
			if err != nil {
				return err
			}
			return runPicker(cmd, container, args[0], relation)
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Relation path applied to the chosen provider")
	return cmd
}

// runPicker runs the picker on a container whose logs cannot garble the screen
func runPicker(cmd *cobra.Command, container *CLIContainer, folder string, relation datasource.RelationPath) error {
	cfg := container.Container.Config

	var debugOut io.Writer
	if cfg.Debug {
		f, err := logging.OpenDebugLog()
		if err != nil {
			return err
		}
		defer f.Close()
		debugOut = f
		fmt.Fprintf(cmd.ErrOrStderr(), "Debug log: %s\n", f.Name())
	}

	quiet, err := di.NewContainerWithLogger(cfg, logging.Quiet(debugOut))
	if err != nil {
		return err
	}
	defer quiet.Shutdown()

	program := tea.NewProgram(newPickerModel(quiet.Shared, folder), tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("picker failed: %w", err)
	}

	chosen := final.(pickerModel).chosen
	if chosen == nil {
		fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("Nothing selected"))
		return nil
	}

	def := &datasource.Definition{
		Folder:       folder,
		ProviderName: chosen.Name,
		RelationPath: relation,
	}
	if _, err := quiet.Resolver.Resolve(def); err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), FormatYAML, definitionView(def))
}

// definitionView is the printable form of a definition
func definitionView(def *datasource.Definition) map[string]any {
	return map[string]any{
		"folder":        def.Folder,
		"provider":      def.ProviderName,
		"relation_path": def.RelationPath.String(),
		"root_shape":    def.RootShape.String(),
		"target_shape":  def.TargetShape.String(),
	}
}

// discoverer is the part of catalog.SharedDiscovery the picker uses
type discoverer interface {
	Discover(folder string) (*catalog.Snapshot, bool, error)
}

// pickerModel holds the state for the Bubble Tea picker
type pickerModel struct {
	discovery   discoverer
	folder      string
	loading     bool
	providers   []datasource.ProviderMetadata
	selectedRow int
	chosen      *datasource.ProviderMetadata
	err         error
}

func newPickerModel(discovery discoverer, folder string) pickerModel {
	return pickerModel{
		discovery: discovery,
		folder:    folder,
		loading:   true,
	}
}

// snapshotLoadedMsg is sent when a scan finishes
type snapshotLoadedMsg struct {
	providers []datasource.ProviderMetadata
}

// errMsg is sent when a scan fails
type errMsg struct {
	err error
}

// scanCmd discovers the folder off the UI loop
func (m pickerModel) scanCmd() tea.Cmd {
	discovery, folder := m.discovery, m.folder
	return func() tea.Msg {
		snapshot, _, err := discovery.Discover(folder)
		if err != nil {
			return errMsg{err: err}
		}
		return snapshotLoadedMsg{providers: snapshot.Metadata()}
	}
}

// Init implements the Bubble Tea init method
func (m pickerModel) Init() tea.Cmd {
	return m.scanCmd()
}

// Update implements the Bubble Tea update method
func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit

		case "up", "k":
			if m.selectedRow > 0 {
				m.selectedRow--
			}
			return m, nil

		case "down", "j":
			if m.selectedRow < len(m.providers)-1 {
				m.selectedRow++
			}
			return m, nil

		case "r":
			m.loading = true
			m.err = nil
			return m, m.scanCmd()

		case "enter":
			if m.loading || len(m.providers) == 0 {
				return m, nil
			}
			chosen := m.providers[m.selectedRow]
			m.chosen = &chosen
			return m, tea.Quit
		}

	case snapshotLoadedMsg:
		m.loading = false
		m.providers = msg.providers
		if m.selectedRow >= len(m.providers) {
			m.selectedRow = 0
		}
		return m, nil

	case errMsg:
		m.loading = false
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

// View implements the Bubble Tea view method
func (m pickerModel) View() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86")).
		Render("kmds providers in " + m.folder)

	var body string
	switch {
	case m.err != nil:
		body = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(DescribeError(m.err))
	case m.loading:
		body = mutedStyle.Render("Scanning plugin folder...")
	case len(m.providers) == 0:
		body = mutedStyle.Render("No providers in this folder.")
	default:
		body = m.renderList()
	}

	footer := mutedStyle.Render("[↑↓] Navigate | [enter] Select | [r] Rescan | [q] Quit")
	return lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", footer)
}

// renderList renders the provider rows with the selection highlighted
func (m pickerModel) renderList() string {
	rows := make([]string, 0, len(m.providers))
	for i, p := range m.providers {
		row := fmt.Sprintf("%-20s %-24s %s", truncateString(p.Name, 20), truncateString(p.Shape.String(), 24), p.Description)
		style := lipgloss.NewStyle()
		if i == m.selectedRow {
			style = style.Background(lipgloss.Color("240")).Bold(true)
		}
		rows = append(rows, style.Render(row))
	}
	return strings.Join(rows, "\n")
}

// truncateString shortens s to max runes, marking the cut with an ellipsis
func truncateString(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}
