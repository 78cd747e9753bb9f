package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/hdlviz/pkg/hdl"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// Module discovery
// =============================================================================

// hdlFile is one candidate module in the picker.
type hdlFile struct {
	Path  string
	Chip  string
	Parts int
	Err   error // parse failure; such files can still be picked to see the error
}

// findModules lists the .hdl files in dir, sorted by name, with a summary of
// each.
func findModules(dir string) ([]hdlFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var files []hdlFile
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".hdl") {
			continue
		}
		f := hdlFile{Path: filepath.Join(dir, e.Name())}
		if m, err := hdl.ParseFile(f.Path); err != nil {
			f.Err = err
		} else {
			f.Chip, f.Parts = m.Name, len(m.Parts)
		}
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// =============================================================================
// ModuleListModel - Interactive module selection
// =============================================================================

// ModuleListModel is the bubbletea model for interactive .hdl file selection.
type ModuleListModel struct {
	Files    []hdlFile
	Cursor   int
	Selected *hdlFile
	Height   int
	Offset   int
}

// NewModuleListModel creates a new module list model.
func NewModuleListModel(files []hdlFile) ModuleListModel {
	return ModuleListModel{Files: files, Height: 15}
}

func (m ModuleListModel) Init() tea.Cmd {
	return nil
}

func (m ModuleListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Files)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Files) == 0 {
				return m, nil
			}
			f := m.Files[m.Cursor]
			m.Selected = &f
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m ModuleListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Module"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Files))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		f := m.Files[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		chip, parts := f.Chip, strconv.Itoa(f.Parts)
		if f.Err != nil {
			chip, parts = "—", "parse error"
		}
		rows = append(rows, []string{cursor, filepath.Base(f.Path), chip, parts})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "File", "Chip", "Parts").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Files) {
				return lipgloss.NewStyle()
			}
			switch {
			case idx == m.Cursor:
				return listSelectedStyle
			case m.Files[idx].Err != nil:
				return listDimStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Files))))

	return b.String()
}

// pickModule lets the user choose one of the .hdl files in dir. It returns
// an empty path when the user quits without choosing.
func pickModule(dir string) (string, error) {
	files, err := findModules(dir)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no .hdl files in %s", dir)
	}

	final, err := tea.NewProgram(NewModuleListModel(files)).Run()
	if err != nil {
		return "", fmt.Errorf("module picker: %w", err)
	}
	if m, ok := final.(ModuleListModel); ok && m.Selected != nil {
		return m.Selected.Path, nil
	}
	return "", nil
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
