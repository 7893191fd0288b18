package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/moonlayout/pkg/ecs"
	"github.com/matzehuels/moonlayout/pkg/errors"
	"github.com/matzehuels/moonlayout/pkg/frame"
	"github.com/matzehuels/moonlayout/pkg/scene"
)

var (
	stepHelpStyle  = lipgloss.NewStyle().Foreground(colorDim)
	stepErrorStyle = lipgloss.NewStyle().Foreground(colorRed)
)

// playInterval is the delay between frames while playing.
const playInterval = 250 * time.Millisecond

// =============================================================================
// StepModel - Interactive frame stepper
// =============================================================================

type stepMsg struct{}

type tickMsg struct{}

// StepModel is the bubbletea model that steps a runner one frame per key
// press and shows the resulting stacks and geometry.
type StepModel struct {
	ctx    context.Context
	runner *frame.Runner
	world  *scene.World
	title  string

	Last    *frame.Result
	Err     error
	Frames  int
	Camera  int
	Playing bool
}

// NewStepModel creates a stepper over runner.
func NewStepModel(ctx context.Context, runner *frame.Runner, title string) StepModel {
	return StepModel{ctx: ctx, runner: runner, world: runner.World, title: title}
}

func (m StepModel) Init() tea.Cmd {
	return func() tea.Msg { return stepMsg{} }
}

func (m StepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ", "n", "enter":
			m.Playing = false
			return m.step(), nil
		case "p":
			m.Playing = !m.Playing
			if m.Playing {
				return m, tick()
			}
		case "tab", "c":
			if cams := m.cameras(); len(cams) > 0 {
				m.Camera = (m.Camera + 1) % len(cams)
			}
		}
	case stepMsg:
		return m.step(), nil
	case tickMsg:
		if !m.Playing {
			return m, nil
		}
		m = m.step()
		if m.Err != nil {
			m.Playing = false
			return m, nil
		}
		return m, tick()
	}
	return m, nil
}

func tick() tea.Cmd {
	return tea.Tick(playInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m StepModel) step() StepModel {
	res, err := m.runner.Step(m.ctx)
	if err != nil {
		m.Err = err
		return m
	}
	m.Last, m.Err = res, nil
	m.Frames++
	if cams := m.cameras(); m.Camera >= len(cams) {
		m.Camera = 0
	}
	return m
}

func (m StepModel) cameras() []ecs.Entity {
	return m.runner.Stacks.Cameras()
}

func (m StepModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(stepHelpStyle.Render("space/n step  p play/pause  tab camera  q quit"))
	b.WriteString("\n\n")

	if m.Err != nil {
		b.WriteString(stepErrorStyle.Render(iconError + " " + errors.UserMessage(m.Err)))
		b.WriteString("\n")
	}
	if m.Last == nil {
		return b.String()
	}

	b.WriteString(renderFrameStats(m.Last, false))
	if m.Playing {
		b.WriteString(StyleDim.Render(" · ") + StyleNumber.Render("playing"))
	}
	b.WriteString("\n\n")

	cams := m.cameras()
	if len(cams) == 0 {
		b.WriteString(StyleWarning.Render("no camera sees a layout node"))
		b.WriteString("\n")
		return b.String()
	}
	cam := cams[m.Camera]
	st, _ := m.runner.Stacks.Get(cam)
	b.WriteString(cameraTitle(m.world, cam))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  [%d/%d]", m.Camera+1, len(cams))))
	b.WriteString("\n")
	b.WriteString(renderStackTable(m.world, st))
	b.WriteString("\n\n")
	b.WriteString(renderNodeTable(m.world, m.Last.Snapshot))
	b.WriteString("\n")
	return b.String()
}

// =============================================================================
// step command
// =============================================================================

// stepCommand creates the interactive step command.
func (c *CLI) stepCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "step <scene.toml>",
		Short:             "Step through frames interactively",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeSceneFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, w, err := loadScene(args[0])
			if err != nil {
				return err
			}
			// Frame logs would interleave with the full-screen view.
			runner, err := c.newRunner(f, w, args[0], frame.Options{Logger: newLogger(io.Discard, LogInfo)})
			if err != nil {
				return err
			}
			defer runner.Close()

			model := NewStepModel(cmd.Context(), runner, appName+" · "+runner.Options().SceneName)
			final, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			if err != nil {
				return err
			}
			m, _ := final.(StepModel)
			if m.Err != nil {
				return m.Err
			}
			printSuccess("Stepped %d frame(s)", m.Frames)
			return nil
		},
	}
}
