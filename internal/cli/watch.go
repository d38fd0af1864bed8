package cli

import (
	"fmt"
	"net"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/kestrelscan/kestrel/internal/comm"
)

// WatchFlags holds the command-line flags for the watch command.
type WatchFlags struct {
	Socket     string
	MaxRecent  int
	RefreshGap time.Duration
}

func newWatchCommand(app *App) *cobra.Command {
	flags := &WatchFlags{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live view of plugin completion signals",
		Long: `Listen on a unix socket for control frames from plugin executions and
show a live completion counter. Point launches at it with
"kestrel launch --ctrl-socket <path>".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(app, flags)
		},
	}

	cmd.Flags().StringVar(&flags.Socket, "socket", "/tmp/kestrel-ctrl.sock", "unix socket to listen on")
	cmd.Flags().IntVar(&flags.MaxRecent, "max-recent", 10, "how many recent completions to display")
	cmd.Flags().DurationVar(&flags.RefreshGap, "refresh", time.Second, "refresh rate for the clock line")

	return cmd
}

func runWatch(app *App, flags *WatchFlags) error {
	os.Remove(flags.Socket)
	listener, err := net.Listen("unix", flags.Socket)
	if err != nil {
		return fmt.Errorf("listen on controller socket: %w", err)
	}
	defer func() {
		listener.Close()
		os.Remove(flags.Socket)
	}()

	events := make(chan completionMsg, 64)
	go acceptLoop(listener, events)

	program := tea.NewProgram(newWatchModel(flags, events))
	_, err = program.Run()
	return err
}

func acceptLoop(listener net.Listener, events chan<- completionMsg) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		go func(conn net.Conn) {
			defer conn.Close()
			for {
				msg, err := comm.ReadMessage(conn)
				if err != nil {
					return
				}
				if msg.Finished() {
					events <- completionMsg{At: time.Now()}
				}
			}
		}(conn)
	}
}

// completionMsg is delivered to the model for every finished frame.
type completionMsg struct {
	At time.Time
}

type tickMsg time.Time

var (
	watchTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	watchCountStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	watchDimStyle   = lipgloss.NewStyle().Faint(true)
)

type watchModel struct {
	flags    *WatchFlags
	events   <-chan completionMsg
	finished int
	recent   []time.Time
	now      time.Time
}

func newWatchModel(flags *WatchFlags, events <-chan completionMsg) watchModel {
	return watchModel{flags: flags, events: events, now: time.Now()}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.waitForCompletion(), m.tick())
}

func (m watchModel) waitForCompletion() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

func (m watchModel) tick() tea.Cmd {
	return tea.Tick(m.flags.RefreshGap, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case completionMsg:
		m.finished++
		m.recent = append(m.recent, msg.At)
		if len(m.recent) > m.flags.MaxRecent {
			m.recent = m.recent[len(m.recent)-m.flags.MaxRecent:]
		}
		return m, m.waitForCompletion()
	case tickMsg:
		m.now = time.Time(msg)
		return m, m.tick()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m watchModel) View() string {
	view := watchTitleStyle.Render("kestrel watch") + "\n"
	view += fmt.Sprintf("listening on %s\n\n", m.flags.Socket)
	view += fmt.Sprintf("completed executions: %s\n\n",
		watchCountStyle.Render(fmt.Sprintf("%d", m.finished)))
	if len(m.recent) > 0 {
		view += "recent completions:\n"
		for i := len(m.recent) - 1; i >= 0; i-- {
			view += watchDimStyle.Render("  "+m.recent[i].Format(time.RFC3339)) + "\n"
		}
		view += "\n"
	}
	view += watchDimStyle.Render(m.now.Format("15:04:05") + "  press q to quit")
	return view
}
