// ABOUTME: Terminal audio player built on the aural facade
// ABOUTME: Bubble Tea UI with transport, seeking, looping and gain control
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/AuralKit/aural-go/pkg/audio"
	"github.com/AuralKit/aural-go/pkg/aural"
)

const (
	seekStep = 5 * time.Second
	gainStep = 0.1
	tickRate = 200 * time.Millisecond
	barWidth = 40
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	stateStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

type tickMsg time.Time

type model struct {
	music  *aural.Music
	name   string
	gain   float64
	status string
}

func newModel(music *aural.Music, name string, gain float64) model {
	return model{music: music, name: name, gain: gain}
}

func (m model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case " ":
			switch m.music.State() {
			case audio.Playing:
				m.music.Pause()
				m.status = "paused"
			default:
				if err := m.music.Play(); err != nil {
					m.status = err.Error()
				} else {
					m.status = "playing"
				}
			}

		case "s":
			m.music.Stop()
			m.status = "stopped"

		case "right":
			target := m.music.PlayingOffset() + seekStep
			if target > m.music.Duration() {
				target = m.music.Duration()
			}
			m.music.SetPlayingOffset(target)
			m.status = "seek " + formatDuration(target)

		case "left":
			target := m.music.PlayingOffset() - seekStep
			if target < 0 {
				target = 0
			}
			m.music.SetPlayingOffset(target)
			m.status = "seek " + formatDuration(target)

		case "l":
			m.music.SetLoop(!m.music.Loop())
			if m.music.Loop() {
				m.status = "loop on"
			} else {
				m.status = "loop off"
			}

		case "+", "=":
			m.gain = clampGain(m.gain + gainStep)
			m.music.SetGain(m.gain)
			m.status = fmt.Sprintf("gain %.0f%%", m.gain*100)

		case "-":
			m.gain = clampGain(m.gain - gainStep)
			m.music.SetGain(m.gain)
			m.status = fmt.Sprintf("gain %.0f%%", m.gain*100)
		}
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("♪ "+m.name) + "\n\n")

	offset := m.music.PlayingOffset()
	duration := m.music.Duration()
	b.WriteString(barStyle.Render(progressBar(offset, duration)) + "\n")
	b.WriteString(fmt.Sprintf("%s / %s   %s",
		formatDuration(offset), formatDuration(duration),
		stateStyle.Render(stateLabel(m.music))) + "\n\n")

	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status) + "\n\n")
	}
	b.WriteString(helpStyle.Render(
		"space play/pause · s stop · ←/→ seek · l loop · +/- gain · q quit"))
	b.WriteString("\n")
	return b.String()
}

func stateLabel(m *aural.Music) string {
	label := m.State().String()
	if m.Loop() {
		label += " ⟳"
	}
	return label
}

func progressBar(offset, duration time.Duration) string {
	filled := 0
	if duration > 0 {
		filled = int(int64(barWidth) * int64(offset) / int64(duration))
	}
	if filled > barWidth {
		filled = barWidth
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled) + "]"
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func clampGain(g float64) float64 {
	if g < 0 {
		return 0
	}
	if g > 1 {
		return 1
	}
	return g
}

func main() {
	loop := flag.Bool("loop", false, "restart playback when the track ends")
	gain := flag.Float64("gain", 1.0, "playback gain from 0 to 1")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <audio file>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	music, err := aural.LoadMusicFromFile(path)
	if err != nil {
		log.Fatalf("open %s: %v", path, err)
	}
	defer music.Close()

	music.SetLoop(*loop)
	music.SetGain(clampGain(*gain))
	if err := music.Play(); err != nil {
		log.Fatalf("play: %v", err)
	}

	p := tea.NewProgram(newModel(music, filepath.Base(path), clampGain(*gain)))
	if _, err := p.Run(); err != nil {
		log.Fatalf("ui: %v", err)
	}
}
