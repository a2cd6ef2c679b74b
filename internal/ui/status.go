// Package ui renders operator status for the terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/openstackops/cinder-csi-operator/internal/lifecycle"
)

var (
	colorGreen  = lipgloss.Color("#22c55e")
	colorRed    = lipgloss.Color("#ef4444")
	colorYellow = lipgloss.Color("#eab308")
	colorBlue   = lipgloss.Color("#3b82f6")
	colorDim    = lipgloss.Color("#6b7280")

	titleStyle = lipgloss.NewStyle().Bold(true)

	activeStyle   = lipgloss.NewStyle().Foreground(colorGreen)
	blockedStyle  = lipgloss.NewStyle().Foreground(colorRed)
	waitingStyle  = lipgloss.NewStyle().Foreground(colorYellow)
	applyingStyle = lipgloss.NewStyle().Foreground(colorBlue)
	dimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// stateStyle maps each operator state to its display style.
func stateStyle(state lifecycle.State) lipgloss.Style {
	switch state {
	case lifecycle.StateActive:
		return activeStyle
	case lifecycle.StateBlocked:
		return blockedStyle
	case lifecycle.StateApplying:
		return applyingStyle
	case lifecycle.StateWaiting, lifecycle.StateShuttingDown:
		return waitingStyle
	default:
		return dimStyle
	}
}

// Status holds the fields shown by the status report.
type Status struct {
	State   lifecycle.State
	Reason  string
	Release string
	Hash    string
	Ready   bool
}

// RenderStatus formats a status report for the terminal.
func RenderStatus(s Status) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("cinder-csi-operator"))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("%-10s %s\n", "State:", stateStyle(s.State).Render(string(s.State))))
	if s.Reason != "" {
		b.WriteString(fmt.Sprintf("%-10s %s\n", "Reason:", s.Reason))
	}
	b.WriteString(fmt.Sprintf("%-10s %s\n", "Release:", s.Release))
	if s.Hash != "" {
		b.WriteString(fmt.Sprintf("%-10s %s\n", "Config:", dimStyle.Render(s.Hash)))
	}

	workloads := "not ready"
	style := waitingStyle
	if s.Ready {
		workloads = "ready"
		style = activeStyle
	}
	b.WriteString(fmt.Sprintf("%-10s %s\n", "Workloads:", style.Render(workloads)))

	return b.String()
}
