package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestBar(t *testing.T) {
	tests := []struct {
		name     string
		fraction float64
		filled   int
	}{
		{"empty", 0, 0},
		{"half", 0.5, 5},
		{"full", 1, 10},
		{"over target is clamped", 1.8, 10},
		{"negative is clamped", -0.2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := Bar(10, tt.fraction)
			assert.Equal(t, tt.filled, strings.Count(bar, "█"))
			assert.Equal(t, 10-tt.filled, strings.Count(bar, "░"))
		})
	}
	assert.Empty(t, Bar(0, 0.5))
}

func TestLayoutFillsWidth(t *testing.T) {
	l := NewLayout(60, 20)

	assert.Equal(t, 18, l.ContentHeight())
	assert.Equal(t, 60, lipgloss.Width(l.RenderHeader("Diet Tracker", "Cut")))
	assert.Equal(t, 60, lipgloss.Width(l.RenderStatusBar("r refresh")))
	assert.Zero(t, NewLayout(10, 1).ContentHeight())
}
