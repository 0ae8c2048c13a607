package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// GraphColors is the palette for graph lanes
var GraphColors = [][]int{
	{76, 203, 241},  // Light blue
	{77, 202, 125},  // Green
	{245, 200, 0},   // Yellow
	{248, 144, 72},  // Orange
	{235, 130, 188}, // Pink
	{159, 131, 228}, // Purple
}

// ColorLane colors text with the palette entry for a lane index
func ColorLane(text string, lane int) string {
	c := GraphColors[lane%len(GraphColors)]
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))).
		Render(text)
}

// ColorDim colors text gray
func ColorDim(text string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Render(text)
}

// ColorCyan colors text cyan
func ColorCyan(text string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("6")).
		Render(text)
}

// ColorYellow colors text yellow
func ColorYellow(text string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("3")).
		Render(text)
}
