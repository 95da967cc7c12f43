package bubbletea

import "context"

// BlockSeparator exports blockSeparator for testing.
func BlockSeparator(prev, curr MessageBlock) string {
	return blockSeparator(prev, curr)
}

// RenderContent exports renderContent for testing.
func RenderContent(m Model) string {
	return m.renderContent()
}

// AllExpanded returns whether all collapsible blocks are in expanded state.
func AllExpanded(m Model) bool {
	return m.allExpanded
}

// SetRunning puts the model in a running state with the given cancel function.
func SetRunning(m Model, cancel context.CancelFunc) Model {
	m.running = true
	m.cancel = cancel
	return m
}
