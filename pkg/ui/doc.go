// Package ui holds the terminal presentation of vkbackup: styled message
// helpers, a progress display for backup runs and the final summary.
//
// Styles come from lipgloss and the progress bar is a static rendering of
// the bubbles progress component, so no event loop is involved.
package ui
