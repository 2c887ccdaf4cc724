// Package cli attaches a mudterm session to a real terminal. It owns the
// host terminal lifecycle (raw mode, alternate screen, resize signals),
// translates the renderer's operations into capability strings for the
// attached terminal type, and decodes keyboard input into scrollback
// navigation and outbound line editing.
package cli
