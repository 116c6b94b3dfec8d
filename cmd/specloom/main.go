// cmd/specloom/main.go
//
// Entry point for the specloom CLI. The binary is a thin cobra shell; the
// interview itself runs as a bubbletea program in internal/tui.

package main

func main() {
	Execute()
}
