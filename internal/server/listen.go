// Package server binds the listening socket and prints the startup banner.
package server

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"

	"github.com/fatih/color"
)

// ErrPortInUse is returned by Listen when another process holds the address.
var ErrPortInUse = errors.New("address already in use")

// Listen binds a TCP listener on addr.
func Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("bind %s: %w: %w", addr, ErrPortInUse, err)
		}
		return nil, fmt.Errorf("bind %s: %w", addr, err)
	}
	return ln, nil
}

// ReportBindError writes a human-readable diagnostic for a failed bind to w.
func ReportBindError(w io.Writer, port int, err error) {
	red := color.New(color.FgRed, color.Bold)
	if errors.Is(err, ErrPortInUse) {
		red.Fprintf(w, "Error: port %d is already in use\n", port)
		fmt.Fprintf(w, "Stop the other server or start this one with --port <n>.\n")
		return
	}
	red.Fprintf(w, "Error: cannot listen on port %d: %v\n", port, err)
}
