package server

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// BannerInfo is what the startup banner describes.
type BannerInfo struct {
	Version     string
	Host        string
	Port        int
	StaticRoot  string
	ProxyPrefix string // empty when the proxy is disabled
	UpstreamURL string
}

// URL returns the address a local browser should open.
func (b BannerInfo) URL() string {
	host := b.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, b.Port)
}

// Banner writes the startup banner to w.
func Banner(w io.Writer, b BannerInfo) {
	title := color.New(color.FgCyan, color.Bold)
	label := color.New(color.Faint)
	ok := color.New(color.FgGreen)

	title.Fprintf(w, "devproxy %s\n", b.Version)
	label.Fprint(w, "  Serving files from  ")
	fmt.Fprintln(w, b.StaticRoot)
	label.Fprint(w, "  Server running at   ")
	fmt.Fprintln(w, b.URL())
	label.Fprint(w, "  API proxy           ")
	if b.ProxyPrefix != "" {
		fmt.Fprintf(w, "%s/* -> %s\n", b.ProxyPrefix, b.UpstreamURL)
	} else {
		fmt.Fprintln(w, "disabled (static files only)")
	}
	label.Fprint(w, "  CORS                ")
	ok.Fprintln(w, "enabled for all origins")
	fmt.Fprintln(w, "Press Ctrl+C to stop the server")
}
