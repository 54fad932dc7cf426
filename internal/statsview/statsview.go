// Package statsview serves live runtime charts (heap, goroutines, GC pauses) over HTTP
// while the emulator runs.
package statsview

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

const DefaultAddress = "localhost:12600"

const path = "/debug/statsview"

// URL returns the page address for a server listening on addr.
func URL(addr string) string {
	if addr == "" {
		addr = DefaultAddress
	}
	return "http://" + addr + path
}

// Launch starts the stats server in a new goroutine and reports its URL on output.
// The returned function stops the server.
func Launch(addr string, output io.Writer) (stop func()) {
	if addr == "" {
		addr = DefaultAddress
	}
	viewer.SetConfiguration(viewer.WithAddr(addr))
	mgr := statsview.New()
	go mgr.Start()
	fmt.Fprintf(output, "stats server available at %s\n", URL(addr))
	return mgr.Stop
}
