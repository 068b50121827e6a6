// Package profiling mounts the pprof endpoints on the API router.
//
// The endpoints expose goroutine stacks and heap contents; enable them only
// on addresses that are not publicly reachable.
package profiling

import (
	"net/http/pprof"

	"github.com/go-chi/chi/v5"
)

// DefaultPath is where Mount registers the endpoints.
const DefaultPath = "/debug/pprof"

var profiles = []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"}

// Mount registers the pprof index, the CPU profile, the trace and the
// named runtime profiles under path.
func Mount(router chi.Router, path string) {
	if path == "" {
		path = DefaultPath
	}
	router.Route(path, func(r chi.Router) {
		r.HandleFunc("/", pprof.Index)
		r.HandleFunc("/cmdline", pprof.Cmdline)
		r.HandleFunc("/profile", pprof.Profile)
		r.HandleFunc("/symbol", pprof.Symbol)
		r.HandleFunc("/trace", pprof.Trace)
		for _, name := range profiles {
			r.Handle("/"+name, pprof.Handler(name))
		}
	})
}
