// Package server serves a presentation's assets over HTTP so the player can load its audio
// manifest and recordings by URL.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Asset Routes
//
//	GET /manifest.json  audio manifest built from the catalog and the files present on disk
//	GET /catalog.json   the catalog with per-track reveal durations
//	GET /assets/...     images and recordings under the served directory
//	GET /healthz        liveness
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
