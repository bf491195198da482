// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.4.0"

// Milestones:
// 0.4.0 - HTTP API with WebSocket frame stream, Prometheus metrics, meeus cross-check
// 0.3.0 - Eclipse search, shadow ground track, observer sky with rise/set
// 0.2.0 - Terminal orrery: focus cycling, edge-on view, Moon exaggeration
// 0.1.0 - Simulated clock and Earth/Moon ephemeris, headless state output
