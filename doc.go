// Package molvis bridges molecular scene commands from a Go host process to
// browser-based renderers.
//
// # Architecture
//
// The module is organized as a pipeline from host-side drawing calls down to
// a framed binary wire protocol:
//
//	┌─────────────────────────────────────┐
//	│            scene.Scene              │  Drawing operations,
//	│  (draw, highlight, query, animate)  │  request correlation
//	└─────────────────────────────────────┘
//	           ↓ normalizes via
//	┌─────────────────────────────────────┐
//	│         frame / wire                │  Canonical frame data,
//	│  (blocks, atoms, JSON-RPC codec)    │  buffer placeholders
//	└─────────────────────────────────────┘
//	           ↓ ships over
//	┌─────────────────────────────────────┐
//	│     transport (ws / natsrpc)        │  Length-prefixed frames,
//	│                                     │  binary buffer sidecars
//	└─────────────────────────────────────┘
//
// Scenes issue fire-and-forget notifications for drawing commands and
// correlated calls for queries that need a renderer reply. Large numeric
// columns are detached from the JSON payload into binary sidecar buffers,
// referenced from the payload by "__buffer.<n>" placeholders.
//
// The registry package tracks named scenes so host code can look them up or
// broadcast to every connected renderer, and cmd/molvisd assembles the whole
// stack into a daemon with Prometheus metrics.
package molvis
