// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

/*
Package supervisor runs the long-lived Instadash services under a suture v4
tree.

	instadash
	├── maintenance
	│   ├── session-cleaner         expired sessions and lockout counters
	│   └── automation-health       checks the automation backend
	├── streaming
	│   ├── websocket-hub           dashboard change events
	│   ├── logstream-broker        per-account replay buffers and SSE fan-out
	│   └── logstream-source        upstream automation log stream
	└── api
	    └── http-server

A service that returns an error is restarted with backoff by its own layer;
the other layers keep running. Canceling the context passed to Serve stops
every service, waiting at most TreeConfig.ShutdownTimeout for each.

Supervisor events (start, failure, backoff) are logged through sutureslog,
fed by the zerolog bridge in the logging package:

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddStreamingService(hub)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	err := <-tree.ServeBackground(ctx)
*/
package supervisor
