// Package cli provides the interactive FeedPulse command-line client.
//
// It wires configuration, the local session database, the HTTP client, the
// session store and the feedback service into a read–eval–print loop.
// Startup restores the stored session in the background; protected commands
// wait for it through the navigation guard. A background watcher pings the
// backend and shows online/offline in the prompt.
//
// Commands:
//   - signup / login / logout / whoami
//   - submit, analyze, story, preview
//   - history [reload], show <id>, edit <id>, delete <id>
//   - insights, dashboard
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
