// Package lifecycle starts, probes and stops the StewardX service process.
//
// Liveness is judged by the control socket: if the socket file exists the
// service is considered running. Start launches the installed binary in its
// own session so it outlives the CLI, then waits a bounded time for the
// socket to appear. Stop sends a stop request over the socket.
package lifecycle
