// Package application provides application initialization and dependency wiring.
// It loads the option schema once, seeds the storage with the initial
// overrides and builds the handlers, routers and HTTP server, keeping the main
// package focused on flag parsing and orchestration.
package application
