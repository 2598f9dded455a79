// Package application wires the diagnostic HTTP server on top of a
// bootstrapped environment. It builds the handler, router and server so the
// main package stays focused on CLI parsing and orchestration.
package application
