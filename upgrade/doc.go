// Package upgrade implements the per-agent upgrade protocol: the seven-step
// sequence that delivers a WPK to a remote agent over the request-forwarding
// socket, plus the request/config/outcome types shared across the dispatcher.
package upgrade
