// Package upgradewire implements the framed request channel to the
// remote-forwarding daemon (spec.md §4.1), the agent-response parser
// (§4.2), and the six protocol step primitives (§4.3). Every exchange opens
// a fresh connection, sends one length-prefixed frame, and blocks for one
// length-prefixed reply.
package upgradewire
