// Package msgs provides the remote control protocol and all message schemas.
package msgs

// The protocol is communicated between the motor daemon and its remote
// clients (shell, monitor, higher level controllers). Every message is
// wrapped in a Typed envelope carrying a type ID and a sequence number
// which correlates a command with its reply. Telemetry is published as
// events without sequence.
//
// Producer: dshotd
// Consumer: dshotctl, dshotmon
