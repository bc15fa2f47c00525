// Package node composes models, LED, button and triggers into the four
// node roles: light, switch, sensor and proxy.
//
// A Node is attached to a mesh.Transport for sending and is fed inbound
// messages through Receive. Everything role specific lives in the role
// builders; the boot sequence, provisioning and persistence are shared.
package node
