// Package models implements the Generic OnOff, Light HSL, Sensor and Health
// models on top of the dispatcher and resolver.
//
// Each model owns its state and publication, registers its opcode handlers
// once with Register and never keeps a message context past the handler
// that received it.
package models
