// Package gateway bridges a mesh to an MQTT telemetry service.
//
// Sensor statuses relayed to all nodes by a proxy are decoded into flat
// telemetry objects and published as JSON:
//
//	{"temperature_kitchen": 22.5, "humidity_kitchen": 41, "pressure_kitchen": 99.8}
//	{"co2_ppm_kitchen": 1200}
//
// The reverse direction carries one RPC, onoff-set, which becomes a Generic
// OnOff Set Unacknowledged to the alert target.
package gateway
