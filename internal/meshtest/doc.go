// Package meshtest provides transport fakes for node and model tests.
package meshtest
