// Package testutil provides shared fixtures for package tests: scripted
// stub agents with deterministic results and recorded inputs.
package testutil
