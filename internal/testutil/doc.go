// Package testutil provides test doubles shared by package tests and the
// scenario harness: a scripted HTTP backend and deterministic request ids.
package testutil
