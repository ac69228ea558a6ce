// Package testsupport builds isolated configurations and fixture files for
// package tests.
package testsupport
