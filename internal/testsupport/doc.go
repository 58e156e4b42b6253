// Package testsupport holds small helpers shared by package tests.
package testsupport
