//go:build !sanchecks

package constants

const PerformSanityChecks = false
