//go:build sanchecks

package constants

// Every boundary set is validated before being returned, violations panic
const PerformSanityChecks = true
