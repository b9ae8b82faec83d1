// Package staging manages per-run scratch workspaces under the configured
// temp directory and reclaims the ones abandoned by crashed processes.
package staging
