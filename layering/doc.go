// Package layering merges hash answers gathered from prioritized datasources.
package layering
