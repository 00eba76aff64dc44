// Package cli builds the hookbind command tree, translates flags and
// environment variables into the application's configuration and maps
// failures to process exit codes.
package cli
