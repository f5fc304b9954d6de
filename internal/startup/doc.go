// Package startup handles application configuration loading, directory
// validation, and structured startup/shutdown logging.
package startup
