// Package version provides version information for dcoracle.
package version

// Version is the current version of dcoracle.
const Version = "0.4.1"

// AgentString returns the User-Agent sent to external price APIs.
// Format: dogepump-dcoracle/v{version}
func AgentString() string {
	return "dogepump-dcoracle/v" + Version
}
