// Package version identifies this build to feeds, outbound requests and the info endpoint.
package version

const (
	Name     = "linkfeed"
	Homepage = "https://github.com/samvad-hq/linkfeed"
)

// Version will be set during build
var Version = "dev"

// UserAgent is sent with every outbound metadata fetch.
func UserAgent() string {
	return Name + "/" + Version + "; (+" + Homepage + ")"
}
