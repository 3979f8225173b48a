/*
flag Package set up cli flags shared across services

Usage:

	Flags listed in this package are shared across boundaries and service-agnostic
	For service dependent flags please define in their respective package
*/

package flag

import (
	"flag"
)

const (
	APIServer = "discussion_api"
)

var (
	IsDevelopment = flag.Bool("dev", true, "set to true if the current run is for development. default value is true")
	ServiceName   = flag.String("service", APIServer, "name of the service, used for logging and tracing")
)

// ParseFlags must be called once in main, after all packages had the chance
// to register their own flags.
func ParseFlags() {
	flag.Parse()
}
