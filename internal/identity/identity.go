// Package identity builds the ServiceIdentity a ping handler answers
// with, deriving the numeric instance index from INSTANCE_INDEX or the
// hostname suffix.
package identity

import (
	"runtime"

	"github.com/livetocode/vehicle-fleet-poc/internal/config"
	"github.com/livetocode/vehicle-fleet-poc/internal/protocol"
)

const serviceName = "vehicle-fleet-finder"

// Build returns this process's ServiceIdentity.
func Build() protocol.ServiceIdentity {
	return protocol.ServiceIdentity{
		Name:     serviceName,
		Instance: config.InstanceIndex(),
		Runtime:  runtime.Version(),
	}
}
