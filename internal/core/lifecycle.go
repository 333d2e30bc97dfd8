package core

import (
	"context"

	"gopkg.in/yaml.v3"
)

// ModuleID identifies a module, namespaced by kind: "channel.telegram",
// "stt.salute", "gateway.http".
type ModuleID string

// ModuleInfo describes a registered module.
type ModuleInfo struct {
	ID ModuleID
	// New returns a fresh, unconfigured instance.
	New func() Module
}

// Module is the minimum every module implements.
type Module interface {
	ModuleInfo() ModuleInfo
}

// Configurable modules decode their own section of the YAML config.
// Called right after New and before Provision.
type Configurable interface {
	Configure(node *yaml.Node) error
}

// Provisioner modules build their runtime dependencies and publish
// services on the AppContext.
type Provisioner interface {
	Provision(ctx *AppContext) error
}

// Validator modules check their configuration after Provision.
// Validate must not have side effects.
type Validator interface {
	Validate() error
}

// Starter modules launch background work once every module is provisioned.
type Starter interface {
	Start() error
}

// Stopper modules release resources. Stop runs in reverse start order.
type Stopper interface {
	Stop(ctx context.Context) error
}
