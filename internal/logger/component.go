// Copyright (C) MongoDB, Inc. 2023-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package logger

import (
	"os"
)

// Component is an enumeration representing the "components" which can be
// logged against. A Level can be configured on a per-component basis.
type Component int

const (
	// ComponentAll enables logging for all components.
	ComponentAll Component = iota

	// ComponentTopology enables cluster description logging.
	ComponentTopology

	// ComponentConnection enables server heartbeat logging.
	ComponentConnection
)

// ComponentLiteral is an enumeration representing the string literal
// "components" which can be logged against.
type ComponentLiteral string

const (
	ComponentLiteralAll        ComponentLiteral = "all"
	ComponentLiteralTopology   ComponentLiteral = "topology"
	ComponentLiteralConnection ComponentLiteral = "connection"
)

// Component returns the Component for the given ComponentLiteral.
func (componentLiteral ComponentLiteral) Component() Component {
	switch componentLiteral {
	case ComponentLiteralTopology:
		return ComponentTopology
	case ComponentLiteralConnection:
		return ComponentConnection
	default:
		return ComponentAll
	}
}

// componentEnvVar is an enumeration representing the environment variables
// which can be used to configure a component's log level.
type componentEnvVar string

const (
	componentEnvVarAll        componentEnvVar = "MONGODB_LOG_ALL"
	componentEnvVarTopology   componentEnvVar = "MONGODB_LOG_TOPOLOGY"
	componentEnvVarConnection componentEnvVar = "MONGODB_LOG_CONNECTION"
)

var allComponentEnvVars = []componentEnvVar{
	componentEnvVarAll,
	componentEnvVarTopology,
	componentEnvVarConnection,
}

func (env componentEnvVar) component() Component {
	switch env {
	case componentEnvVarTopology:
		return ComponentTopology
	case componentEnvVarConnection:
		return ComponentConnection
	default:
		return ComponentAll
	}
}

// getEnvComponentLevels returns the component levels set through the
// environment. A level set for "all" applies to every component that has no
// level of its own.
func getEnvComponentLevels() map[Component]Level {
	levels := make(map[Component]Level)

	var globalLevel Level
	for _, env := range allComponentEnvVars {
		level := ParseLevel(os.Getenv(string(env)))
		if level == LevelOff {
			continue
		}
		if env == componentEnvVarAll {
			globalLevel = level
			continue
		}
		levels[env.component()] = level
	}

	if globalLevel != LevelOff {
		for _, component := range []Component{ComponentTopology, ComponentConnection} {
			if _, ok := levels[component]; !ok {
				levels[component] = globalLevel
			}
		}
	}

	return levels
}
