package ecs

import "go.uber.org/zap"

// newDefaultLogger returns the no-op zap logger every World starts with.
// Callers that want lifecycle diagnostics pass WithLogger to CreateWorld.
func newDefaultLogger() *zap.Logger {
	return zap.NewNop()
}
