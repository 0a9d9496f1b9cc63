// Package security derives the security posture report exposed by
// goSession.Engine.SecurityReport from resolved configuration.
package security
