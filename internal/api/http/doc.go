// Package http provides the REST handlers of the whiteboard.
//
// Board routes drive the drawing tools and scene; teach routes run and
// control AI lessons. Errors are mapped to status codes:
//
//	invalid input          400
//	unknown primitive      404
//	lesson already running 409
//	tools locked           423
//	upstream failure       502
//	not configured         503
package http
