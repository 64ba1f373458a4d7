// Package utils holds input validation and sanitizing shared by the HTTP
// and WebSocket surfaces and the teaching service.
package utils
