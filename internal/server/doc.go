// Package server exposes the driver over HTTP.
//
// Every endpoint is a GET so that a browser can drive the UI by hand. The
// router validates parameters, dispatches onto the UI context through the
// driver, and translates fault codes into status codes:
//
//	VALIDATION         400 "Bad Request: <message>"
//	ALREADY_RECORDING  409
//	NOT_RECORDING      400
//	anything else      500 "Server Error: <message>"
//
// Each request gets an X-Request-Id and, when a store is configured, a row
// in the request log.
package server
