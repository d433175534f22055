// Package middleware provides HTTP middleware for the metrics endpoint.
//
// Scrapes are logged at debug level with status, size and duration so a
// misbehaving collector can be spotted without enabling access logs.
package middleware
