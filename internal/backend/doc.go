// Package backend is the HTTP client for the inspection backend's
// storage and table endpoints.
package backend
