// Package server exposes the typing tutor's assistant operations over
// HTTP. Responses use a uniform {success, data, error} envelope and a
// Server-Sent Events endpoint streams bus events to the frontend.
package server
