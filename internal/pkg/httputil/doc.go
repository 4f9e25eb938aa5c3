// Package httputil provides the JSON response and request helpers shared by
// the import API handlers. Errors use a single envelope so clients can switch
// on Code and show Error to the user.
package httputil
