// Package host is a reference implementation of the collaborators a lookup
// framework hands to the Redis backend: a hierarchy of interpolated
// datasource names, an answer parser and a hash merger.
//
//	h := host.New([]string{"hosts/%{fqdn}", "env/%{environment}", "common"})
//	backend, err := hiera.New(cfg, h)
package host
