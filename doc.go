// Package hiera implements a lookup backend that answers hierarchical
// configuration queries from a Redis-compatible store.
//
// The host supplies the ordered datasources for a lookup, parses every raw
// value it is handed and decides how hash answers merge. The backend turns
// each source into a namespaced key ("hosts:web1:port"), reads it with the
// command that matches the key's Redis type and applies one of three
// resolutions:
//
//   - scalar: the first source holding the key wins
//   - array: every matching source contributes one element, in source order
//   - hash: every matching source is merged through the host
//
// A lookup that matches nothing returns an Answer with Found set to false.
// Connection failures propagate unless Config.SoftConnectionFailure is set,
// in which case they are logged and reported as not found.
//
//	backend, err := hiera.New(hiera.Config{Deserialize: hiera.DeserializeJSON}, h,
//		hiera.WithLogger(logger))
//	answer, err := backend.Lookup(ctx, hiera.Request{Key: "ntp_servers", Resolution: hiera.Array()})
package hiera
