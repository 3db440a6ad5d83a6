// internal/storage/factory.go
package storage

// Assemble combines the always-on fan-out backend with whatever optional
// sinks are configured. Order matters: observers get the event before any
// journal or database write is attempted.
func Assemble(fanout Backend, optional ...Backend) Backend {
	backends := make([]Backend, 0, 1+len(optional))
	backends = append(backends, fanout)
	for _, b := range optional {
		if b != nil {
			backends = append(backends, b)
		}
	}
	if len(backends) == 1 {
		return backends[0]
	}
	return NewMulti(backends...)
}
