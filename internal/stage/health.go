package stage

// Health reports whether a stage's external dependencies (binaries on PATH,
// sidecar services, artifact directories) are usable right now. Detail is
// empty for a ready stage.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy reports a stage whose dependencies all checked out.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy reports a stage that cannot run, with the failing dependency in
// the detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
