package domain

// ContainerSummary is one entry of the daemon's running-container listing.
// Names carry the leading path separator exactly as the control plane
// returns them ("/web", not "web").
type ContainerSummary struct {
	ID     string
	Names  []string
	Status string
}

// HasName reports whether the summary carries the given name label,
// separator prefix included.
func (c ContainerSummary) HasName(label string) bool {
	for _, n := range c.Names {
		if n == label {
			return true
		}
	}
	return false
}

// ContainerDetail is the flat, immutable snapshot of one container taken
// once per reconciliation pass. It is the substitution context handed to
// template rendering.
type ContainerDetail struct {
	ID         string
	Name       string
	IPAddress  string
	Hostname   string
	Domainname string
}

// RenderContext exposes the detail fields under their placeholder names.
func (d ContainerDetail) RenderContext() map[string]string {
	return map[string]string{
		"Name":       d.Name,
		"IPAddress":  d.IPAddress,
		"Hostname":   d.Hostname,
		"Domainname": d.Domainname,
	}
}
