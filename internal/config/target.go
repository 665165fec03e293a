package config

// Target is the device a command line addresses after alias resolution.
type Target struct {
	Alias    string
	Host     string
	Port     int
	Password string
}

// Resolve maps host through the projector aliases. Unknown names are used
// verbatim with the global port and password.
func (c Config) Resolve(host string) Target {
	target := Target{Host: host, Port: c.Port, Password: c.Password}

	p, ok := c.Projectors[host]
	if !ok {
		return target
	}
	target.Alias = host
	target.Host = p.Address
	if p.Port != 0 {
		target.Port = p.Port
	}
	if p.Password != "" {
		target.Password = p.Password
	}
	return target
}
