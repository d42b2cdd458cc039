package config

import "path/filepath"

// Resolve returns p relative to the configuration file's directory.
// Absolute paths and the empty string are returned unchanged.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir(), p)
}

// resolvePaths anchors every filesystem path in the file at its directory,
// so builds behave the same from any working directory.
func (c *Config) resolvePaths() {
	c.Output.Directory = c.Resolve(c.Output.Directory)
	c.Report.Directory = c.Resolve(c.Report.Directory)
	c.Metrics.Textfile = c.Resolve(c.Metrics.Textfile)
	if c.Events.Database != ":memory:" {
		c.Events.Database = c.Resolve(c.Events.Database)
	}
	for i := range c.Assets {
		c.Assets[i].Src = c.Resolve(c.Assets[i].Src)
	}
	for i := range c.Daemon.Watch {
		c.Daemon.Watch[i] = c.Resolve(c.Daemon.Watch[i])
	}
}
