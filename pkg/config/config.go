// Package config holds the email2md settings read from the environment.
package config

import (
	"io"
	"text/tabwriter"

	"github.com/kelseyhightower/envconfig"
)

const (
	prefix      = "email2md"
	tableFormat = `email2md defaults may be set via the environment, command line flags take
precedence. The following environment variables can be used:

KEY	DEFAULT	REQUIRED	DESCRIPTION
{{range .}}{{usage_key .}}	{{usage_default .}}	{{usage_required .}}	{{usage_description .}}
{{end}}`
)

var (
	// Version of this build, set by main
	Version = ""

	// BuildDate for this build, set by main
	BuildDate = ""
)

// Root wraps all configuration.
type Root struct {
	LogLevel  string `required:"true" default:"warn" desc:"debug, info, warn, or error"`
	LogJSON   bool   `default:"false" desc:"Log as JSON instead of console text"`
	OutputDir string `desc:"Default directory for saved attachments"`
	Sanitize  bool   `default:"false" desc:"Sanitize HTML bodies by default"`
}

// Process loads and parses configuration from the environment.
func Process() (*Root, error) {
	c := &Root{}
	err := envconfig.Process(prefix, c)
	return c, err
}

// Usage writes the envconfig usage table to w.
func Usage(w io.Writer) error {
	tabs := tabwriter.NewWriter(w, 1, 0, 4, ' ', 0)
	if err := envconfig.Usagef(prefix, &Root{}, tabs, tableFormat); err != nil {
		return err
	}
	return tabs.Flush()
}
