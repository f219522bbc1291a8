package exec

import (
	"fmt"
	"strings"

	"github.com/sweepline/sweep/model"
)

// Host identifies where commands run. The default bash://localhost/ runs
// locally; any other host is reached over SSH using the configured
// credentials.
type Host struct {
	URL string `json:"url,omitempty" description:"host to execute command on"`

	// User and PrivateKeyPath configure SSH access for remote hosts.
	User           string `json:"user,omitempty"`
	PrivateKeyPath string `json:"privateKeyPath,omitempty"`
	Password       string `json:"password,omitempty"`
}

// Input represents an evaluation request executed as shell commands. Trial
// parameters are exported to the environment so commands can consume them.
type Input struct {
	Host         *Host                  `json:"host,omitempty" internal:"true"`
	Workdir      string                 `json:"workdir,omitempty" description:"directory where commands start"`
	Env          map[string]string      `json:"env,omitempty" description:"environment variables to be set before commands run"`
	Commands     []string               `json:"commands,omitempty" description:"commands to execute on the target system"`
	TimeoutMs    int                    `json:"timeoutMs,omitempty" yaml:"timeoutMs,omitempty" description:"max wait time before timing out a command"`
	AbortOnError *bool                  `json:"abortOnError,omitempty" description:"stop after the first command with a non zero status"`
	Parameters   model.Parameterization `json:"parameters,omitempty" description:"trial parameters exported as PARAM_<NAME> variables"`
}

func (i *Input) Init() {
	if i.Host == nil {
		i.Host = &Host{}
	}
	if i.Host.URL == "" {
		i.Host.URL = "bash://localhost/"
	}
}

// environment merges the declared variables with the exported parameters.
func (i *Input) environment() map[string]string {
	if len(i.Env) == 0 && len(i.Parameters) == 0 {
		return nil
	}
	ret := make(map[string]string, len(i.Env)+len(i.Parameters))
	for k, v := range i.Env {
		ret[k] = v
	}
	for _, name := range i.Parameters.Names() {
		key := "PARAM_" + strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(name))
		ret[key] = fmt.Sprintf("%v", i.Parameters[name])
	}
	return ret
}
