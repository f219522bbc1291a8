package exec

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/viant/afs/url"
	"github.com/viant/gosh"
	"github.com/viant/gosh/runner"
	"github.com/viant/gosh/runner/local"
	rssh "github.com/viant/gosh/runner/ssh"
	"golang.org/x/crypto/ssh"

	"github.com/sweepline/sweep/model"
)

// Service runs shell workloads as trial evaluations. Sessions are pooled
// per host so consecutive trials reuse the underlying shell.
type Service struct {
	objectiveName string
	sessions      map[string]*sessionInfo
	mux           sync.Mutex
}

type sessionInfo struct {
	service *gosh.Service
}

// New creates a new Service instance. The objective name labels bare
// numeric results printed by the workload.
func New(objectiveName string) *Service {
	if objectiveName == "" {
		objectiveName = model.DefaultObjectiveName
	}
	return &Service{
		objectiveName: objectiveName,
		sessions:      make(map[string]*sessionInfo),
	}
}

// Execute runs the evaluation commands on the target system and parses the
// outcome from the workload's final stdout line.
func (s *Service) Execute(ctx context.Context, input *Input, output *Output) error {
	input.Init()

	session, err := s.getSession(ctx, input.Host, input.environment())
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	if input.Workdir != "" {
		_, _, err := session.service.Run(ctx, fmt.Sprintf("cd %s", input.Workdir))
		if err != nil {
			return fmt.Errorf("failed to change directory: %w", err)
		}
	}

	abortOnError := true
	if input.AbortOnError != nil {
		abortOnError = *input.AbortOnError
	}

	commands := make([]*Command, 0, len(input.Commands))
	var combinedStdout, combinedStderr strings.Builder
	var lastExitCode int

	timeoutDuration := time.Duration(input.TimeoutMs) * time.Millisecond
	if timeoutDuration == 0 {
		timeoutDuration = time.Minute
	}
	for _, cmd := range input.Commands {
		command := &Command{Input: cmd}
		stdout, stderr, exitCode := s.executeCommand(ctx, session, cmd, timeoutDuration)
		command.Output = stdout
		command.Stderr = stderr
		command.Status = exitCode
		commands = append(commands, command)

		if stdout != "" {
			combinedStdout.WriteString(stdout)
			combinedStdout.WriteString("\n")
		}
		if stderr != "" {
			combinedStderr.WriteString(stderr)
			combinedStderr.WriteString("\n")
		}
		lastExitCode = exitCode
		if abortOnError && exitCode != 0 {
			break
		}
	}

	output.Commands = commands
	output.Stdout = strings.TrimSpace(combinedStdout.String())
	output.Stderr = strings.TrimSpace(combinedStderr.String())
	output.Status = lastExitCode
	if lastExitCode == 0 {
		outcome, err := parseOutcome(output.Stdout, s.objectiveName)
		if err != nil {
			return fmt.Errorf("failed to parse outcome from stdout: %w", err)
		}
		output.Outcome = outcome
	}
	return nil
}

// executeCommand runs a single command and returns its output
func (s *Service) executeCommand(ctx context.Context, session *sessionInfo, command string, duration time.Duration) (string, string, int) {
	started := time.Now()
	stdout, status, err := session.service.Run(ctx, command, runner.WithTimeout(int(duration.Milliseconds())))
	elapsed := time.Since(started)
	if elapsed > duration && err == nil {
		err = fmt.Errorf("command %v timed out after: %s", command, elapsed)
	}
	if status == 0 && err == nil {
		return stdout, "", status
	}
	if stdout == "" && err != nil {
		stdout = err.Error()
	}
	if status == 0 {
		status = 1
	}
	return "", stdout, status
}

// getSession retrieves an existing session or creates a new one
func (s *Service) getSession(ctx context.Context, host *Host, env map[string]string) (*sessionInfo, error) {
	sessionID := host.URL

	s.mux.Lock()
	defer s.mux.Unlock()

	if session, ok := s.sessions[sessionID]; ok {
		return session, nil
	}

	var service *gosh.Service
	var err error

	envOptions := []runner.Option{}
	if len(env) > 0 {
		envOptions = append(envOptions, runner.WithEnvironment(env))
	}
	if url.Host(host.URL) == "localhost" {
		service, err = gosh.New(ctx, local.New(envOptions...))
	} else {
		config, cerr := sshConfig(host)
		if cerr != nil {
			return nil, fmt.Errorf("failed to get SSH config: %w", cerr)
		}
		sshHost := url.Host(host.URL)
		if !strings.Contains(sshHost, ":") {
			sshHost += ":22"
		}
		service, err = gosh.New(ctx, rssh.New(sshHost, config, envOptions...))
	}
	if err != nil {
		return nil, err
	}
	session := &sessionInfo{service: service}
	s.sessions[sessionID] = session
	return session, nil
}

// sshConfig builds client credentials from the host settings.
func sshConfig(host *Host) (*ssh.ClientConfig, error) {
	user := host.User
	if user == "" {
		user = os.Getenv("USER")
	}
	var methods []ssh.AuthMethod
	if host.PrivateKeyPath != "" {
		key, err := os.ReadFile(host.PrivateKeyPath)
		if err != nil {
			return nil, err
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, err
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}
	if host.Password != "" {
		methods = append(methods, ssh.Password(host.Password))
	}
	if len(methods) == 0 {
		return nil, fmt.Errorf("host %v: no SSH credentials configured", host.URL)
	}
	return &ssh.ClientConfig{
		User:            user,
		Auth:            methods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         15 * time.Second,
	}, nil
}

// Close releases all sessions held by this service
func (s *Service) Close(ctx context.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	var errs []string
	for id, session := range s.sessions {
		if err := session.service.Close(); err != nil {
			errs = append(errs, fmt.Sprintf("failed to close session %s: %v", id, err))
		}
	}
	s.sessions = make(map[string]*sessionInfo)
	if len(errs) > 0 {
		return fmt.Errorf("errors closing sessions: %s", strings.Join(errs, "; "))
	}
	return nil
}
