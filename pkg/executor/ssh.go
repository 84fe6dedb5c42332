// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package executor

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/NVIDIA/hostpulse/pkg/defaults"
	apperrors "github.com/NVIDIA/hostpulse/pkg/errors"
)

// SSHConfig describes how to reach a remote target.
type SSHConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	IdentityFile string

	// KnownHostsFile verifies the server key. Defaults to ~/.ssh/known_hosts.
	KnownHostsFile string

	// InsecureIgnoreHostKey disables host key verification.
	InsecureIgnoreHostKey bool

	// Timeout bounds Execute. Zero uses defaults.CommandTimeout.
	Timeout time.Duration
}

// Validate checks that the connection parameters are usable.
func (c SSHConfig) Validate() error {
	if c.Host == "" {
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "ssh host is required")
	}
	if c.User == "" {
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "ssh user is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		return apperrors.NewWithContext(apperrors.ErrCodeInvalidConfig, "ssh port out of range",
			map[string]any{"port": c.Port})
	}
	return nil
}

func (c SSHConfig) addr() string {
	port := c.Port
	if port == 0 {
		port = 22
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// SSH runs commands on a remote host. A single client connection is shared
// by all commands and re-established after a transport failure.
type SSH struct {
	cfg SSHConfig

	mu     sync.Mutex
	client *ssh.Client
}

// NewSSH validates cfg and returns an executor that connects lazily.
func NewSSH(cfg SSHConfig) (*SSH, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.CommandTimeout
	}
	return &SSH{cfg: cfg}, nil
}

// clientConfig builds the handshake config. The returned release func closes
// the agent socket and must be called once the handshake is done.
func (s *SSH) clientConfig() (*ssh.ClientConfig, func(), error) {
	var auth []ssh.AuthMethod
	release := func() {}

	if s.cfg.IdentityFile != "" {
		key, err := os.ReadFile(s.cfg.IdentityFile)
		if err != nil {
			return nil, release, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, "failed to read identity file", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, release, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, "failed to parse identity file", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}

	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			auth = append(auth, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
			release = func() { _ = conn.Close() }
		}
	}

	if s.cfg.Password != "" {
		auth = append(auth, ssh.Password(s.cfg.Password))
	}

	if len(auth) == 0 {
		return nil, release, apperrors.New(apperrors.ErrCodeInvalidConfig,
			"no ssh authentication method available (identity file, agent or password)")
	}

	hostKey, err := s.hostKeyCallback()
	if err != nil {
		release()
		return nil, func() {}, err
	}

	return &ssh.ClientConfig{
		User:            s.cfg.User,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         defaults.SSHDialTimeout,
	}, release, nil
}

func (s *SSH) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if s.cfg.InsecureIgnoreHostKey {
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // explicit opt-in
	}
	path := s.cfg.KnownHostsFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, "cannot locate known_hosts", err)
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}
	cb, err := knownhosts.New(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, "failed to load known_hosts", err)
	}
	return cb, nil
}

func (s *SSH) connect() (*ssh.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	cfg, release, err := s.clientConfig()
	defer release()
	if err != nil {
		return nil, err
	}

	client, err := ssh.Dial("tcp", s.cfg.addr(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", s.cfg.addr(), err)
	}
	slog.Info("ssh connection established", "addr", s.cfg.addr(), "user", s.cfg.User)
	s.client = client

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = client.Wait()
		cancel()
	}()
	go keepalive(ctx, client, defaults.SSHKeepaliveInterval, defaults.SSHKeepaliveTimeout, func(err error) {
		slog.Warn("ssh keepalive failed, dropping connection", "addr", s.cfg.addr(), "error", err)
		s.drop(client)
	})
	return client, nil
}

// requester is the part of *ssh.Client used for keepalives.
type requester interface {
	SendRequest(name string, wantReply bool, payload []byte) (bool, []byte, error)
}

// keepalive sends a global request every interval until ctx is done. A
// request that fails or gets no reply within timeout calls onFail once and
// stops the loop.
func keepalive(ctx context.Context, conn requester, interval, timeout time.Duration, onFail func(error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		reply := make(chan error, 1)
		go func() {
			_, _, err := conn.SendRequest("keepalive@openssh.com", true, nil)
			reply <- err
		}()

		select {
		case <-ctx.Done():
			return
		case err := <-reply:
			if err != nil {
				onFail(err)
				return
			}
		case <-time.After(timeout):
			onFail(fmt.Errorf("no keepalive reply within %s", timeout))
			return
		}
	}
}

// drop discards a broken client so the next command reconnects.
func (s *SSH) drop(client *ssh.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == client {
		_ = s.client.Close()
		s.client = nil
	}
}

func (s *SSH) session() (*ssh.Client, *ssh.Session, error) {
	client, err := s.connect()
	if err != nil {
		return nil, nil, err
	}
	sess, err := client.NewSession()
	if err != nil {
		// A dead connection shows up here first.
		s.drop(client)
		return nil, nil, fmt.Errorf("failed to open ssh session: %w", err)
	}
	return client, sess, nil
}

// Execute implements Executor.
func (s *SSH) Execute(ctx context.Context, command string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	client, sess, err := s.session()
	if err != nil {
		return "", &ExecutionError{Command: command, ExitCode: ExitCodeUnknown, Err: err}
	}
	defer sess.Close()

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- sess.Run(command) }()

	select {
	case <-ctx.Done():
		_ = sess.Signal(ssh.SIGKILL)
		_ = sess.Close()
		// Run owns the buffers until it returns. Dropping the client unblocks
		// it when the remote end is unresponsive.
		select {
		case <-done:
		case <-time.After(defaults.SSHKeepaliveTimeout):
			s.drop(client)
			<-done
		}
		return "", &ExecutionError{Command: command, ExitCode: ExitCodeUnknown, Stderr: stderr.String(), Err: ctx.Err()}
	case err := <-done:
		if err != nil {
			return "", s.remoteError(client, command, err, stderr.String())
		}
	}
	return stdout.String(), nil
}

// Stream implements Executor.
func (s *SSH) Stream(ctx context.Context, command string, onLine func(string)) error {
	client, sess, err := s.session()
	if err != nil {
		return &ExecutionError{Command: command, ExitCode: ExitCodeUnknown, Err: err}
	}
	defer sess.Close()

	var stderr bytes.Buffer
	sess.Stderr = &stderr
	stdout, err := sess.StdoutPipe()
	if err != nil {
		return &ExecutionError{Command: command, ExitCode: ExitCodeUnknown, Err: err}
	}
	if err := sess.Start(command); err != nil {
		return s.remoteError(client, command, err, stderr.String())
	}

	stop := context.AfterFunc(ctx, func() {
		_ = sess.Signal(ssh.SIGKILL)
		_ = sess.Close()
	})
	defer stop()

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		onLine(scanner.Text())
	}

	if err := sess.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return s.remoteError(client, command, err, stderr.String())
	}
	return scanner.Err()
}

func (s *SSH) remoteError(client *ssh.Client, command string, err error, stderr string) error {
	ee := &ExecutionError{Command: command, ExitCode: ExitCodeUnknown, Stderr: stderr, Err: err}
	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		ee.ExitCode = exitErr.ExitStatus()
		return ee
	}
	var missing *ssh.ExitMissingError
	if !errors.As(err, &missing) {
		s.drop(client)
	}
	return ee
}

// Close releases the underlying connection.
func (s *SSH) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}
