// Package remote owns the authenticated SSH session to the cluster login
// node: command execution over ssh and file transfer over sftp. A Session is
// short-lived, scoped to one operation, and not safe for concurrent use.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"strings"

	"github.com/pkg/sftp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/comet-hpc/comet/config"
)

// Result captures everything a remote command produced. A nonzero ExitCode
// is data, not an error: callers interpret it per operation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

type Session struct {
	client *ssh.Client
	sftp   *sftp.Client
	addr   string
}

// Dial opens an authenticated session to the configured host. Authentication
// or reachability failures return a ConnectionError immediately; retry
// policy, if any, belongs to the caller.
func Dial(ctx context.Context, cfg *config.Config) (*Session, error) {
	auths := AuthsFor(cfg.Password, cfg.KeyFile)
	if len(auths) == 0 {
		return nil, &ConnectionError{Addr: cfg.Addr(), Err: "no authentication method configured"}
	}

	var methods []ssh.AuthMethod
	for _, a := range auths {
		m, err := a.Method()
		if err != nil {
			return nil, &ConnectionError{Addr: cfg.Addr(), Err: err.Error()}
		}
		methods = append(methods, m)
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if cfg.KnownHostsFile != "" {
		cb, err := knownhosts.New(cfg.KnownHostsFile)
		if err != nil {
			return nil, &ConnectionError{Addr: cfg.Addr(), Err: err.Error()}
		}
		hostKeyCallback = cb
	}

	clientConfig := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            methods,
		HostKeyCallback: hostKeyCallback,
		Timeout:         cfg.DialTimeout,
	}

	dialer := net.Dialer{Timeout: cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", cfg.Addr())
	if err != nil {
		return nil, &ConnectionError{Addr: cfg.Addr(), Err: err.Error()}
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, cfg.Addr(), clientConfig)
	if err != nil {
		conn.Close()
		return nil, &ConnectionError{Addr: cfg.Addr(), Err: err.Error()}
	}

	return &Session{
		client: ssh.NewClient(sshConn, chans, reqs),
		addr:   cfg.Addr(),
	}, nil
}

// Exec runs a command line on the remote host and blocks until it returns.
// An ssh.ExitError becomes Result.ExitCode; any other error means the
// command's outcome is unknown and is returned as an error.
func (s *Session) Exec(ctx context.Context, cmd string) (Result, error) {
	session, err := s.client.NewSession()
	if err != nil {
		return Result{}, &ConnectionError{Addr: s.addr, Err: err.Error()}
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(cmd) }()

	select {
	case <-ctx.Done():
		// Closing the session releases the blocked Run.
		session.Close()
		<-done
		return Result{}, &ConnectionError{Addr: s.addr, Err: ctx.Err().Error()}
	case err = <-done:
	}

	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		if exitErr, ok := err.(*ssh.ExitError); ok {
			res.ExitCode = exitErr.ExitStatus()
			return res, nil
		}
		return res, &ConnectionError{Addr: s.addr, Err: err.Error()}
	}
	return res, nil
}

// Ping verifies the session can execute commands end to end.
func (s *Session) Ping(ctx context.Context) error {
	res, err := s.Exec(ctx, "echo ping_ok")
	if err != nil {
		return err
	}
	if !strings.Contains(res.Stdout, "ping_ok") {
		return &ConnectionError{Addr: s.addr, Err: fmt.Sprintf("unexpected ping response %q", res.Stdout)}
	}
	return nil
}

func (s *Session) sftpClient() (*sftp.Client, error) {
	if s.sftp != nil {
		return s.sftp, nil
	}
	c, err := sftp.NewClient(s.client)
	if err != nil {
		return nil, &ConnectionError{Addr: s.addr, Err: err.Error()}
	}
	s.sftp = c
	return c, nil
}

// Upload writes data to remotePath. The parent directory must already exist.
func (s *Session) Upload(data []byte, remotePath string) error {
	c, err := s.sftpClient()
	if err != nil {
		return err
	}
	if _, err := c.Stat(path.Dir(remotePath)); err != nil {
		return &TransferError{Path: remotePath, Err: fmt.Sprintf("parent directory: %s", err)}
	}
	f, err := c.Create(remotePath)
	if err != nil {
		return &TransferError{Path: remotePath, Err: err.Error()}
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return &TransferError{Path: remotePath, Err: err.Error()}
	}
	return nil
}

// Download reads the full content of remotePath. A missing file is a
// NotFoundError, anything else a TransferError.
func (s *Session) Download(remotePath string) ([]byte, error) {
	c, err := s.sftpClient()
	if err != nil {
		return nil, err
	}
	f, err := c.Open(remotePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Path: remotePath}
		}
		return nil, &TransferError{Path: remotePath, Err: err.Error()}
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, &TransferError{Path: remotePath, Err: err.Error()}
	}
	return data, nil
}

// ReadFrom reads remotePath starting at offset and returns the new offset,
// for tailing log files while a job runs. A file that does not exist yet
// reads as empty.
func (s *Session) ReadFrom(remotePath string, offset int64) ([]byte, int64, error) {
	c, err := s.sftpClient()
	if err != nil {
		return nil, offset, err
	}
	f, err := c.Open(remotePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, offset, nil
		}
		return nil, offset, &TransferError{Path: remotePath, Err: err.Error()}
	}
	defer f.Close()
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, &TransferError{Path: remotePath, Err: err.Error()}
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, offset, &TransferError{Path: remotePath, Err: err.Error()}
	}
	return data, offset + int64(len(data)), nil
}

// MkdirAll creates the remote directory and any missing parents. Idempotent.
func (s *Session) MkdirAll(remotePath string) error {
	c, err := s.sftpClient()
	if err != nil {
		return err
	}
	if err := c.MkdirAll(remotePath); err != nil {
		return &TransferError{Path: remotePath, Err: err.Error()}
	}
	return nil
}

// RemoveAll deletes the remote directory tree.
func (s *Session) RemoveAll(ctx context.Context, remotePath string) error {
	res, err := s.Exec(ctx, fmt.Sprintf("rm -rf -- %q", remotePath))
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return &TransferError{Path: remotePath, Err: strings.TrimSpace(res.Stderr)}
	}
	return nil
}

// Close releases the sftp channel and the underlying connection. Safe to
// call more than once.
func (s *Session) Close() error {
	if s.sftp != nil {
		if err := s.sftp.Close(); err != nil {
			log.Debugf("sftp close: %s", err)
		}
		s.sftp = nil
	}
	if s.client != nil {
		err := s.client.Close()
		s.client = nil
		return err
	}
	return nil
}
