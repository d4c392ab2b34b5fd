// Package sshprobe owns one SSH session to one remote host, running
// shell commands and lazily reconnecting after any I/O failure.
package sshprobe

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

const (
	connectTimeout = 1 * time.Second
	ioTimeout      = 5 * time.Second
	defaultPort    = 22
)

// AuthMethod selects how the probe authenticates.
type AuthMethod interface {
	sshAuthMethods() ([]ssh.AuthMethod, error)
}

// SshAgentAuth authenticates using the local SSH agent (SSH_AUTH_SOCK).
type SshAgentAuth struct{}

func (SshAgentAuth) sshAuthMethods() ([]ssh.AuthMethod, error) {
	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return nil, fmt.Errorf("ssh agent auth requested but SSH_AUTH_SOCK is not set")
	}
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil, fmt.Errorf("dial ssh agent: %w", err)
	}
	client := agent.NewClient(conn)
	return []ssh.AuthMethod{ssh.PublicKeysCallback(client.Signers)}, nil
}

// PubKeyAuth authenticates with a private key file, an optional
// public key hint, and an optional passphrase.
type PubKeyAuth struct {
	PrivateKeyPath string
	PublicKeyPath  string
	Passphrase     string
}

func (a PubKeyAuth) sshAuthMethods() ([]ssh.AuthMethod, error) {
	keyBytes, err := os.ReadFile(a.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key %s: %w", a.PrivateKeyPath, err)
	}

	var signer ssh.Signer
	if a.Passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(keyBytes, []byte(a.Passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(keyBytes)
	}
	if err != nil {
		return nil, fmt.Errorf("parse private key %s: %w", a.PrivateKeyPath, err)
	}

	return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
}

// Probe holds one lazily-(re)connected SSH session to one host.
type Probe struct {
	username string
	auth     AuthMethod
	hostname string
	port     int

	client *ssh.Client

	cpus          uint8
	uptimeSeconds uint64
	ip            string
}

// New returns a probe with no live session; it connects lazily on the
// first Run call.
func New(username string, auth AuthMethod, hostname string, port int) *Probe {
	if port == 0 {
		port = defaultPort
	}
	return &Probe{username: username, auth: auth, hostname: hostname, port: port}
}

// Run executes command over the session, connecting first if needed.
// Any I/O error drops the session so the next call reconnects; there
// is no retry inside this call.
func (p *Probe) Run(command string) (string, error) {
	if p.client == nil {
		if err := p.init(); err != nil {
			return "", err
		}
	}

	session, err := p.client.NewSession()
	if err != nil {
		p.drop()
		return "", fmt.Errorf("new ssh session to %s: %w", p.hostname, err)
	}
	defer session.Close()

	out, err := session.CombinedOutput(command)
	if err != nil {
		p.drop()
		return "", fmt.Errorf("run %q on %s: %w", command, p.hostname, err)
	}

	return string(out), nil
}

// drop discards the current session; the next Run rebuilds it.
func (p *Probe) drop() {
	if p.client != nil {
		p.client.Close()
	}
	p.client = nil
}

// init resolves hostname:port, dials with a bounded connect timeout,
// performs the SSH handshake, and primes cpus/uptime/ip.
func (p *Probe) init() error {
	addr := net.JoinHostPort(p.hostname, strconv.Itoa(p.port))

	ips, err := net.LookupHost(p.hostname)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", p.hostname, err)
	}
	if len(ips) == 0 {
		return fmt.Errorf("no addresses for %s", p.hostname)
	}
	dialAddr := net.JoinHostPort(ips[0], strconv.Itoa(p.port))

	conn, err := net.DialTimeout("tcp", dialAddr, connectTimeout)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	_ = conn.SetDeadline(time.Now().Add(ioTimeout))

	authMethods, err := p.auth.sshAuthMethods()
	if err != nil {
		conn.Close()
		return fmt.Errorf("ssh auth for %s: %w", p.hostname, err)
	}

	clientConfig := &ssh.ClientConfig{
		User:            p.username,
		Auth:            authMethods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         ioTimeout,
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		conn.Close()
		return fmt.Errorf("ssh handshake with %s: %w", p.hostname, err)
	}
	p.client = ssh.NewClient(sshConn, chans, reqs)

	if host, _, err := net.SplitHostPort(conn.RemoteAddr().String()); err == nil {
		p.ip = host
	}

	p.cpus = p.probeCpus()
	return p.UpdateUptime()
}

// probeCpus runs `nproc` and parses the result, defaulting to 0 on
// any failure (parse or command).
func (p *Probe) probeCpus() uint8 {
	session, err := p.client.NewSession()
	if err != nil {
		return 0
	}
	defer session.Close()

	out, err := session.CombinedOutput("nproc")
	if err != nil {
		return 0
	}
	n, err := strconv.ParseUint(strings.TrimSpace(string(out)), 10, 8)
	if err != nil {
		return 0
	}
	return uint8(n)
}

// UpdateUptime runs `cat /proc/uptime` and stores the truncated
// integer seconds.
func (p *Probe) UpdateUptime() error {
	out, err := p.Run("cat /proc/uptime")
	if err != nil {
		return err
	}
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return fmt.Errorf("empty /proc/uptime output from %s", p.hostname)
	}
	seconds, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return fmt.Errorf("parse /proc/uptime from %s: %w", p.hostname, err)
	}
	p.uptimeSeconds = uint64(seconds)
	return nil
}

// GetHostname returns the configured hostname.
func (p *Probe) GetHostname() string { return p.hostname }

// GetIp returns the last-observed peer address, empty until the first
// successful connection.
func (p *Probe) GetIp() string { return p.ip }

// GetCpus returns the logical CPU count observed at connect time.
func (p *Probe) GetCpus() uint16 { return uint16(p.cpus) }

// GetUptime returns the most recently refreshed uptime in seconds.
func (p *Probe) GetUptime() uint64 { return p.uptimeSeconds }
