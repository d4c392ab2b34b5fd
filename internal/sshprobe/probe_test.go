package sshprobe

import (
	"os"
	"testing"
)

func TestSshAgentAuthRequiresSocket(t *testing.T) {
	old, hadOld := os.LookupEnv("SSH_AUTH_SOCK")
	os.Unsetenv("SSH_AUTH_SOCK")
	defer func() {
		if hadOld {
			os.Setenv("SSH_AUTH_SOCK", old)
		}
	}()

	_, err := SshAgentAuth{}.sshAuthMethods()
	if err == nil {
		t.Fatal("expected an error when SSH_AUTH_SOCK is unset")
	}
}

func TestPubKeyAuthMissingFile(t *testing.T) {
	_, err := PubKeyAuth{PrivateKeyPath: "/nonexistent/path/to/key"}.sshAuthMethods()
	if err == nil {
		t.Fatal("expected an error for a missing private key file")
	}
}

func TestNewDefaultsPort(t *testing.T) {
	p := New("ops", SshAgentAuth{}, "host1.example", 0)
	if p.port != defaultPort {
		t.Fatalf("port = %d, want %d", p.port, defaultPort)
	}
}

func TestAccessorsBeforeConnect(t *testing.T) {
	p := New("ops", SshAgentAuth{}, "host1.example", 22)
	if p.GetHostname() != "host1.example" {
		t.Errorf("GetHostname() = %q", p.GetHostname())
	}
	if p.GetIp() != "" {
		t.Errorf("GetIp() = %q, want empty before connect", p.GetIp())
	}
	if p.GetCpus() != 0 || p.GetUptime() != 0 {
		t.Errorf("expected zero cpus/uptime before connect")
	}
}
