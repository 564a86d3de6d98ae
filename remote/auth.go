package remote

import (
	"os"

	"golang.org/x/crypto/ssh"
)

// Auth is one way of proving identity to the remote host. Password and key
// file strategies are provided; further strategies (agent, certificate) only
// need to implement this interface.
type Auth interface {
	Method() (ssh.AuthMethod, error)
}

type PasswordAuth struct {
	Password string
}

func (a PasswordAuth) Method() (ssh.AuthMethod, error) {
	return ssh.Password(a.Password), nil
}

type KeyFileAuth struct {
	Path string
}

func (a KeyFileAuth) Method() (ssh.AuthMethod, error) {
	key, err := os.ReadFile(a.Path)
	if err != nil {
		return nil, err
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, err
	}
	return ssh.PublicKeys(signer), nil
}

// AuthsFor builds the strategy list for the given credentials. The key file
// is preferred when both are configured.
func AuthsFor(password, keyFile string) []Auth {
	var auths []Auth
	if keyFile != "" {
		auths = append(auths, KeyFileAuth{Path: keyFile})
	}
	if password != "" {
		auths = append(auths, PasswordAuth{Password: password})
	}
	return auths
}
