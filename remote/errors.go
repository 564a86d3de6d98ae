package remote

import "fmt"

// ConnectionError reports a failure to establish or authenticate the SSH
// session. It is raised once, at dial time; no retry is attempted here.
type ConnectionError struct {
	Addr string
	Err  string
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %s", e.Addr, e.Err)
}

// Returns true if an error is of type ConnectionError.
func IsConnectionError(err error) bool {
	if _, ok := err.(*ConnectionError); ok {
		return true
	}
	return false
}

// TransferError reports a failed upload, download or remote filesystem
// operation over SFTP.
type TransferError struct {
	Path string
	Err  string
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer %s: %s", e.Path, e.Err)
}

// Returns true if an error is of type TransferError.
func IsTransferError(err error) bool {
	if _, ok := err.(*TransferError); ok {
		return true
	}
	return false
}

// NotFoundError reports that an expected remote file does not exist. Log
// files of a job that has not started yet are the common case; callers are
// expected to retry later.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("remote file %s does not exist", e.Path)
}

// Returns true if an error is of type NotFoundError.
func IsNotFoundError(err error) bool {
	if _, ok := err.(*NotFoundError); ok {
		return true
	}
	return false
}
