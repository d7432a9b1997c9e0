package mailbox

import "fmt"

// ConnectionError indicates that the IMAP transport handshake or
// authentication failed. It is fatal for the enclosing request.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("mailbox connection failed: %s", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// FolderError indicates that the configured folder could not be
// selected, usually because it does not exist on the server.
type FolderError struct {
	Folder string
	Err    error
}

func (e *FolderError) Error() string {
	return fmt.Sprintf("select folder %q: %s", e.Folder, e.Err)
}

func (e *FolderError) Unwrap() error { return e.Err }
