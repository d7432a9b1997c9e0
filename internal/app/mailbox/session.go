package mailbox

import (
	"fmt"
	"mime"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/charset"
)

// Session is the folder-scoped view of an authenticated IMAP
// connection handed to pipeline operations. Identifiers returned by
// the search methods are UIDs valid within the selected folder for the
// lifetime of this session only.
type Session interface {
	// Select switches the session's active folder. Returns a
	// *FolderError if the folder does not exist.
	Select(folder string) error
	// SearchFrom returns the UIDs of messages whose From header
	// matches the given sender, in server-defined order.
	SearchFrom(sender string) ([]uint32, error)
	// SearchAll returns the UIDs of all messages in the active folder.
	SearchAll() ([]uint32, error)
	// FetchRaw downloads the full raw RFC 822 content of one message.
	// A nil result with nil error means the server returned no content
	// for the identifier.
	FetchRaw(uid uint32) ([]byte, error)
}

// Client extends Session with the authentication and teardown
// operations owned by the Connector.
type Client interface {
	Session
	Login(username, password string) error
	Logout() error
}

type Dialer interface {
	Dial(address string) (Client, error)
}

type DialerFunc func(address string) (Client, error)

func (f DialerFunc) Dial(address string) (Client, error) {
	return f(address)
}

// DialTLS connects to an IMAP server over implicit TLS. Used as the
// production Dialer; tests substitute fakes.
func DialTLS(address string) (Client, error) {
	c, err := imapclient.DialTLS(address, &imapclient.Options{
		WordDecoder: &mime.WordDecoder{CharsetReader: charset.Reader},
	})
	if err != nil {
		return nil, err
	}
	return &imapSession{client: c}, nil
}

// rawBodySection is shared between fetch and lookup so the section
// specifier matches when extracting the literal from the response.
var rawBodySection = &imap.FetchItemBodySection{Peek: true}

var fetchOptions = &imap.FetchOptions{
	UID:         true,
	BodySection: []*imap.FetchItemBodySection{rawBodySection},
}

type imapSession struct {
	client *imapclient.Client
}

func (s *imapSession) Login(username, password string) error {
	return s.client.Login(username, password).Wait()
}

func (s *imapSession) Logout() error {
	return s.client.Logout().Wait()
}

func (s *imapSession) Select(folder string) error {
	// The pipeline never mutates the mailbox, so flags are left intact.
	_, err := s.client.Select(folder, &imap.SelectOptions{ReadOnly: true}).Wait()
	if err != nil {
		return &FolderError{Folder: folder, Err: err}
	}
	return nil
}

func (s *imapSession) SearchFrom(sender string) ([]uint32, error) {
	criteria := &imap.SearchCriteria{
		Header: []imap.SearchCriteriaHeaderField{{Key: "From", Value: sender}},
	}
	return s.search(criteria)
}

func (s *imapSession) SearchAll() ([]uint32, error) {
	return s.search(&imap.SearchCriteria{})
}

func (s *imapSession) search(criteria *imap.SearchCriteria) ([]uint32, error) {
	data, err := s.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var uids []uint32
	for _, uid := range data.AllUIDs() {
		uids = append(uids, uint32(uid))
	}
	return uids, nil
}

func (s *imapSession) FetchRaw(uid uint32) ([]byte, error) {
	fetchCmd := s.client.Fetch(imap.UIDSetNum(imap.UID(uid)), fetchOptions)
	defer func() {
		_ = fetchCmd.Close()
	}()

	msg := fetchCmd.Next()
	if msg == nil {
		return nil, fmt.Errorf("message with UID %d not found", uid)
	}

	buf, err := msg.Collect()
	if err != nil {
		return nil, fmt.Errorf("collect message data: %w", err)
	}

	return buf.FindBodySection(rawBodySection), nil
}
