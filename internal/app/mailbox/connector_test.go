package mailbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avirtanen/trainmail/internal/app/config"
)

type fakeClient struct {
	loginErr    error
	logoutErr   error
	loginCalls  int
	logoutCalls int
}

func (c *fakeClient) Login(_, _ string) error {
	c.loginCalls++
	return c.loginErr
}

func (c *fakeClient) Logout() error {
	c.logoutCalls++
	return c.logoutErr
}

func (c *fakeClient) Select(string) error                 { return nil }
func (c *fakeClient) SearchFrom(string) ([]uint32, error) { return nil, nil }
func (c *fakeClient) SearchAll() ([]uint32, error)        { return nil, nil }
func (c *fakeClient) FetchRaw(uint32) ([]byte, error)     { return nil, nil }

func newTestConnector(client *fakeClient, dialErr error) *Connector {
	dialer := DialerFunc(func(string) (Client, error) {
		if dialErr != nil {
			return nil, dialErr
		}
		return client, nil
	})

	cfg := config.Mailbox{
		Host:     "imap.example.com",
		Port:     "993",
		Login:    "user@example.com",
		Password: "secret",
	}

	return NewConnector(cfg, dialer, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestWithSessionRunsOperationAndLogsOut(t *testing.T) {
	client := &fakeClient{}
	connector := newTestConnector(client, nil)

	var opCalls int
	err := connector.WithSession(context.Background(), func(session Session) error {
		opCalls++
		assert.NotNil(t, session)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, opCalls)
	assert.Equal(t, 1, client.loginCalls)
	assert.Equal(t, 1, client.logoutCalls, "session must be torn down exactly once")
}

func TestWithSessionLogsOutWhenOperationFails(t *testing.T) {
	client := &fakeClient{}
	connector := newTestConnector(client, nil)

	opErr := errors.New("operation blew up")
	err := connector.WithSession(context.Background(), func(Session) error {
		return opErr
	})

	require.ErrorIs(t, err, opErr)
	assert.Equal(t, 1, client.logoutCalls, "teardown must run on the failure path too")
}

func TestWithSessionDialFailure(t *testing.T) {
	connector := newTestConnector(nil, errors.New("connection refused"))

	var opCalled bool
	err := connector.WithSession(context.Background(), func(Session) error {
		opCalled = true
		return nil
	})

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.False(t, opCalled, "operation must not run without a session")
}

func TestWithSessionLoginFailure(t *testing.T) {
	client := &fakeClient{loginErr: errors.New("invalid credentials")}
	connector := newTestConnector(client, nil)

	var opCalled bool
	err := connector.WithSession(context.Background(), func(Session) error {
		opCalled = true
		return nil
	})

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.False(t, opCalled)
	assert.Equal(t, 1, client.logoutCalls, "dialed connection must still be torn down")
}

func TestWithSessionLogoutFailureDoesNotMaskOutcome(t *testing.T) {
	client := &fakeClient{logoutErr: errors.New("connection reset")}
	connector := newTestConnector(client, nil)

	err := connector.WithSession(context.Background(), func(Session) error {
		return nil
	})

	assert.NoError(t, err, "teardown failure must not replace a successful outcome")
	assert.Equal(t, 1, client.logoutCalls)
}
