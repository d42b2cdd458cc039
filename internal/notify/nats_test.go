package notify

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/freezer/internal/build"
	ferrors "git.home.luguber.info/inful/freezer/internal/foundation/errors"
)

type published struct {
	subject string
	msg     Message
}

type fakeConn struct {
	sent       []published
	flushed    int
	closed     bool
	publishErr error
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	c.sent = append(c.sent, published{subject: subject, msg: m})
	return nil
}

func (c *fakeConn) FlushTimeout(time.Duration) error { c.flushed++; return nil }
func (c *fakeConn) Close()                           { c.closed = true }

func TestNATSPublisher_Events(t *testing.T) {
	conn := &fakeConn{}
	p := NewNATSPublisher(conn, "freezer.builds")
	ctx := t.Context()

	require.NoError(t, p.BuildEvent(ctx, "b1", build.Event{Phase: build.PhaseScan, Message: "scanning routes"}))
	require.NoError(t, p.BuildEvent(ctx, "b1", build.Event{Phase: build.PhaseBuildPages, Message: "/about", Advance: 2, Total: 3}))
	require.NoError(t, p.BuildFinished(ctx, &build.BuildResult{
		BuildID: "b1",
		Status:  build.BuildStatusSuccess,
		Pages:   3,
		Report:  &build.Report{Revision: "abc123"},
	}))

	require.Len(t, conn.sent, 3)
	require.Equal(t, "freezer.builds.phase", conn.sent[0].subject)
	require.Equal(t, "scan", conn.sent[0].msg.Phase)

	require.Equal(t, "freezer.builds.page", conn.sent[1].subject)
	require.Equal(t, "/about", conn.sent[1].msg.Message)
	require.Equal(t, 2, conn.sent[1].msg.Done)
	require.Equal(t, 3, conn.sent[1].msg.Total)

	finished := conn.sent[2]
	require.Equal(t, "freezer.builds.finished", finished.subject)
	require.Equal(t, "success", finished.msg.Status)
	require.Equal(t, "abc123", finished.msg.Revision)
	require.Equal(t, "b1", finished.msg.BuildID)
	require.Equal(t, 1, conn.flushed)

	require.NoError(t, p.Close())
	require.True(t, conn.closed)
}

func TestNATSPublisher_FailedBuildCarriesError(t *testing.T) {
	conn := &fakeConn{}
	p := NewNATSPublisher(conn, "freezer.builds")

	require.NoError(t, p.BuildFinished(t.Context(), &build.BuildResult{
		BuildID: "b2",
		Status:  build.BuildStatusFailed,
		Err:     errors.New("render /broken: status 500"),
	}))
	require.Equal(t, "render /broken: status 500", conn.sent[0].msg.Error)
}

func TestNATSPublisher_PublishError(t *testing.T) {
	p := NewNATSPublisher(&fakeConn{publishErr: errors.New("disconnected")}, "freezer.builds")

	err := p.BuildEvent(t.Context(), "b3", build.Event{Phase: build.PhaseStart})
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNetwork))
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect("nats://127.0.0.1:1", "freezer.builds")
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNetwork))
}
