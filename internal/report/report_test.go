package report

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sioserver "github.com/zishang520/socket.io/v2/socket"

	"github.com/vk/gmtrain/internal/dataset"
	"github.com/vk/gmtrain/internal/model"
	"github.com/vk/gmtrain/internal/shape"
	"github.com/vk/gmtrain/internal/testutil"
)

func TestWriteDatasetSummary(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	var buf bytes.Buffer
	stats := []dataset.Stats{
		{Split: dataset.Train, Shape: shape.Of(1000, 1, 28, 28), Count: 1000, Min: 0, Max: 1, Mean: 0.13},
		{Split: dataset.Eval, Shape: shape.Of(200, 1, 28, 28), Count: 200, Min: 0, Max: 0.99, Mean: 0.12},
	}

	// --- Act ---
	err := WriteDatasetSummary(&buf, dataset.MNIST, stats...)

	// --- Assert ---
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Dataset mnist")
	assert.Contains(t, out, "SPLIT")
	assert.Contains(t, out, "(1000, 1, 28, 28)")
	assert.Contains(t, out, "(200, 1, 28, 28)")
	assert.Contains(t, out, "0.9900")
	assert.Contains(t, out, "0.1300")
}

func TestWriteParamCounts(t *testing.T) {
	t.Parallel()

	t.Run("without extras", func(t *testing.T) {
		var buf bytes.Buffer

		err := WriteParamCounts(&buf, model.VAE, model.ParamCounts{Encoder: 11, Decoder: 22, Total: 33})

		require.NoError(t, err)
		assert.Contains(t, buf.String(), "VAE")
		assert.Contains(t, buf.String(), "TOTAL PARAMS")
		assert.NotContains(t, buf.String(), "EXTRA PARAMS")
		assert.Contains(t, buf.String(), "33")
	})

	t.Run("with extras", func(t *testing.T) {
		var buf bytes.Buffer

		err := WriteParamCounts(&buf, model.VAMP, model.ParamCounts{Encoder: 1, Decoder: 2, Extras: 39200, Total: 39203})

		require.NoError(t, err)
		assert.Contains(t, buf.String(), "EXTRA PARAMS")
		assert.Contains(t, buf.String(), "39200")
	})
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestTables_ReportWriteErrors(t *testing.T) {
	t.Parallel()

	err := WriteParamCounts(failingWriter{}, model.AE, model.ParamCounts{})
	require.EqualError(t, err, "disk full")

	err = WriteDatasetSummary(failingWriter{}, dataset.MNIST)
	require.EqualError(t, err, "disk full")
}

func TestLogReporter(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	ctx, logs := testutil.LogContext(t)
	loss := 0.25

	// --- Act ---
	err := Log{}.Report(ctx, Event{Epoch: 3, TrainLoss: &loss, Checkpoint: "ckpt/epoch_3"})

	// --- Assert ---
	require.NoError(t, err)
	testutil.AssertLogged(t, logs.String(), `msg="Training progress."`, "epoch=3", "train_loss=0.25", "checkpoint=ckpt/epoch_3")
	assert.NotContains(t, logs.String(), "eval_loss")
}

type recordingReporter struct {
	events []Event
	err    error
	closed bool
}

func (r *recordingReporter) Report(_ context.Context, ev Event) error {
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingReporter) Close() error {
	r.closed = true
	return r.err
}

func TestMulti_FansOutAndJoinsErrors(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	ok := &recordingReporter{}
	bad := &recordingReporter{err: errors.New("offline")}
	m := Multi{ok, bad}

	// --- Act ---
	err := m.Report(context.Background(), Event{Epoch: 1})
	closeErr := m.Close()

	// --- Assert ---
	require.EqualError(t, err, "offline")
	require.EqualError(t, closeErr, "offline")
	assert.Len(t, ok.events, 1)
	assert.Len(t, bad.events, 1)
	assert.True(t, ok.closed)
	assert.True(t, bad.closed)
}

func TestEvent_Fields(t *testing.T) {
	t.Parallel()

	loss := 1.5
	f := Event{RunID: "r1", Epoch: 2, Step: 40, EvalLoss: &loss, Message: "eval"}.Fields()

	assert.Equal(t, map[string]any{"run_id": "r1", "epoch": 2, "step": 40, "eval_loss": 1.5, "message": "eval"}, f)
}

func TestDialSocketIO_Failures(t *testing.T) {
	t.Parallel()

	t.Run("invalid url", func(t *testing.T) {
		_, err := DialSocketIO(context.Background(), SocketIOOptions{URL: "not a url"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse URL")
	})

	t.Run("unreachable server", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		_, err := DialSocketIO(ctx, SocketIOOptions{URL: "http://127.0.0.1:1/socket.io/", Timeout: time.Second})

		require.Error(t, err)
	})
}

func TestSocketIO_EmitsProgressOnNamespace(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	received := make(chan any, 1)
	srv := sioserver.NewServer(nil, nil)
	srv.Of("/runs", nil).On("connection", func(clients ...any) {
		client := clients[0].(*sioserver.Socket)
		client.On(DefaultProgressEvent, func(args ...any) {
			if len(args) > 0 {
				received <- args[0]
			}
		})
	})
	mux := http.NewServeMux()
	mux.Handle("/socket.io/", srv.ServeHandler(nil))
	ts := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close(nil)
		ts.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	r, err := DialSocketIO(ctx, SocketIOOptions{URL: ts.URL + "/socket.io/", Namespace: "/runs", Timeout: 5 * time.Second})
	require.NoError(t, err)

	// --- Act ---
	loss := 0.125
	err = r.Report(ctx, Event{RunID: "run-1", Epoch: 3, TrainLoss: &loss})

	// --- Assert ---
	require.NoError(t, err)
	select {
	case payload := <-received:
		fields, ok := payload.(map[string]any)
		require.True(t, ok, "payload is %T", payload)
		assert.Equal(t, "run-1", fields["run_id"])
		assert.EqualValues(t, 3, fields["epoch"])
		assert.EqualValues(t, 0.125, fields["train_loss"])
	case <-ctx.Done():
		t.Fatal("no progress event received")
	}
	assert.NoError(t, r.Close())
}
