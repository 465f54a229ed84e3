package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"carviz/internal/catalog"
	"carviz/internal/chart"
	apierrors "carviz/internal/errors"
	"carviz/internal/middleware"
	"carviz/internal/services"
	"carviz/internal/shared/testutil"
	"carviz/pkg/contracts/domain"
	"carviz/pkg/contracts/events"
)

type mockEvaluator struct {
	mock.Mock
}

func (m *mockEvaluator) View(ctx context.Context, source string, req services.ViewRequest) (*services.DashboardView, error) {
	args := m.Called(ctx, source, req)
	view, _ := args.Get(0).(*services.DashboardView)
	return view, args.Error(1)
}

func (m *mockEvaluator) Options(ctx context.Context, spec domain.FilterSpec) (*services.DashboardOptions, error) {
	args := m.Called(ctx, spec)
	opts, _ := args.Get(0).(*services.DashboardOptions)
	return opts, args.Error(1)
}

// reply is the decoded form of an outbound message.
type reply struct {
	ID      string             `json:"id"`
	Type    events.MessageType `json:"type"`
	TraceID string             `json:"trace_id"`
	Data    json.RawMessage    `json:"data"`
}

func decodeReply(t *testing.T, data []byte) reply {
	t.Helper()
	var r reply
	require.NoError(t, json.Unmarshal(data, &r))
	return r
}

func decodeError(t *testing.T, r reply) events.ErrorData {
	t.Helper()
	require.Equal(t, events.MessageTypeError, r.Type)
	var e events.ErrorData
	require.NoError(t, json.Unmarshal(r.Data, &e))
	return e
}

func newTestClient(t *testing.T, eval Evaluator, conn *mockConnection) *Client {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(nil, logger)
	validator := middleware.NewValidationMiddleware(logger, nil, 0)
	return NewClient(hub, conn, eval, validator, DefaultSettings(), "trace-1", logger)
}

func roundTrip(t *testing.T, c *Client, payload string) reply {
	t.Helper()
	msg := c.handle(context.Background(), []byte(payload))
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	return decodeReply(t, data)
}

func TestClient_HandleView(t *testing.T) {
	eval := &mockEvaluator{}
	eval.On("View", mock.Anything, Source, services.ViewRequest{
		Filter: domain.FilterSpec{Type: "Sedan", Models: []string{"Sedan One"}},
		Chart:  domain.ChartConfig{Type: domain.ChartLine, Price: domain.PriceInvoice},
	}).Return(&services.DashboardView{Count: 1}, nil)

	c := newTestClient(t, eval, newMockConnection())
	r := roundTrip(t, c, `{"id":"42","type":"view","filter":{"type":"Sedan","models":["Sedan One"]},"chart":{"type":"line","price":"Invoice"}}`)

	assert.Equal(t, "42", r.ID)
	assert.Equal(t, events.MessageTypeView, r.Type)
	assert.Equal(t, "trace-1", r.TraceID)

	var view services.DashboardView
	require.NoError(t, json.Unmarshal(r.Data, &view))
	assert.Equal(t, 1, view.Count)
	eval.AssertExpectations(t)
}

func TestClient_HandleViewAppliesChartDefaults(t *testing.T) {
	eval := &mockEvaluator{}
	eval.On("View", mock.Anything, Source, services.ViewRequest{
		Chart: domain.DefaultChartConfig(),
	}).Return(&services.DashboardView{}, nil)

	c := newTestClient(t, eval, newMockConnection())
	r := roundTrip(t, c, `{"filter":{}}`)

	assert.Equal(t, events.MessageTypeView, r.Type)
	eval.AssertExpectations(t)
}

func TestClient_HandleOptions(t *testing.T) {
	eval := &mockEvaluator{}
	eval.On("Options", mock.Anything, domain.FilterSpec{Make: "Acme"}).
		Return(&services.DashboardOptions{Defaults: domain.DefaultChartConfig()}, nil)

	c := newTestClient(t, eval, newMockConnection())
	r := roundTrip(t, c, `{"id":"o1","type":"options","filter":{"make":"Acme"}}`)

	assert.Equal(t, "o1", r.ID)
	assert.Equal(t, events.MessageTypeOptions, r.Type)
	eval.AssertExpectations(t)
}

func TestClient_HandleHeartbeat(t *testing.T) {
	c := newTestClient(t, &mockEvaluator{}, newMockConnection())
	r := roundTrip(t, c, `{"id":"h","type":"heartbeat"}`)

	assert.Equal(t, events.MessageTypeHeartbeat, r.Type)
	assert.JSONEq(t, `{"clients":0}`, string(r.Data))
}

func TestClient_HandleErrors(t *testing.T) {
	loadErr := &catalog.LoadError{Source: "cars.csv", Err: catalog.ErrMissingColumn, Column: "MSRP"}

	tests := []struct {
		name      string
		payload   string
		evalErr   error
		wantCode  string
		wantRetry bool
	}{
		{name: "malformed json", payload: `{"type":`, wantCode: apierrors.CodeInvalidRequest},
		{name: "unknown type", payload: `{"type":"subscribe"}`, wantCode: apierrors.CodeValidationFailed},
		{name: "unknown chart", payload: `{"chart":{"type":"pie","price":"MSRP"}}`, wantCode: apierrors.CodeValidationFailed},
		{name: "inverted range", payload: `{"filter":{"msrp":{"min":50000,"max":10000}}}`, wantCode: apierrors.CodeValidationFailed},
		{name: "dataset unavailable", payload: `{}`, evalErr: loadErr, wantCode: apierrors.CodeDatasetUnavailable, wantRetry: true},
		{name: "service validation", payload: `{}`, evalErr: chart.ErrInvalidConfig, wantCode: apierrors.CodeValidationFailed},
		{name: "internal", payload: `{}`, evalErr: errors.New("boom"), wantCode: apierrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval := &mockEvaluator{}
			eval.On("View", mock.Anything, Source, mock.Anything).Return(nil, tt.evalErr)

			c := newTestClient(t, eval, newMockConnection())
			e := decodeError(t, roundTrip(t, c, tt.payload))

			assert.Equal(t, tt.wantCode, e.Code)
			assert.Equal(t, tt.wantRetry, e.Retry)
			assert.NotEmpty(t, e.Message)
		})
	}
}

func TestClient_ReadPumpAnswersEachMessageInOrder(t *testing.T) {
	eval := &mockEvaluator{}
	eval.On("View", mock.Anything, Source, mock.Anything).Return(&services.DashboardView{Count: 3}, nil)

	conn := newMockConnection(
		`{"id":"1","type":"view"}`,
		`{"id":"2","type":"heartbeat"}`,
		`{"id":"3","type":"view"}`,
	)
	c := newTestClient(t, eval, conn)
	c.hub.Start()
	defer c.hub.Stop()

	require.True(t, c.hub.Register(c))
	c.ReadPump(context.Background())

	var got []reply
	for data := range c.send {
		got = append(got, decodeReply(t, data))
	}

	require.Len(t, got, 4)
	assert.Equal(t, events.MessageTypeConnection, got[0].Type)
	assert.Equal(t, []string{"1", "2", "3"}, []string{got[1].ID, got[2].ID, got[3].ID})
	assert.Equal(t, events.MessageTypeHeartbeat, got[2].Type)
	eval.AssertNumberOfCalls(t, "View", 2)

	assert.True(t, conn.isClosed())
	assert.Equal(t, DefaultSettings().MaxMessageSize, conn.readLimit)
	assert.NotNil(t, conn.pong)
}

func TestClient_WritePumpClosesWhenSendCloses(t *testing.T) {
	conn := newMockConnection()
	c := newTestClient(t, &mockEvaluator{}, conn)

	c.send <- []byte(`{"type":"view"}`)
	close(c.send)
	c.WritePump()

	require.Len(t, conn.written, 2)
	assert.Equal(t, `{"type":"view"}`, string(conn.written[0].Data))
	assert.True(t, conn.isClosed())
}

func TestClient_QueueStopsAfterWriterExits(t *testing.T) {
	conn := newMockConnection()
	c := newTestClient(t, &mockEvaluator{}, conn)
	conn.Close()

	c.send <- []byte(`{"type":"view"}`)
	c.WritePump()

	assert.False(t, c.queue(events.NewMessage("", events.MessageTypeHeartbeat, "", nil)))
}
