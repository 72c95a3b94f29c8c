package gateway

import (
	"context"
	"encoding/json"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"rflinkgateway/pkg/queue"
	"rflinkgateway/pkg/runtime"
	"rflinkgateway/pkg/storage"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeLink struct {
	name string
	mu   sync.Mutex
	runs int
	stop chan struct{}
}

func (l *fakeLink) Run(ctx context.Context) {
	l.mu.Lock()
	l.runs++
	l.mu.Unlock()
	<-ctx.Done()
	close(l.stop)
}

func (l *fakeLink) Status() runtime.LinkStatus {
	return runtime.LinkStatus{Name: l.name, State: runtime.Connected.String()}
}

func newTestManager(links ...Link) (*Manager, *queue.Queue[runtime.DeviceCommand]) {
	commands := queue.New[runtime.DeviceCommand]()
	opts := []Option{WithName("attic"), WithPrefix("rflink"), WithIgnoreFilter(runtime.NewIgnoreFilter("Oregon", "HUMI/1234"))}
	for _, l := range links {
		opts = append(opts, WithLink(l))
	}
	m := NewGatewayManager(commands, queue.New[runtime.DeviceEvent](), opts...)
	m.Init()
	return m, commands
}

func newTestRouter(m *Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	InstallHandler(router.Group("/api/v1"), m)
	return router
}

func serve(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestManagerRunAndShutdown(t *testing.T) {
	serial := &fakeLink{name: "serial", stop: make(chan struct{})}
	mqtt := &fakeLink{name: "mqtt", stop: make(chan struct{})}
	m, _ := newTestManager(serial, mqtt)

	m.Run(context.Background())
	m.Run(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))
	<-serial.stop
	<-mqtt.stop
	assert.Equal(t, 1, serial.runs)
	assert.Equal(t, 1, mqtt.runs)
}

func TestGetGatewayMeta(t *testing.T) {
	m, commands := newTestManager(&fakeLink{name: "serial"}, &fakeLink{name: "mqtt"})
	commands.Push(runtime.DeviceCommand{Kind: runtime.SpecialControl, Payload: "PING"})

	w := serve(newTestRouter(m), http.MethodGet, "/api/v1/gatewayMeta", "")
	require.Equal(t, http.StatusOK, w.Code)

	var meta GatewayMeta
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &meta))
	assert.Equal(t, "attic", meta.Name)
	assert.Len(t, meta.ID, 32)
	assert.Equal(t, meta.Version, w.Header().Get("ETag"))
	assert.Equal(t, "rflink", meta.Prefix)
	assert.Equal(t, []string{"HUMI/1234", "Oregon"}, meta.IgnoredDevices)
	assert.Equal(t, 1, meta.PendingCommands)
	require.Len(t, meta.Links, 2)
	assert.Equal(t, "serial", meta.Links[0].Name)
	assert.Equal(t, "connected", meta.Links[1].State)
}

func TestPostCommands(t *testing.T) {
	m, commands := newTestManager()
	body := `{"commands":[
		{"family":"HUMI","deviceId":"1234","parameter":"TEMP","payload":5.5},
		{"kind":"special","payload":"PING"}
	]}`

	w := serve(newTestRouter(m), http.MethodPost, "/api/v1/commands", body)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"accepted":2}`, w.Body.String())

	require.Equal(t, 2, commands.Len())
	first, _ := commands.TryPop()
	assert.Equal(t, runtime.DeviceCommand{Family: "HUMI", DeviceID: "1234", Parameter: "TEMP", Payload: "5.5"}, first)
	second, _ := commands.TryPop()
	assert.Equal(t, runtime.DeviceCommand{Kind: runtime.SpecialControl, Payload: "PING"}, second)
}

func TestPostCommandsRejectsWholeRequest(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		codes []int
	}{
		{"malformed json", `{"commands":`, []int{10001}},
		{"no commands", `{"commands":[]}`, []int{10002}},
		{"unknown field", `{"commands":[{"family":"HUMI","deviceId":"1","parameter":"TEMP","colour":"red"}]}`, []int{10003}},
		{"unknown kind", `{"commands":[{"kind":"broadcast","payload":"PING"}]}`, []int{10004}},
		{"special with address", `{"commands":[{"kind":"special","family":"HUMI","payload":"PING"}]}`, []int{10004}},
		{"missing fields", `{"commands":[{"family":"HUMI","payload":"1"},{"kind":"special","payload":"PING"}]}`, []int{10004, 10004}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, commands := newTestManager()
			w := serve(newTestRouter(m), http.MethodPost, "/api/v1/commands", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.True(t, commands.Empty())

			var got struct {
				Errors []struct {
					Code int `json:"code"`
				} `json:"errors"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			var codes []int
			for _, e := range got.Errors {
				codes = append(codes, e.Code)
			}
			assert.Equal(t, tt.codes, codes)
		})
	}
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512B", formatBytes(512))
	assert.Equal(t, "1.00KiB", formatBytes(1024))
	assert.Equal(t, "1.50MiB", formatBytes(1536*1024))
	assert.Equal(t, "12.50%", formatPercent(12.5))
}

func TestGatewayIdSurvivesRestart(t *testing.T) {
	store, err := storage.NewFsClient(t.TempDir())
	require.NoError(t, err)

	newManager := func(name string) *Manager {
		m := NewGatewayManager(queue.New[runtime.DeviceCommand](), queue.New[runtime.DeviceEvent](), WithName(name), WithStore(store))
		m.Init()
		return m
	}
	first, err := newManager("attic").GetGatewayMeta()
	require.NoError(t, err)
	second, err := newManager("cellar").GetGatewayMeta()
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "cellar", second.Name)

	var stored runtime.ObjectMeta
	require.NoError(t, store.Get(storage.Gateway, &stored))
	assert.Equal(t, "cellar", stored.Name)
	assert.Equal(t, first.ID, stored.ID)
}
