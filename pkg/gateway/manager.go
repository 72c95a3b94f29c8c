package gateway

import (
	"context"
	"github.com/pkg/errors"
	"k8s.io/component-base/version"
	"k8s.io/klog/v2"
	"os"
	"rflinkgateway/pkg/queue"
	"rflinkgateway/pkg/runtime"
	"rflinkgateway/pkg/storage"
	"rflinkgateway/pkg/utils/uuidutil"
	"sync"
	"time"
)

// Link is a worker owning one side of the gateway.
type Link interface {
	Run(ctx context.Context)
	Status() runtime.LinkStatus
}

type Option func(*Manager)

func WithName(name string) Option {
	return func(m *Manager) {
		if len(name) > 0 {
			m.name = name
		}
	}
}

func WithPrefix(prefix string) Option {
	return func(m *Manager) {
		m.prefix = prefix
	}
}

func WithLink(link Link) Option {
	return func(m *Manager) {
		m.links = append(m.links, link)
	}
}

// WithStore keeps the gateway id in store so it survives restarts.
func WithStore(store storage.Storage) Option {
	return func(m *Manager) {
		m.store = store
	}
}

func WithIgnoreFilter(filter *runtime.IgnoreFilter) Option {
	return func(m *Manager) {
		m.filter = filter
	}
}

// Manager runs the serial and mqtt links side by side. The two queues are the
// only state the links share.
type Manager struct {
	name        string
	prefix      string
	gatewayMeta runtime.ObjectMeta
	commands    *queue.Queue[runtime.DeviceCommand]
	events      *queue.Queue[runtime.DeviceEvent]
	filter      *runtime.IgnoreFilter
	store       storage.Storage
	links       []Link
	mu          sync.Mutex
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

func NewGatewayManager(commands *queue.Queue[runtime.DeviceCommand], events *queue.Queue[runtime.DeviceEvent], opts ...Option) *Manager {
	m := &Manager{
		name:     defaultName,
		commands: commands,
		events:   events,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Init() {
	m.gatewayMeta = runtime.ObjectMeta{
		Name:    m.name,
		ID:      uuidutil.UUID(),
		Version: version.Get().GitVersion,
		ModTime: time.Now(),
	}
	if m.store != nil {
		m.loadIdentity()
	}
	klog.V(1).InfoS("Initialized gateway", "gatewayId", m.gatewayMeta.ID, "links", len(m.links))
}

func (m *Manager) loadIdentity() {
	var stored runtime.ObjectMeta
	err := m.store.Get(storage.Gateway, &stored)
	if err != nil && os.IsNotExist(err) {
		klog.V(3).InfoS("Gateway information not exist,been created automatically", "gatewayId", m.gatewayMeta.ID)
		if err := m.store.Create(storage.Gateway, &m.gatewayMeta); err != nil {
			klog.V(2).InfoS("Failed to create gateway information", "err", err)
		}
		return
	} else if err != nil {
		klog.V(2).InfoS("Failed to load gateway information", "err", err)
		return
	}

	m.gatewayMeta.ID = stored.ID
	m.gatewayMeta.ModTime = stored.ModTime
	if stored.Name == m.gatewayMeta.Name && stored.Version == m.gatewayMeta.Version {
		return
	}
	if err := m.store.Update(storage.Gateway, stored.Version, &m.gatewayMeta); err != nil {
		klog.V(2).InfoS("Failed to update gateway information", "err", err)
	}
}

// Run starts every link in its own goroutine and returns.
func (m *Manager) Run(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	for _, link := range m.links {
		m.wg.Add(1)
		go func(link Link) {
			defer m.wg.Done()
			link.Run(ctx)
		}(link)
	}
}

// Shutdown stops the links and waits for them until ctx expires.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		klog.V(1).InfoS("Stopped gateway", "pendingEvents", m.events.Len(), "pendingCommands", m.commands.Len())
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "wait for links to stop")
	}
}

// SubmitCommands queues commands for the serial link, as if they were received on a write topic.
func (m *Manager) SubmitCommands(cmds ...runtime.DeviceCommand) {
	m.commands.Push(cmds...)
	klog.V(4).InfoS("Queued device commands", "count", len(cmds))
}

func (m *Manager) GetGatewayMeta() (*GatewayMeta, error) {
	meta := &GatewayMeta{
		ObjectMeta:      m.gatewayMeta,
		Prefix:          m.prefix,
		IgnoredDevices:  m.filter.List(),
		Links:           make([]runtime.LinkStatus, 0, len(m.links)),
		PendingEvents:   m.events.Len(),
		PendingCommands: m.commands.Len(),
	}
	for _, link := range m.links {
		meta.Links = append(meta.Links, link.Status())
	}
	return meta, nil
}
