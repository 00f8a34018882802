package ltx

import (
	"net"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource, testlerin beacon paketlerini elle beslemesini sağlayan
// PacketSource gerçeklemesidir.
type fakeSource struct {
	ch        chan fakePacket
	closed    chan struct{}
	closeOnce sync.Once
}

type fakePacket struct {
	payload []byte
	src     *net.UDPAddr
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		ch:     make(chan fakePacket, 16),
		closed: make(chan struct{}),
	}
}

func (s *fakeSource) push(payload []byte, src *net.UDPAddr) {
	s.ch <- fakePacket{payload: payload, src: src}
}

func (s *fakeSource) ReadPacket(deadline time.Time) ([]byte, *net.UDPAddr, error) {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	select {
	case p := <-s.ch:
		return p.payload, p.src, nil
	case <-s.closed:
		return nil, nil, net.ErrClosed
	case <-timer.C:
		return nil, nil, os.ErrDeadlineExceeded
	}
}

func (s *fakeSource) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

// startResponder, probe komutlarına yanıt veren sahte bir top soketi açar.
func startResponder(t *testing.T) *net.UDPAddr {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	go func() {
		buf := make([]byte, 256)
		for {
			n, src, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			_ = n
			conn.WriteToUDP([]byte{0x01}, src)
		}
	}()

	return conn.LocalAddr().(*net.UDPAddr)
}

func newTestDiscovery(src PacketSource, extra ...Option) *Discovery {
	opts := append([]Option{
		WithPacketSource(src),
		WithReceiveTimeout(50 * time.Millisecond),
		WithSweepInterval(80 * time.Millisecond),
		WithLivenessTimeout(400 * time.Millisecond),
	}, extra...)
	return NewDiscovery(opts...)
}

func TestDiscoveryRegistersVerifiedDevice(t *testing.T) {
	src := newFakeSource()
	ball := startResponder(t)

	disc := newTestDiscovery(src)
	require.NoError(t, disc.Start())
	defer disc.Stop()

	src.push(beaconPayload(0x02, [2]byte{0x12, 0x34}), ball)

	require.Eventually(t, func() bool {
		_, ok := disc.Snapshot()
		return ok
	}, 2*time.Second, 20*time.Millisecond, "doğrulanan top kayda girmeli")

	rec, ok := disc.Snapshot()
	require.True(t, ok)
	assert.Equal(t, ball.IP.String(), rec.Addr)
	assert.Equal(t, byte(0x02), rec.Status)
	assert.Equal(t, [2]byte{0x12, 0x34}, rec.Timestamp)
	assert.WithinDuration(t, time.Now(), rec.LastSeen, time.Second)
}

func TestDiscoverySnapshotIsCopy(t *testing.T) {
	src := newFakeSource()
	ball := startResponder(t)

	disc := newTestDiscovery(src)
	require.NoError(t, disc.Start())
	defer disc.Stop()

	src.push(beaconPayload(0x01, [2]byte{0xaa, 0xbb}), ball)
	require.Eventually(t, func() bool {
		_, ok := disc.Snapshot()
		return ok
	}, 2*time.Second, 20*time.Millisecond)

	a, _ := disc.Snapshot()
	a.Raw[0] = 0xff
	b, _ := disc.Snapshot()
	assert.NotEqual(t, a.Raw[0], b.Raw[0], "anlık görüntü bağımsız kopya olmalı")
}

func TestDiscoveryUpdatesOnEveryBeacon(t *testing.T) {
	src := newFakeSource()
	ball := startResponder(t)

	disc := newTestDiscovery(src)
	require.NoError(t, disc.Start())
	defer disc.Stop()

	src.push(beaconPayload(0x01, [2]byte{0x01, 0x01}), ball)
	require.Eventually(t, func() bool {
		rec, ok := disc.Snapshot()
		return ok && rec.Timestamp == [2]byte{0x01, 0x01}
	}, 2*time.Second, 20*time.Millisecond)

	// Kayıtlı top için probe tekrarlanmaz; yeni beacon doğrudan günceller.
	src.push(beaconPayload(0x03, [2]byte{0x02, 0x02}), ball)
	require.Eventually(t, func() bool {
		rec, ok := disc.Snapshot()
		return ok && rec.Timestamp == [2]byte{0x02, 0x02} && rec.Status == 0x03
	}, 2*time.Second, 20*time.Millisecond)
}

func TestDiscoveryIgnoresUnverifiedDevice(t *testing.T) {
	src := newFakeSource()

	// Yanıt vermeyen bir adres: soket açılıp hemen kapatılır.
	dead, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	deadAddr := dead.LocalAddr().(*net.UDPAddr)
	dead.Close()

	disc := newTestDiscovery(src)
	require.NoError(t, disc.Start())
	defer disc.Stop()

	src.push(beaconPayload(0x01, [2]byte{0x00, 0x01}), deadAddr)

	time.Sleep(300 * time.Millisecond)
	_, ok := disc.Snapshot()
	assert.False(t, ok, "probe yanıtsız kaldığında top kayda girmemeli")
}

func TestDiscoveryEvictsSilentDevice(t *testing.T) {
	src := newFakeSource()
	ball := startResponder(t)

	lost := make(chan DeviceRecord, 1)
	disc := newTestDiscovery(src, WithDeviceLostFunc(func(rec DeviceRecord) {
		lost <- rec
	}))
	require.NoError(t, disc.Start())
	defer disc.Stop()

	src.push(beaconPayload(0x01, [2]byte{0x09, 0x09}), ball)
	require.Eventually(t, func() bool {
		_, ok := disc.Snapshot()
		return ok
	}, 2*time.Second, 20*time.Millisecond)

	// Beacon kesilir; canlılık taraması kaydı düşürmeli.
	require.Eventually(t, func() bool {
		_, ok := disc.Snapshot()
		return !ok
	}, 3*time.Second, 50*time.Millisecond, "sessiz top düşürülmeli")

	select {
	case rec := <-lost:
		assert.Equal(t, ball.IP.String(), rec.Addr)
	case <-time.After(time.Second):
		t.Fatal("kayıp callback'i çağrılmadı")
	}
}

func TestDiscoveryStartStop(t *testing.T) {
	src := newFakeSource()
	disc := newTestDiscovery(src)

	require.NoError(t, disc.Start())
	assert.ErrorIs(t, disc.Start(), ErrDiscoveryRunning)

	require.NoError(t, disc.Stop())
	assert.ErrorIs(t, disc.Stop(), ErrDiscoveryStopped)
}

func TestDiscoverySnapshotEmpty(t *testing.T) {
	disc := NewDiscovery(WithPacketSource(newFakeSource()))
	_, ok := disc.Snapshot()
	assert.False(t, ok)
	assert.Empty(t, disc.Devices())
}
