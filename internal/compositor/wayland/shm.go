package wayland

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/gloam-wm/gloam/internal/compositor"
	"github.com/gloam-wm/gloam/internal/render"
)

// buffer is one wl_buffer backed by a sealed memfd mapping. Each buffer
// gets a dedicated single-buffer pool; the pool object is destroyed as soon
// as the buffer exists, which is the usual pattern for one-shot content.
type buffer struct {
	sess *Session
	id   uint32
	data []byte
}

// CreateBuffer implements compositor.Session.
func (s *Session) CreateBuffer(width, height int) (compositor.Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("wayland: bad buffer size %dx%d", width, height)
	}
	stride := width * render.BytesPerPixel
	size := stride * height

	fd, err := unix.MemfdCreate("gloam-buffer", unix.MFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("memfd_create: %w", err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("sizing shm buffer: %w", err)
	}
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("mapping shm buffer: %w", err)
	}

	// create_pool carries the fd out of band; uintptr keeps it out of the
	// message body.
	poolID := s.display.AllocateID()
	if err := s.display.SendRequestWithFDs(s.shmID, opShmCreatePool,
		[]int{fd}, poolID, uintptr(fd), int32(size)); err != nil {
		_ = unix.Munmap(data)
		_ = unix.Close(fd)
		return nil, fmt.Errorf("creating shm pool: %w", err)
	}

	bufferID := s.display.AllocateID()
	s.send(poolID, opShmPoolCreateBuffer,
		bufferID, int32(0), int32(width), int32(height), int32(stride), uint32(shmFormatARGB8888))
	s.send(poolID, opShmPoolDestroy)
	_ = unix.Close(fd)

	return &buffer{sess: s, id: bufferID, data: data}, nil
}

// Bytes implements compositor.Buffer.
func (b *buffer) Bytes() []byte {
	return b.data
}

// Destroy implements compositor.Buffer.
func (b *buffer) Destroy() {
	if b.data == nil {
		return
	}
	b.sess.send(b.id, opBufferDestroy)
	_ = unix.Munmap(b.data)
	b.data = nil
}
