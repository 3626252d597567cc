package wayland

import "encoding/binary"

// Request opcodes and event codes for the handful of interfaces gloam
// speaks. The wire client handles framing; these are the per-interface
// message numbers from the protocol XML.
const (
	opCompositorCreateSurface = 0
	opCompositorCreateRegion  = 1

	opSurfaceDestroy        = 0
	opSurfaceAttach         = 1
	opSurfaceDamage         = 2
	opSurfaceSetInputRegion = 5
	opSurfaceCommit         = 6

	opRegionDestroy = 0

	opShmCreatePool       = 0
	opShmPoolCreateBuffer = 0
	opShmPoolDestroy      = 1

	opBufferDestroy = 0

	opOutputRelease = 0

	evOutputMode = 1
	evOutputDone = 2
	evOutputName = 4

	opLayerShellGetLayerSurface = 0

	opLayerSetSize               = 0
	opLayerSetAnchor             = 1
	opLayerSetExclusiveZone      = 2
	opLayerSetKeyboardInteractiv = 4
	opLayerAckConfigure          = 6
	opLayerDestroy               = 7

	evLayerConfigure = 0
	evLayerClosed    = 1

	opViewporterGetViewport = 1

	opViewportDestroy        = 0
	opViewportSetDestination = 2
)

const (
	layerOverlay            = 3
	keyboardInteractivNone  = 0
	shmFormatARGB8888       = 0
	outputModeFlagCurrent   = 0x1
	layerSurfaceNamespace   = "gloam"
	wlOutputNameMinVersion  = 4
	// release was added to wl_output in version 3; sending it on an older
	// binding is itself a protocol error.
	wlOutputReleaseSinceVersion = 3
	wlCompositorBindVersion     = 4
)

// parseConfigure unpacks a zwlr_layer_surface_v1.configure event:
// serial u32, width u32, height u32.
func parseConfigure(data []byte) (serial, width, height uint32, ok bool) {
	if len(data) < 12 {
		return 0, 0, 0, false
	}
	return binary.LittleEndian.Uint32(data[0:4]),
		binary.LittleEndian.Uint32(data[4:8]),
		binary.LittleEndian.Uint32(data[8:12]),
		true
}

// parseMode unpacks a wl_output.mode event: flags u32, width i32,
// height i32, refresh i32.
func parseMode(data []byte) (flags uint32, width, height int32, ok bool) {
	if len(data) < 16 {
		return 0, 0, 0, false
	}
	return binary.LittleEndian.Uint32(data[0:4]),
		int32(binary.LittleEndian.Uint32(data[4:8])),
		int32(binary.LittleEndian.Uint32(data[8:12])),
		true
}

// parseString unpacks a wire string argument: length u32 including the
// trailing NUL, bytes, padding to a 32-bit boundary.
func parseString(data []byte) (string, bool) {
	if len(data) < 4 {
		return "", false
	}
	n := binary.LittleEndian.Uint32(data[0:4])
	if n == 0 || len(data) < 4+int(n) {
		return "", false
	}
	return string(data[4 : 4+n-1]), true
}

// parseUint unpacks a single u32 argument.
func parseUint(data []byte) (uint32, bool) {
	if len(data) < 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(data[0:4]), true
}
