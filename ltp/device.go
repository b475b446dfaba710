package ltp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const DeviceCPU = "cpu"

var (
	ErrUnsupportedDevice = errors.New("unsupported device")
	ErrInvalidDevice     = errors.New("invalid device")
)

var knownDevices = map[string]bool{
	"cpu": true, "cuda": true, "mps": true, "xpu": true, "npu": true, "hip": true,
}

// Device is a compute device such as "cpu" or "cuda:1".
type Device struct {
	Kind  string
	Index int
}

func (d Device) String() string {
	if d.Index < 0 {
		return d.Kind
	}
	return d.Kind + ":" + strconv.Itoa(d.Index)
}

// ParseDevice parses kind[:index]; a missing index is -1.
func ParseDevice(s string) (Device, error) {
	kind, index, hasIndex := strings.Cut(strings.ToLower(strings.TrimSpace(s)), ":")
	if !knownDevices[kind] {
		return Device{}, fmt.Errorf("%w: %q", ErrInvalidDevice, s)
	}
	d := Device{Kind: kind, Index: -1}
	if hasIndex {
		idx, err := strconv.Atoi(index)
		if err != nil || idx < 0 {
			return Device{}, fmt.Errorf("%w: bad index in %q", ErrInvalidDevice, s)
		}
		d.Index = idx
	}
	return d, nil
}
