//go:build windows

package device

import (
	"github.com/born-ml/augment/internal/backend/webgpu"
)

// platformTransferers returns the accelerator backends this build supports.
// A missing adapter or native library is not an error: the device is simply
// not registered.
func platformTransferers() []Transferer {
	gpu, err := webgpu.New()
	if err != nil {
		return nil
	}
	return []Transferer{gpu}
}
