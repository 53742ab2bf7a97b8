//go:build arm64

package boot

import "pikernel/internal/hal"

func init() {
	wireIdle = hal.WaitForInterrupt
}
