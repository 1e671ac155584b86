// Released under an MIT license. See LICENSE.

package process_test

import (
	"testing"

	"github.com/michaelmacinnis/jobsh/internal/system/process"
	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name   string
		status unix.WaitStatus
		want   process.Status
	}{
		{"success", 0, process.Status{}},
		{"exit", 42 << 8, process.Status{Code: 42}},
		{"interrupt", unix.WaitStatus(unix.SIGINT), process.Status{Code: 130, Signal: unix.SIGINT}},
		{"kill", unix.WaitStatus(unix.SIGKILL), process.Status{Code: 137, Signal: unix.SIGKILL}},
		{
			"stop",
			unix.WaitStatus(int(unix.SIGTSTP)<<8 | 0x7f),
			process.Status{Code: 128 + int(unix.SIGTSTP), Signal: unix.SIGTSTP, Stopped: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, process.Decode(tt.status))
		})
	}
}
