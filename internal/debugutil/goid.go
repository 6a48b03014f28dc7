// Package debugutil holds small runtime introspection helpers used to turn
// would-be deadlocks into fail-fast panics.
package debugutil

import (
	"bytes"
	"runtime"
	"strconv"
)

// GoID returns the numeric id of the calling goroutine, or -1 if it could
// not be parsed out of the runtime stack trace. It is only meant for
// best-effort self-relock detection, never for scheduling decisions.
func GoID() int64 {
	b := make([]byte, 64)
	b = b[:runtime.Stack(b, false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	i := bytes.IndexByte(b, ' ')
	if i < 0 {
		return -1
	}
	n, err := strconv.ParseInt(string(b[:i]), 10, 64)
	if err != nil {
		return -1
	}
	return n
}
