package transport

import (
	"fmt"
	"runtime/debug"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/api"
)

// Recovery returns middleware that catches panics in later stages and the
// handler and converts them to internal errors. The panic value and stack
// are kept as the cause for server-side reporting only.
func Recovery() Middleware {
	return func(next Handler) Handler {
		return func(x *Exchange) (resp *Response, retErr error) {
			defer func() {
				if r := recover(); r != nil {
					resp = nil
					retErr = api.NewInternalError(fmt.Errorf("panic: %v\n%s", r, debug.Stack()))
				}
			}()
			return next(x)
		}
	}
}
