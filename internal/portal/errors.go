package portal

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned by CheckAuth when no session is active.
var ErrUnauthenticated = errors.New("not authenticated")

// OpError is a failed backend operation. Err is the store or identity error.
type OpError struct {
	Op         string
	Collection string
	DocID      string
	Err        error
}

func (e *OpError) Error() string {
	switch {
	case e.DocID != "":
		return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Collection, e.DocID, e.Err)
	case e.Collection != "":
		return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }
