package sdv

import "errors"

var (
	ErrInvalidParameter  = errors.New("sdv: invalid parameter")
	ErrNoSuchElement     = errors.New("sdv: no such element")
	ErrCannotExceedLimit = errors.New("sdv: cannot exceed limit")
	ErrParsing           = errors.New("sdv: parsing error")
	ErrMergeUnresolvable = errors.New("sdv: merge cannot be resolved")
)
