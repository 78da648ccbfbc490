package dispatch

import (
	"github.com/spf13/cast"
)

// StringArguments converts decoded wire arguments to the string map the
// renderer works with. Scalars are formatted; null becomes an empty string.
func StringArguments(raw map[string]any) (map[string]string, *Error) {
	args := make(map[string]string, len(raw))
	for k, v := range raw {
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, NewError(CodeInvalidParams, "argument %q must be a string: %v", k, err)
		}
		args[k] = s
	}
	return args, nil
}
