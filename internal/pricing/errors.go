package pricing

import "errors"

// ErrUnknownChannel indicates a channel name outside Channels.
var ErrUnknownChannel = errors.New("unknown price channel")
