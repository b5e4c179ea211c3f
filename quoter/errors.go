package quoter

import "errors"

var (
	errEmptyHex = errors.New("empty hex value")
	errNotHex   = errors.New("not a hex value")
	errTooWide  = errors.New("value exceeds 256 bits")
)
