package diskio

import "errors"

var (
	// ErrFileNotOpen is returned by ReadPage and WritePage on a gateway
	// whose file is not open (after Close); Sync and Close return nil then.
	ErrFileNotOpen = errors.New("diskio: file not open")
	// ErrShortIO is returned when a read or write touches fewer bytes
	// than a full page.
	ErrShortIO = errors.New("diskio: short read or write")
	// ErrBufferSize is returned when a caller's buffer does not match
	// the gateway's configured page size.
	ErrBufferSize = errors.New("diskio: buffer size does not match page size")
)
