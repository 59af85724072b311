package vector

import (
	"io"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// HeaderSize is the number of leading bytes read into OpenInfo.Header.
const HeaderSize = 1024

// OpenInfo describes one open request. It is owned by the caller and is only
// valid for the duration of a single Open call.
type OpenInfo struct {
	Path   string
	Access Access
	// File is nil when Path does not name a readable regular file.
	File afero.File
	// Header holds up to HeaderSize bytes from the start of File.
	Header []byte
	Fs     afero.Fs
}

// NewOpenInfo stats and opens path on fs and reads its header. It never
// fails: a missing or unreadable path yields an OpenInfo with a nil File so
// drivers that work on non-file targets can still be probed.
func NewOpenInfo(fs afero.Fs, path string, access Access) *OpenInfo {
	info := &OpenInfo{Path: path, Access: access, Fs: fs}

	st, err := fs.Stat(path)
	if err != nil || st.IsDir() {
		return info
	}

	f, err := fs.Open(path)
	if err != nil {
		zap.L().Debug("vector: open for header failed", zap.String("path", path), zap.Error(err))
		return info
	}

	buf := make([]byte, HeaderSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		zap.L().Debug("vector: read header failed", zap.String("path", path), zap.Error(err))
		_ = f.Close()
		return info
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		return info
	}

	info.File = f
	info.Header = buf[:n]
	return info
}

// Close releases the file handle, if any.
func (o *OpenInfo) Close() error {
	if o.File == nil {
		return nil
	}
	err := o.File.Close()
	o.File = nil
	return err
}
