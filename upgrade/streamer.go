package upgrade

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Streamer reads a WPK (or custom file) in fixed-size chunks for the "write"
// step, per spec.md §4.4. It is single-use and sequential: NextChunk must be
// called to exhaustion (a zero-length, nil-error result) or Close must be
// called explicitly to release the file handle early.
type Streamer struct {
	file       *os.File
	chunkSize  int
	remoteFile string
	buf        []byte
	closed     bool
}

// NewStreamer opens localPath for binary reading and prepares chunked reads
// of chunkSize bytes, reporting remoteFile as the filename the agent should
// see.
func NewStreamer(localPath, remoteFile string, chunkSize int) (*Streamer, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("upgrade: open wpk %q: %w", localPath, err)
	}
	return &Streamer{
		file:       f,
		chunkSize:  chunkSize,
		remoteFile: remoteFile,
		buf:        make([]byte, chunkSize),
	}, nil
}

// RemotePathFor computes the local path and remote filename for a request's
// task, per spec.md §4.4: Standard reads from
// <wpk_repository_path>/<wpk_file> and sends it under wpk_file; Custom reads
// from file_path and sends it under its basename.
func RemotePathFor(cfg Config, task TaskInfo) (localPath, remoteFile string) {
	if task.Standard != nil {
		return filepath.Join(cfg.WpkRepositoryPath, task.Standard.WpkFile), task.Standard.WpkFile
	}
	return task.Custom.FilePath, filepath.Base(task.Custom.FilePath)
}

// RemoteFile is the filename transmitted in the wire protocol.
func (s *Streamer) RemoteFile() string { return s.remoteFile }

// NextChunk reads up to chunkSize bytes. A zero-length slice with a nil
// error signals end of file; the caller should stop calling NextChunk at
// that point (the streamer has already closed the file handle).
func (s *Streamer) NextChunk() ([]byte, error) {
	if s.closed {
		return nil, nil
	}
	n, err := s.file.Read(s.buf)
	if n == 0 || err == io.EOF {
		_ = s.Close()
		return nil, nil
	}
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("upgrade: read wpk chunk: %w", err)
	}
	return s.buf[:n], nil
}

// Close releases the file handle. Safe to call more than once and after
// NextChunk has already closed it on EOF.
func (s *Streamer) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.file.Close()
}
