package transfer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/Lllllllleong/pagetransfer/internal/models"
)

const defaultFTPPort = 21

// ftpConn is the subset of *ftp.ServerConn the session needs.
type ftpConn interface {
	MakeDir(path string) error
	ChangeDir(path string) error
	CurrentDir() (string, error)
	Stor(path string, r io.Reader) error
	Quit() error
}

// FTPOpener dials an FTP (or explicit FTPS) server and logs in.
type FTPOpener struct {
	DialTimeout time.Duration
	ExplicitTLS bool
}

func (o FTPOpener) Open(ctx context.Context, target models.TransferTarget) (Session, error) {
	port := target.Port
	if port == 0 {
		port = defaultFTPPort
	}
	addr := net.JoinHostPort(target.Host, strconv.Itoa(port))

	opts := []ftp.DialOption{ftp.DialWithContext(ctx)}
	if o.DialTimeout > 0 {
		opts = append(opts, ftp.DialWithTimeout(o.DialTimeout))
	}
	if o.ExplicitTLS {
		opts = append(opts, ftp.DialWithExplicitTLS(&tls.Config{ServerName: target.Host}))
	}

	conn, err := ftp.Dial(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to %s: %v", ErrTransfer, addr, err)
	}
	if err := conn.Login(target.Username, target.Password); err != nil {
		if qerr := conn.Quit(); qerr != nil {
			slog.Warn("Failed to quit FTP connection after rejected login.", "addr", addr, "error", qerr)
		}
		return nil, fmt.Errorf("%w: login rejected by %s: %v", ErrTransfer, addr, err)
	}
	return &ftpSession{conn: conn, addr: addr}, nil
}

type ftpSession struct {
	conn ftpConn
	addr string
}

func (s *ftpSession) EnsureDirectories(ctx context.Context, dirs ...string) error {
	for _, dir := range dirs {
		for _, p := range parents(dir) {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrTransfer, err)
			}
			if err := s.conn.MakeDir(p); err != nil {
				if !s.dirExists(p) {
					return fmt.Errorf("%w: failed to create directory %s: %v", ErrTransfer, p, err)
				}
			}
		}
	}
	return nil
}

// dirExists probes a directory by changing into it and back.
func (s *ftpSession) dirExists(p string) bool {
	cwd, err := s.conn.CurrentDir()
	if err != nil {
		return false
	}
	if err := s.conn.ChangeDir(p); err != nil {
		return false
	}
	if err := s.conn.ChangeDir(cwd); err != nil {
		slog.Warn("Failed to return to working directory.", "addr", s.addr, "cwd", cwd, "error", err)
	}
	return true
}

func (s *ftpSession) Upload(ctx context.Context, data []byte, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrTransfer, err)
	}
	if err := s.conn.Stor(remotePath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: failed to upload %s: %v", ErrTransfer, remotePath, err)
	}
	return nil
}

func (s *ftpSession) Close() error {
	if err := s.conn.Quit(); err != nil {
		return fmt.Errorf("%w: failed to close connection to %s: %v", ErrTransfer, s.addr, err)
	}
	return nil
}
