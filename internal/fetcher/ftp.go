package fetcher

import (
	"context"
	"errors"
	"io"
	"net"
	"net/textproto"
	"net/url"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hts-classify/internal/resilience"
)

// FTPOptions configures the FTP fetcher.
type FTPOptions struct {
	Timeout time.Duration
	// User and Password default to anonymous login.
	User     string
	Password string
}

// ftpSession is the part of *ftp.ServerConn a download needs.
type ftpSession interface {
	Login(user, password string) error
	Retr(path string) (io.ReadCloser, error)
	Quit() error
}

type dialFunc func(ctx context.Context, addr string, timeout time.Duration) (ftpSession, error)

// FTPFetcher downloads reference tables over FTP. Like HTTPFetcher it does
// not retry; 4xx replies and connection failures come back as
// *resilience.TransientError.
type FTPFetcher struct {
	opts FTPOptions
	dial dialFunc
}

// NewFTPFetcher creates a new FTPFetcher with the given options.
func NewFTPFetcher(opts FTPOptions) *FTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.User == "" {
		opts.User = "anonymous"
		opts.Password = "anonymous@"
	}
	return &FTPFetcher{opts: opts, dial: dialServer}
}

func dialServer(ctx context.Context, addr string, timeout time.Duration) (ftpSession, error) {
	conn, err := ftp.Dial(addr, ftp.DialWithTimeout(timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, err
	}
	return serverConn{conn}, nil
}

// serverConn narrows Retr to an io.ReadCloser.
type serverConn struct {
	*ftp.ServerConn
}

func (c serverConn) Retr(path string) (io.ReadCloser, error) {
	return c.ServerConn.Retr(path)
}

// parseFTPURL extracts host (with port) and path from an FTP URL.
func parseFTPURL(rawURL string) (host string, path string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", eris.Wrap(err, "parse ftp url")
	}
	if u.Scheme != "ftp" {
		return "", "", eris.Errorf("expected ftp scheme, got %q", u.Scheme)
	}

	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	if u.Path == "" || u.Path == "/" {
		return "", "", eris.New("empty path in ftp url")
	}
	return host, u.Path, nil
}

// classifyFTPError marks 4xx replies (transient negative completion) and
// network failures as retryable. 5xx replies such as 550 file unavailable
// are returned as is.
func classifyFTPError(err error, action, ftpURL string) error {
	wrapped := eris.Wrapf(err, "ftp %s %s", action, ftpURL)

	var perr *textproto.Error
	if errors.As(err, &perr) {
		if perr.Code >= 400 && perr.Code < 500 {
			zap.L().Warn("reference host returned retryable ftp reply",
				zap.String("url", ftpURL),
				zap.Int("code", perr.Code),
			)
			return resilience.NewTransientError(wrapped, perr.Code)
		}
		return wrapped
	}

	var netErr net.Error
	if errors.As(err, &netErr) || resilience.IsTransient(err) {
		return resilience.NewTransientError(wrapped, 0)
	}
	return wrapped
}

// ftpReader closes the transfer and the control connection together.
type ftpReader struct {
	body io.ReadCloser
	conn ftpSession
}

func (r *ftpReader) Read(p []byte) (int, error) {
	return r.body.Read(p)
}

func (r *ftpReader) Close() error {
	bodyErr := r.body.Close()
	quitErr := r.conn.Quit()
	if bodyErr != nil {
		return eris.Wrap(bodyErr, "close ftp transfer")
	}
	if quitErr != nil {
		return eris.Wrap(quitErr, "quit ftp connection")
	}
	return nil
}

// Download retrieves the reference table at ftpURL. The caller must close the
// reader to release the connection.
func (f *FTPFetcher) Download(ctx context.Context, ftpURL string) (io.ReadCloser, error) {
	host, path, err := parseFTPURL(ftpURL)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("ftp: connecting", zap.String("host", host), zap.String("path", path))

	conn, err := f.dial(ctx, host, f.opts.Timeout)
	if err != nil {
		return nil, classifyFTPError(err, "dial", ftpURL)
	}

	if err := conn.Login(f.opts.User, f.opts.Password); err != nil {
		_ = conn.Quit()
		return nil, classifyFTPError(err, "login", ftpURL)
	}

	body, err := conn.Retr(path)
	if err != nil {
		_ = conn.Quit()
		return nil, classifyFTPError(err, "retrieve", ftpURL)
	}

	return &ftpReader{body: body, conn: conn}, nil
}
