package fetcher

import (
	"context"
	"io"
	"net"
	"net/url"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FTPOptions configures the FTP fetcher.
type FTPOptions struct {
	Timeout time.Duration
}

// FTPFetcher downloads registry files from portals that still publish
// over FTP.
type FTPFetcher struct {
	opts FTPOptions
}

// NewFTPFetcher creates a new FTPFetcher with the given options.
func NewFTPFetcher(opts FTPOptions) *FTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	return &FTPFetcher{opts: opts}
}

// parseFTPURL extracts host (with port) and path from an FTP URL.
func parseFTPURL(rawURL string) (host string, path string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", eris.Wrap(err, "fetcher: parse ftp url")
	}
	if u.Scheme != "ftp" {
		return "", "", eris.Errorf("fetcher: expected ftp scheme, got %q", u.Scheme)
	}

	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	path = u.Path
	if path == "" {
		return "", "", eris.New("fetcher: empty path in ftp url")
	}

	return host, path, nil
}

// ftpConnReader ties an FTP response to its connection so closing the
// reader also disconnects from the server.
type ftpConnReader struct {
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (r *ftpConnReader) Read(p []byte) (int, error) {
	return r.resp.Read(p)
}

func (r *ftpConnReader) Close() error {
	respErr := r.resp.Close()
	quitErr := r.conn.Quit()
	if respErr != nil {
		return eris.Wrap(respErr, "fetcher: close ftp response")
	}
	if quitErr != nil {
		return eris.Wrap(quitErr, "fetcher: quit ftp connection")
	}
	return nil
}

// Fetch connects to the FTP server, retrieves the file, and returns a
// reader. The caller must close it to release the connection.
func (f *FTPFetcher) Fetch(ctx context.Context, ftpURL string) (io.ReadCloser, error) {
	host, path, err := parseFTPURL(ftpURL)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("fetcher: ftp connecting", zap.String("host", host), zap.String("path", path))

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(f.opts.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: ftp dial %s", host)
	}

	if err := conn.Login("anonymous", "anonymous"); err != nil {
		_ = conn.Quit()
		return nil, eris.Wrap(err, "fetcher: ftp login")
	}

	resp, err := conn.Retr(path)
	if err != nil {
		_ = conn.Quit()
		return nil, eris.Wrapf(err, "fetcher: ftp retrieve %s", path)
	}

	return &ftpConnReader{resp: resp, conn: conn}, nil
}
