package main

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/civita/urbanaccess/internal/fetcher"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the configured service datasets to the data directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		types, byType, err := configuredServices()
		if err != nil {
			return err
		}

		if err := os.MkdirAll(cfg.Fetch.DataDir, 0o755); err != nil {
			return eris.Wrapf(err, "create %s", cfg.Fetch.DataDir)
		}

		limiters := make(map[string]*rate.Limiter)
		for _, st := range types {
			if u, err := url.Parse(byType[st].URL); err == nil && u.Host != "" {
				limiters[u.Host] = rate.NewLimiter(rate.Limit(cfg.Fetch.RatePerSec), cfg.Fetch.Burst)
			}
		}

		httpFetcher := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:    cfg.Fetch.UserAgent,
			Timeout:      time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
			MaxRetries:   cfg.Fetch.MaxRetries,
			RateLimiters: limiters,
		})
		ftpFetcher := fetcher.NewFTPFetcher(fetcher.FTPOptions{
			Timeout: time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		})

		for _, st := range types {
			svc := byType[st]
			if svc.URL == "" {
				zap.L().Warn("no url configured, skipping", zap.String("service", st.String()))
				continue
			}

			dest := svc.Path
			if dest == "" {
				dest = filepath.Join(cfg.Fetch.DataDir, path.Base(svc.URL))
			}

			log := zap.L().With(
				zap.String("service", st.String()),
				zap.String("url", svc.URL),
				zap.String("dest", dest),
			)

			if strings.HasPrefix(svc.URL, "ftp://") {
				if err := downloadFTP(ctx, ftpFetcher, svc.URL, dest); err != nil {
					return err
				}
			} else {
				if err := httpFetcher.Download(ctx, svc.URL, dest); err != nil {
					return err
				}
			}
			log.Info("dataset downloaded")
		}
		return nil
	},
}

func downloadFTP(ctx context.Context, f *fetcher.FTPFetcher, rawURL, dest string) error {
	body, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return err
	}
	defer body.Close()

	out, err := os.Create(dest)
	if err != nil {
		return eris.Wrapf(err, "create %s", dest)
	}
	defer out.Close()

	if _, err := io.Copy(out, body); err != nil {
		return eris.Wrapf(err, "write %s", dest)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
