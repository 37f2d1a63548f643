package webscraper

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/klauspost/compress/gzip"
	errs "webscraper/pkg/errors"
	"webscraper/pkg/storage"
)

// DownloadOptions tune an export download
type DownloadOptions struct {
	// Raw requests the unprocessed export (query raw=1)
	Raw bool
	// KeepCompressed writes a gzip encoded response body as received
	KeepCompressed bool
}

// DownloadScrapingJob streams the export of a scraping job into path. The
// file only appears once the whole body has been written.
func (c *Client) DownloadScrapingJob(ctx context.Context, jobID int, format ExportFormat, path string, opts DownloadOptions) error {
	err := storage.WriteFileAtomic(path, func(w io.Writer) error {
		return c.DownloadScrapingJobTo(ctx, jobID, format, w, opts)
	})
	if err != nil {
		c.logger.ErrorWithFields("failed to download scraping job", map[string]interface{}{
			"scraping_job_id": jobID,
			"format":          string(format),
			"path":            path,
			"error":           err.Error(),
		})
		return err
	}

	c.logger.DebugWithFields("downloaded scraping job", map[string]interface{}{
		"scraping_job_id": jobID,
		"format":          string(format),
		"path":            path,
	})
	return nil
}

// DownloadScrapingJobTo streams the export of a scraping job into w
func (c *Client) DownloadScrapingJobTo(ctx context.Context, jobID int, format ExportFormat, w io.Writer, opts DownloadOptions) error {
	if _, err := ParseExportFormat(string(format)); err != nil {
		return errs.Wrap(errs.ErrorTypeRequest, 0, err, "invalid export format")
	}

	req := &Request{
		Method:  http.MethodGet,
		Path:    scrapingJobSubPath(jobID, format.Extension()),
		Headers: map[string]string{"Accept-Encoding": "gzip"},
		Timeout: c.downloadTimeout,
	}
	if opts.Raw {
		req.Query = url.Values{"raw": {"1"}}
	}

	return c.transport.Stream(ctx, req, func(resp *http.Response) error {
		if resp.StatusCode != http.StatusOK {
			return errs.NewStatusError(resp.StatusCode)
		}

		var body io.Reader = resp.Body
		if !opts.KeepCompressed && strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
			zr, err := gzip.NewReader(resp.Body)
			if err != nil {
				return errs.Wrap(errs.ErrorTypeProtocol, resp.StatusCode, err, "invalid gzip stream")
			}
			defer zr.Close()
			body = zr
		}

		sink := &sinkWriter{w: w}
		if _, err := io.Copy(sink, body); err != nil {
			if sink.err != nil {
				return errs.Wrap(errs.ErrorTypeIO, 0, sink.err, "failed to write export")
			}
			return errs.Wrap(errs.ErrorTypeNetwork, 0, err, "failed to read export")
		}
		return nil
	})
}

// sinkWriter remembers write failures so they can be told apart from read
// failures after io.Copy
type sinkWriter struct {
	w   io.Writer
	err error
}

func (s *sinkWriter) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	if err != nil {
		s.err = err
	}
	return n, err
}
