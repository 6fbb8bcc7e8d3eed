package captions

import (
	"context"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"

	"github.com/grihenrik/videotranscribe/internal/pkg/cmdapp"
	"github.com/grihenrik/videotranscribe/internal/pkg/errs"
	"github.com/grihenrik/videotranscribe/internal/pkg/transcript"
	"github.com/grihenrik/videotranscribe/internal/pkg/utils"
)

// Client fetches existing captions from the caption service
type Client struct {
	httpclient *retryablehttp.Client
	url        string
}

// NewClient creates a caption service client
func NewClient() (*Client, error) {
	res := Client{}
	var err error
	res.url, err = utils.GetURLFromConfig("captions.url")
	if err != nil {
		return nil, err
	}
	res.httpclient = retryablehttp.NewClient()
	res.httpclient.RetryMax = 3
	res.httpclient.Logger = nil
	// keep the final response so status codes map to typed errors
	res.httpclient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return &res, nil
}

// Extract downloads captions for a video.
// Missing captions map to a NotAvailable error, access problems keep their kind.
func (sp *Client) Extract(ctx context.Context, sourceID string, lang string) (*transcript.Transcript, error) {
	urlStr := utils.URLJoin(sp.url, sourceID) + "?lang=" + lang
	cmdapp.Log.Infof("Get captions: %s", urlStr)
	req, err := retryablehttp.NewRequest(http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, errors.Wrap(err, "Can't prepare request")
	}
	resp, err := sp.httpclient.Do(req.WithContext(ctx))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errs.Wrap(err, errs.KindInternal, "can't call caption service")
	}
	defer resp.Body.Close()
	if err := mapStatus(resp.StatusCode, sourceID); err != nil {
		return nil, err
	}
	if err := utils.ValidateResponse(resp); err != nil {
		return nil, errs.Wrap(err, errs.KindInternal, "can't get captions")
	}
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(err, errs.KindInternal, "can't read response")
	}
	return parse(string(body))
}

func mapStatus(code int, sourceID string) error {
	switch code {
	case http.StatusNotFound:
		return errs.Errorf(errs.KindNotAvailable, "no captions for '%s'", sourceID)
	case http.StatusForbidden, http.StatusUnauthorized:
		return errs.Errorf(errs.KindAccessDenied, "access denied for '%s'", sourceID)
	case http.StatusTooManyRequests:
		return errs.Errorf(errs.KindQuotaExceeded, "caption service quota exceeded")
	}
	return nil
}

// parse sniffs the payload format. The service may return VTT or SRT.
func parse(body string) (*transcript.Transcript, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(body, "\ufeff"))
	if trimmed == "" {
		return nil, errs.New(errs.KindNotAvailable, "empty captions")
	}
	var segments []transcript.Segment
	var err error
	if strings.HasPrefix(trimmed, "WEBVTT") {
		segments, err = transcript.ParseVtt(trimmed)
	} else {
		segments, err = transcript.ParseSrt(trimmed)
	}
	if err != nil {
		return nil, errs.Wrap(err, errs.KindInternal, "can't parse captions")
	}
	return transcript.New(segments)
}
