package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/grihenrik/videotranscribe/internal/pkg/cmdapp"
	"github.com/grihenrik/videotranscribe/internal/pkg/errs"
	"github.com/grihenrik/videotranscribe/internal/pkg/transcript"
	"github.com/grihenrik/videotranscribe/internal/pkg/utils"
)

// Client communicates with the speech recognition service
type Client struct {
	httpclient   *retryablehttp.Client
	uploadURL    string
	statusURL    string
	resultURL    string
	pollInterval time.Duration
}

// NewClient creates a speech service client
func NewClient() (*Client, error) {
	res := Client{}
	var err error
	res.uploadURL, err = utils.GetURLFromConfig("speech.url.upload")
	if err != nil {
		return nil, err
	}
	res.statusURL, err = utils.GetURLFromConfig("speech.url.status")
	if err != nil {
		return nil, err
	}
	res.resultURL, err = utils.GetURLFromConfig("speech.url.result")
	if err != nil {
		return nil, err
	}
	res.httpclient = retryablehttp.NewClient()
	res.httpclient.RetryMax = 3
	res.httpclient.Logger = nil
	// keep the final response so status codes map to typed errors
	res.httpclient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	res.pollInterval = 3 * time.Second

	return &res, nil
}

// Transcribe uploads the audio file and waits for the recognition result
func (sp *Client) Transcribe(ctx context.Context, audioPath string, lang string) (*transcript.Transcript, error) {
	id, err := sp.upload(ctx, audioPath, lang)
	if err != nil {
		return nil, err
	}
	cmdapp.Log.Infof("Audio accepted, external ID %s", id)
	if err := sp.waitCompleted(ctx, id); err != nil {
		return nil, err
	}
	return sp.result(ctx, id)
}

type uploadResponse struct {
	ID string `json:"id"`
}

func (sp *Client) upload(ctx context.Context, audioPath string, lang string) (string, error) {
	cmdapp.Log.Infof("Sending audio to: %s", utils.URLToLog(sp.uploadURL))
	file, err := os.Open(audioPath)
	if err != nil {
		return "", errs.Wrap(err, errs.KindInternal, "can't open audio file")
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", errors.Wrap(err, "Can't add file to request")
	}
	if _, err = io.Copy(part, file); err != nil {
		return "", errors.Wrap(err, "Can't add file to request")
	}
	writer.WriteField("lang", lang)
	writer.Close()

	req, err := retryablehttp.NewRequest("POST", sp.uploadURL, body)
	if err != nil {
		return "", err
	}
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := sp.httpclient.Do(req)
	if err != nil {
		return "", errs.Wrap(err, errs.KindInternal, "can't upload audio")
	}
	defer resp.Body.Close()
	if err = mapStatus(resp.StatusCode); err != nil {
		return "", err
	}
	if err = utils.ValidateResponse(resp); err != nil {
		return "", errs.Wrap(err, errs.KindInternal, "can't upload audio")
	}
	var respData uploadResponse
	if err = json.NewDecoder(resp.Body).Decode(&respData); err != nil {
		return "", errors.Wrap(err, "Can't decode response")
	}
	if respData.ID == "" {
		return "", errors.New("No ID in upload response")
	}
	return respData.ID, nil
}

func mapStatus(code int) error {
	switch code {
	case http.StatusForbidden, http.StatusUnauthorized:
		return errs.Errorf(errs.KindAccessDenied, "speech service access denied")
	case http.StatusTooManyRequests:
		return errs.Errorf(errs.KindQuotaExceeded, "speech service quota exceeded")
	}
	return nil
}

type statusResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	ErrorCode string `json:"errorCode,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (sp *Client) waitCompleted(ctx context.Context, id string) error {
	op := func() error {
		st, err := sp.status(ctx, id)
		if err != nil {
			return backoff.Permanent(err)
		}
		if st.Status == "FAILED" {
			return backoff.Permanent(errs.Errorf(errs.KindInternal,
				"recognition failed: %s(%s)", st.Error, st.ErrorCode))
		}
		if st.Status != "COMPLETED" {
			return errors.Errorf("not finished, status '%s'", st.Status)
		}
		return nil
	}
	b := backoff.WithContext(backoff.NewConstantBackOff(sp.pollInterval), ctx)
	return backoff.Retry(op, b)
}

func (sp *Client) status(ctx context.Context, id string) (*statusResponse, error) {
	urlStr := utils.URLJoin(sp.statusURL, id)
	cmdapp.Log.Debugf("Get status: %s", urlStr)
	req, err := retryablehttp.NewRequest("GET", urlStr, nil)
	if err != nil {
		return nil, err
	}
	resp, err := sp.httpclient.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err = mapStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	if err = utils.ValidateResponse(resp); err != nil {
		return nil, errors.Wrap(err, "Can't get status")
	}
	var res statusResponse
	if err = json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, errors.Wrap(err, "Can't decode response")
	}
	return &res, nil
}

func (sp *Client) result(ctx context.Context, id string) (*transcript.Transcript, error) {
	urlStr := utils.URLJoin(sp.resultURL, id, "result.srt")
	req, err := retryablehttp.NewRequest("GET", urlStr, nil)
	if err != nil {
		return nil, err
	}
	resp, err := sp.httpclient.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err = mapStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	if err = utils.ValidateResponse(resp); err != nil {
		return nil, errors.Wrap(err, "Can't get result")
	}
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "Can't read response")
	}
	segments, err := transcript.ParseSrt(string(body))
	if err != nil {
		return nil, errs.Wrap(err, errs.KindInternal, "can't parse recognition result")
	}
	return transcript.New(segments)
}
