package maxapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// UploadFile performs the two-step upload: it asks /uploads for a target URL,
// then posts the content there as multipart field "data".
func (c *Client) UploadFile(ctx context.Context, typ UploadType, fileName string, r io.Reader) (*FileUploadResult, error) {
	q := url.Values{"type": {string(typ)}}
	var target struct {
		URL   string `json:"url"`
		Token string `json:"token,omitempty"`
	}
	if err := c.do(ctx, call{op: "getUploadURL", method: http.MethodPost, path: "/uploads", query: q, out: &target}); err != nil {
		return nil, err
	}
	if target.URL == "" {
		return nil, errors.New("maxapi: getUploadURL: empty upload url")
	}

	var out FileUploadResult
	if err := c.sendMultipart(ctx, call{op: "uploadFile", method: http.MethodPost, path: target.URL, out: &out}, fileName, r); err != nil {
		return nil, err
	}
	// Video and audio tokens are issued with the upload URL, not by the upload itself.
	if out.Token == "" {
		out.Token = target.Token
	}
	return &out, nil
}

// UploadFileDirect posts the content straight to /uploads in one request.
func (c *Client) UploadFileDirect(ctx context.Context, typ UploadType, fileName string, r io.Reader) (*FileUploadResult, error) {
	q := url.Values{"type": {string(typ)}}
	var out FileUploadResult
	if err := c.sendMultipart(ctx, call{op: "uploadFileDirect", method: http.MethodPost, path: "/uploads", query: q, out: &out}, fileName, r); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetVideo returns playback details of an uploaded video.
func (c *Client) GetVideo(ctx context.Context, token string) (*VideoInfo, error) {
	if token == "" {
		return nil, fmt.Errorf("maxapi: getVideo: empty token")
	}
	var out VideoInfo
	if err := c.do(ctx, call{op: "getVideo", method: http.MethodGet, path: "/videos/" + url.PathEscape(token), out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}
