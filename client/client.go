// Package client talks to the hamak JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hamas2/hamak/models"
	"github.com/pkg/errors"
)

var (
	ErrNotFound     = errors.New("client: not found")
	ErrUnauthorized = errors.New("client: not signed in")
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message + " (HTTP " + http.StatusText(e.Status) + ")"
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	}
	return nil
}

type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

func defaultTransport() *http.Transport {
	return &http.Transport{
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
}

// New returns a client for the server at baseURL. Uploads can be slow, so
// the per-request timeout is left to the caller's context.
func New(baseURL string) *Client {
	return &Client{
		http:    &http.Client{Transport: defaultTransport()},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// WithToken sets the session token sent as a bearer token.
func (c *Client) WithToken(token string) *Client {
	c.token = token
	return c
}

func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response")
	}
	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var msg struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &msg) == nil && msg.Error != "" {
			apiErr.Message = msg.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		if resp.StatusCode == http.StatusNotFound && out != nil {
			// Some 404s still carry a body worth decoding.
			_ = json.Unmarshal(data, out)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return errors.Wrap(json.Unmarshal(data, out), "decode response")
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, "", out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return errors.Wrap(err, "encode request")
		}
	}
	return c.do(ctx, http.MethodPost, path, &body, "application/json", out)
}

// Upload is a file sent as one part of a multipart form.
type Upload struct {
	Name   string
	Reader io.Reader
}

// postMultipart streams fields and an optional file without buffering the
// whole body.
func (c *Client) postMultipart(ctx context.Context, path string, fields map[string]string, fileField string, file *Upload, out any) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := func() error {
			for k, v := range fields {
				if err := mw.WriteField(k, v); err != nil {
					return err
				}
			}
			if file != nil {
				fw, err := mw.CreateFormFile(fileField, file.Name)
				if err != nil {
					return err
				}
				if _, err := io.Copy(fw, file.Reader); err != nil {
					return err
				}
			}
			return mw.Close()
		}()
		pw.CloseWithError(err)
	}()

	err := c.do(ctx, http.MethodPost, path, pr, mw.FormDataContentType(), out)
	pr.Close()
	return err
}

func escape(id string) string {
	return url.PathEscape(id)
}

func videoPath(videoID string) string {
	return "/api/videos/" + escape(videoID)
}

func commentPath(videoID, commentID string) string {
	return videoPath(videoID) + "/comments/" + escape(commentID)
}

// Registration is the sign-up form. Picture is optional.
type Registration struct {
	Name      string
	Bio       string
	Gender    string
	Latitude  *float64
	Longitude *float64
	Picture   *Upload
}

type RegisterResponse struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

func (c *Client) Register(ctx context.Context, r Registration) (*RegisterResponse, error) {
	var resp RegisterResponse
	var err error
	if r.Picture != nil {
		fields := map[string]string{"name": r.Name, "bio": r.Bio, "gender": r.Gender}
		if r.Latitude != nil && r.Longitude != nil {
			fields["latitude"] = formatFloat(*r.Latitude)
			fields["longitude"] = formatFloat(*r.Longitude)
		}
		err = c.postMultipart(ctx, "/api/users", fields, "profilePic", r.Picture, &resp)
	} else {
		err = c.postJSON(ctx, "/api/users", map[string]any{
			"name":      r.Name,
			"bio":       r.Bio,
			"gender":    r.Gender,
			"latitude":  r.Latitude,
			"longitude": r.Longitude,
		}, &resp)
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.getJSON(ctx, "/api/me", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Feed(ctx context.Context) ([]models.Video, error) {
	var videos []models.Video
	if err := c.getJSON(ctx, "/api/feed", &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

func (c *Client) Video(ctx context.Context, videoID string) (*models.Video, error) {
	var v models.Video
	if err := c.getJSON(ctx, videoPath(videoID), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) Publish(ctx context.Context, description string, file Upload) (*models.Video, error) {
	var v models.Video
	fields := map[string]string{"description": description}
	if err := c.postMultipart(ctx, "/api/videos", fields, "file", &file, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Profile returns the profile of userID. An unknown user yields a profile
// with a nil User and ErrNotFound.
func (c *Client) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	err := c.getJSON(ctx, "/api/users/"+escape(userID), &p)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return &p, err
}

func (c *Client) UserVideos(ctx context.Context, userID string) ([]models.Video, error) {
	var videos []models.Video
	if err := c.getJSON(ctx, "/api/users/"+escape(userID)+"/videos", &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

func (c *Client) Share(ctx context.Context, videoID string) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	if err := c.getJSON(ctx, videoPath(videoID)+"/share", &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}
