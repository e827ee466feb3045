// Package cloudinary is a minimal client for Cloudinary's unsigned image
// upload API.
package cloudinary

import (
	"context"
	"fmt"
	"time"

	"resty.dev/v3"
)

const baseURL = "https://api.cloudinary.com/v1_1"

type Client struct {
	client *resty.Client
	cloud  string
	preset string
}

func NewClient(cloud, preset string) *Client {
	client := resty.NewWithTransportSettings(&resty.TransportSettings{
		DialerTimeout:         5 * time.Second,
		IdleConnTimeout:       5 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	})

	return &Client{
		client: client,
		cloud:  cloud,
		preset: preset,
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// UploadImage uploads the file at path using the configured unsigned
// preset and returns the hosted image URL.
func (c *Client) UploadImage(ctx context.Context, path string) (string, error) {
	type uploadResult struct {
		SecureURL string `json:"secure_url"`
	}

	res, err := c.client.R().
		WithContext(ctx).
		SetFile("file", path).
		SetFormData(map[string]string{
			"upload_preset": c.preset,
		}).
		SetResult(&uploadResult{}).
		Post(fmt.Sprintf("%s/%s/image/upload", baseURL, c.cloud))

	if err != nil {
		return "", err
	}
	if res.IsError() {
		return "", fmt.Errorf("cloudinary upload failed: %s", res.Status())
	}

	return res.Result().(*uploadResult).SecureURL, nil
}
