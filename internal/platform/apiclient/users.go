package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

const profilePath = "/api/v1/users/me"

// Profile returns the logged-in user's profile.
func (c *Client) Profile(ctx context.Context) (*User, error) {
	var out User
	if err := c.get(ctx, profilePath, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile patches the provided fields.
func (c *Client) UpdateProfile(ctx context.Context, in ProfileUpdate) (*User, error) {
	var out User
	if err := c.send(ctx, http.MethodPatch, profilePath, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadProfilePhoto sends the image as the multipart field "file".
func (c *Client) UploadProfilePhoto(ctx context.Context, filename string, content io.Reader) (*User, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("copying photo: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	var out User
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        profilePath + "/profile-photo",
		raw:         &buf,
		contentType: mw.FormDataContentType(),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProfilePhoto removes the stored photo.
func (c *Client) DeleteProfilePhoto(ctx context.Context) (*User, error) {
	var out User
	if err := c.send(ctx, http.MethodDelete, profilePath+"/profile-photo", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
