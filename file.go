// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

package mailpost

import (
	"errors"
	"fmt"
	"html"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

var (
	// ErrAttachmentNotFound is returned by the renderer when an attachment path is not a readable
	// regular file.
	ErrAttachmentNotFound = errors.New("attachment file not found")

	// ErrInlineAttachmentNotFound is returned by the renderer when an inline attachment path is
	// not a readable regular file.
	ErrInlineAttachmentNotFound = errors.New("inline attachment file not found")
)

// File is an attachment or inline attachment that has been read from disk for rendering.
type File struct {
	// ContentID is only set for inline attachments
	ContentID   string
	ContentType ContentType
	Name        string
	Path        string
	Data        []byte
}

// loadFile reads the regular file at path. Any failure is reported as notFound wrapped with
// the path and the underlying cause.
func loadFile(path string, notFound error) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", notFound, path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", notFound, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", notFound, path, err)
	}
	name := filepath.Base(path)
	return &File{
		ContentType: detectContentType(name, data),
		Name:        name,
		Path:        path,
		Data:        data,
	}, nil
}

// detectContentType infers the media type of a file from its extension and falls back to
// sniffing its content. Parameters such as charset are dropped.
func detectContentType(name string, data []byte) ContentType {
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType == "" {
		return TypeAppOctetStream
	}
	return ContentType(mediaType)
}

// escapedName returns the file name with HTML special characters replaced by entities, for use
// in quoted header parameters.
func (f *File) escapedName() string {
	return html.EscapeString(f.Name)
}

// contentIDHeader returns the Content-ID value in angle-bracket form.
func (f *File) contentIDHeader() string {
	if len(f.ContentID) > 1 && f.ContentID[0] == '<' && f.ContentID[len(f.ContentID)-1] == '>' {
		return f.ContentID
	}
	return "<" + f.ContentID + ">"
}
